package structured

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/parser"
	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/value"
)

func usersTable(t *testing.T) *Store {
	s := New()
	err := s.CreateTable("users", []query.ColumnDef{
		{Name: "id", Type: "integer", IsPK: true},
		{Name: "name", Type: "string"},
		{Name: "age", Type: "integer"},
	})
	require.NoError(t, err)
	return s
}

func TestInsertRejectsDuplicatePK(t *testing.T) {
	s := usersTable(t)
	_, err := s.Insert("users", []string{"1", "alice", "30"})
	require.NoError(t, err)
	_, err = s.Insert("users", []string{"1", "bob", "40"})
	require.Error(t, err)
}

func TestInsertAssignsStableRowID(t *testing.T) {
	s := usersTable(t)
	id1, err := s.Insert("users", []string{"1", "alice", "30"})
	require.NoError(t, err)
	id2, err := s.Insert("users", []string{"2", "bob", "40"})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	n, err := s.Delete("users", &query.Filter{Col: "id", Op: query.OpEq, Val: "1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	tbl, _ := s.Table("users")
	_, ok := tbl.Row(id2)
	require.True(t, ok, "surviving row must keep its original row id")
}

func TestRangeQueryUsesIndex(t *testing.T) {
	s := usersTable(t)
	require.NoError(t, s.CreateIndex("users", "age"))
	for i := int64(0); i < 5; i++ {
		_, err := s.Insert("users", []string{itoa(i), "u", itoa(20 + i)})
		require.NoError(t, err)
	}
	rows, _, err := s.Select("users", query.Selector{Kind: query.SelAll}, nil,
		&query.Filter{Col: "age", Op: query.OpGte, Val: "22"}, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

// TestDumpCommandsRoundTripsThroughParser covers R2/R4: the text DumpCommands
// emits must be replayable through the store's own command grammar, not SQL,
// and a non-PK index must survive the round trip too.
func TestDumpCommandsRoundTripsThroughParser(t *testing.T) {
	s := usersTable(t)
	require.NoError(t, s.CreateIndex("users", "age"))
	_, err := s.Insert("users", []string{"1", "alice", "30"})
	require.NoError(t, err)
	_, err = s.Insert("users", []string{"2", "bob", "40"})
	require.NoError(t, err)

	cmds := s.DumpCommands()
	require.Contains(t, cmds[0], "CREATE TABLE users")
	require.Contains(t, cmds[0], "id:integer:pk")

	fresh := New()
	for _, text := range cmds {
		cmd, err := parser.Parse(text)
		require.NoError(t, err, "command text %q must parse: %v", text, err)
		switch cmd.Kind {
		case query.CmdCreateTable:
			require.NoError(t, fresh.CreateTable(cmd.Table, cmd.Columns))
		case query.CmdInsert:
			_, err := fresh.Insert(cmd.Table, cmd.InsertVal)
			require.NoError(t, err)
		case query.CmdCreateIndex:
			require.NoError(t, fresh.CreateIndex(cmd.Table, cmd.Field))
		default:
			t.Fatalf("unexpected command kind in dump: %v", cmd.Kind)
		}
	}

	rows, _, err := fresh.Select("users", query.Selector{Kind: query.SelAll}, nil, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	tbl, ok := fresh.Table("users")
	require.True(t, ok)
	_, hasAgeIndex := tbl.Indices["age"]
	require.True(t, hasAgeIndex, "non-PK index must survive a dump/replay round trip")
}

func TestAggregateCount(t *testing.T) {
	s := usersTable(t)
	for i := int64(0); i < 4; i++ {
		_, err := s.Insert("users", []string{itoa(i), "u", "25"})
		require.NoError(t, err)
	}
	rows, cols, err := s.Select("users", query.Selector{Kind: query.SelCount}, nil, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "count", cols[len(cols)-1])
	require.Equal(t, int64(4), rows[0][len(rows[0])-1].AsInt())
}

func TestVectorSearchRanksByCosineSimilarity(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateTable("docs", []query.ColumnDef{
		{Name: "id", Type: "integer", IsPK: true},
		{Name: "embedding", Type: "vector"},
	}))
	_, err := s.Insert("docs", []string{"1", "[1, 0]"})
	require.NoError(t, err)
	_, err = s.Insert("docs", []string{"2", "[0, 1]"})
	require.NoError(t, err)

	rows, scores, err := s.VectorSearch("docs", "embedding", []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.InDelta(t, 1.0, scores[0], 1e-9)
	require.Equal(t, int64(1), rows[0][0].AsInt())
}

func TestAlterTableAddBackfillsDefault(t *testing.T) {
	s := usersTable(t)
	_, err := s.Insert("users", []string{"1", "alice", "30"})
	require.NoError(t, err)
	require.NoError(t, s.AlterTable("users", query.AlterOp{Kind: query.AlterAdd, ColumnName: "active", ColumnType: "boolean"}))

	rows, cols, err := s.Select("users", query.Selector{Kind: query.SelAll}, nil, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	idx := indexOf(cols, "active")
	require.GreaterOrEqual(t, idx, 0)
	require.Equal(t, value.Bool(false), rows[0][idx])
}

func TestAlterTableDropRemovesDependentIndex(t *testing.T) {
	s := usersTable(t)
	require.NoError(t, s.CreateIndex("users", "age"))
	require.NoError(t, s.AlterTable("users", query.AlterOp{Kind: query.AlterDrop, ColumnName: "age"}))

	tbl, _ := s.Table("users")
	_, stillIndexed := tbl.Indices["age"]
	require.False(t, stillIndexed)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
