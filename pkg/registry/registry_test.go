package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/snapshot"
)

func TestGetOrCreateFromEmptyDataDir(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, 10, 0)

	eng, cmdLog, replay, created, err := r.GetOrCreate("alpha")
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, eng)
	require.NotNil(t, cmdLog)
	require.Empty(t, replay)
	require.NoError(t, cmdLog.Close())
}

func TestGetOrCreateIsIdempotentPerProcess(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, 10, 0)

	eng1, _, _, created1, err := r.GetOrCreate("beta")
	require.NoError(t, err)
	require.True(t, created1)

	eng2, _, replay2, created2, err := r.GetOrCreate("beta")
	require.NoError(t, err)
	require.False(t, created2)
	require.Nil(t, replay2)
	require.Same(t, eng1, eng2)
}

func seedSnapshot(t *testing.T, dir, dbName string) {
	eng := engine.New(dbName, 0)
	require.NoError(t, eng.Structured.CreateTable("t", []query.ColumnDef{
		{Name: "id", Type: "integer", IsPK: true},
	}))
	_, err := eng.Structured.Insert("t", []string{"1"})
	require.NoError(t, err)

	data := snapshot.Build(eng, 1)
	require.NoError(t, snapshot.Save(data, filepath.Join(dir, dbName+"_dump.json")))
}

func TestGetOrCreatePrefersLogOverSnapshot(t *testing.T) {
	dir := t.TempDir()
	seedSnapshot(t, dir, "gamma")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gamma.db"), []byte("SET foo bar\n"), 0o644))

	r := New(dir, 10, 0)
	newEng, _, replay, created, err := r.GetOrCreate("gamma")
	require.NoError(t, err)
	require.True(t, created)
	require.Empty(t, newEng.Structured.TableNames())
	require.Equal(t, []string{"SET foo bar"}, replay)
}

func TestGetOrCreateLoadsSnapshotWhenNoLogExists(t *testing.T) {
	dir := t.TempDir()
	seedSnapshot(t, dir, "delta")

	r := New(dir, 10, 0)
	newEng, _, replay, created, err := r.GetOrCreate("delta")
	require.NoError(t, err)
	require.True(t, created)
	require.Contains(t, newEng.Structured.TableNames(), "t")
	require.Empty(t, replay)
}

func TestGetReturnsFalseForUnknownDB(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, 10, 0)
	_, _, ok := r.Get("nope")
	require.False(t, ok)
}
