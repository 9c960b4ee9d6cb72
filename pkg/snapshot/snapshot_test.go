package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/flexible"
	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/structured"
	"github.com/unsetsoft/toridb/pkg/value"
)

type fakeEngine struct {
	flex *flexible.Store
	str  *structured.Store
}

func (f *fakeEngine) FlexibleStore() *flexible.Store     { return f.flex }
func (f *fakeEngine) StructuredStore() *structured.Store { return f.str }

func newFakeEngine(t *testing.T) *fakeEngine {
	flex := flexible.New(0)
	flex.Set("k1", value.String("v1"))
	str := structured.New()
	require.NoError(t, str.CreateTable("t", []query.ColumnDef{
		{Name: "id", Type: "integer", IsPK: true},
	}))
	_, err := str.Insert("t", []string{"1"})
	require.NoError(t, err)
	return &fakeEngine{flex: flex, str: str}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	eng := newFakeEngine(t)
	data := Build(eng, 1234)
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, Save(data, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(1234), loaded.Timestamp)

	target := &fakeEngine{flex: flexible.New(0), str: structured.New()}
	Restore(target, loaded)
	v, ok := target.FlexibleStore().Get("k1")
	require.True(t, ok)
	require.Equal(t, "v1", v.AsString())
}

func TestToStringFromStringRoundTrip(t *testing.T) {
	eng := newFakeEngine(t)
	data := Build(eng, 99)
	s, err := ToString(data)
	require.NoError(t, err)

	back, err := FromString(s)
	require.NoError(t, err)
	require.Equal(t, int64(99), back.Timestamp)
}
