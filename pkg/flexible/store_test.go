package flexible

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unsetsoft/toridb/pkg/value"
)

func TestSetGetDel(t *testing.T) {
	s := New(0)
	s.Set("user:1", value.String("alice"))
	v, ok := s.Get("user:1")
	require.True(t, ok)
	require.Equal(t, "alice", v.AsString())

	require.EqualValues(t, 1, s.Del("user:1"))
	_, ok = s.Get("user:1")
	require.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	s := New(0)
	s.SetWithTTL("k", value.String("v"), 0)
	time.Sleep(5 * time.Millisecond)
	_, ok := s.Get("k")
	require.False(t, ok, "expired key must not be observable")
	require.EqualValues(t, -2, s.TTL("k"))
}

func TestTTLNoExpirySentinel(t *testing.T) {
	s := New(0)
	s.Set("k", value.String("v"))
	require.EqualValues(t, -1, s.TTL("k"))
	require.EqualValues(t, -2, s.TTL("missing"))
}

func TestSetClearsExistingTTL(t *testing.T) {
	s := New(0)
	s.SetWithTTL("k", value.String("v"), 100)
	s.Set("k", value.String("v2"))
	require.EqualValues(t, -1, s.TTL("k"))
}

func TestIncrDecrMissingTreatedAsZero(t *testing.T) {
	s := New(0)
	require.EqualValues(t, 1, s.Incr("counter", 1))
	require.EqualValues(t, 0, s.Incr("counter", -1))
}

func TestEvictionAtCapacity(t *testing.T) {
	s := New(3)
	s.Set("a", value.Int(1))
	s.Set("b", value.Int(2))
	s.Set("c", value.Int(3))
	require.Equal(t, 3, s.Len())
	s.Set("d", value.Int(4))
	require.LessOrEqual(t, s.Len(), 3)
}

func TestLRangeBoundaries(t *testing.T) {
	s := New(0)
	require.Empty(t, s.LRange("missing", 0, -1))

	s.RPush("list", "a", "b", "c")
	require.Equal(t, []value.Value{value.String("a"), value.String("b"), value.String("c")}, s.LRange("list", 0, -1))
	require.Empty(t, s.LRange("list", 2, 1))
}

func TestLPushOrder(t *testing.T) {
	s := New(0)
	s.LPush("list", "a", "b")
	got := s.LRange("list", 0, -1)
	require.Equal(t, "b", got[0].AsString())
	require.Equal(t, "a", got[1].AsString())
}

func TestZAddNoDuplicate(t *testing.T) {
	s := New(0)
	s.ZAdd("z", 1, "m")
	s.ZAdd("z", 5, "m")
	require.Equal(t, []string{"m"}, s.ZRange("z", 0, -1))
	score, ok := s.ZScore("z", "m")
	require.True(t, ok)
	require.Equal(t, 5.0, score)
}

func TestHashOps(t *testing.T) {
	s := New(0)
	require.True(t, s.HSet("h", "f1", "v1"))
	require.False(t, s.HSet("h", "f1", "v2"))
	v, ok := s.HGet("h", "f1")
	require.True(t, ok)
	require.Equal(t, "v2", v.AsString())
}

func TestSAddDedup(t *testing.T) {
	s := New(0)
	require.EqualValues(t, 2, s.SAdd("s", "a", "b"))
	require.EqualValues(t, 1, s.SAdd("s", "a", "c"))
	require.Len(t, s.SMembers("s"), 3)
}

func TestJSONGetSet(t *testing.T) {
	s := New(0)
	obj := value.NewObject()
	inner := value.NewObject()
	inner.Set("name", value.String("alice"))
	obj.Set("user", value.ObjectValue(inner))
	s.Set("doc", value.ObjectValue(obj))

	v, ok := s.JSONGet("doc", "user.name")
	require.True(t, ok)
	require.Equal(t, "alice", v.AsString())

	require.True(t, s.JSONSet("doc", "user.name", value.String("bob")))
	v, _ = s.JSONGet("doc", "user.name")
	require.Equal(t, "bob", v.AsString())

	require.False(t, s.JSONSet("doc", "missing.field", value.String("x")))
}

func TestDumpCommandsSkipsExpired(t *testing.T) {
	s := New(0)
	s.Set("a", value.String("1"))
	s.SetWithTTL("b", value.String("2"), 0)
	time.Sleep(5 * time.Millisecond)
	cmds := s.DumpCommands()
	for _, c := range cmds {
		require.NotContains(t, c, " b ")
	}
}
