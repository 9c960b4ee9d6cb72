package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareVariantRank(t *testing.T) {
	ordered := []Value{
		Null(),
		Bool(false),
		Int(0),
		Float(0),
		DateTime(0),
		String(""),
		Blob(nil),
		Array(nil),
		ObjectValue(NewObject()),
		Vector(nil),
	}
	for i := 0; i < len(ordered)-1; i++ {
		require.Negative(t, Compare(ordered[i], ordered[i+1]), "variant %d should be < variant %d", i, i+1)
	}
}

func TestCompareTransitive(t *testing.T) {
	a, b, c := Int(1), Int(2), Int(3)
	require.Negative(t, Compare(a, b))
	require.Negative(t, Compare(b, c))
	require.Negative(t, Compare(a, c))
}

func TestNaNCanonicalization(t *testing.T) {
	a := Float(math.NaN())
	b := Float(math.NaN())
	require.Equal(t, a.AsFloat(), b.AsFloat())
	require.True(t, Equal(a, b))
}

func TestVectorEqualityEpsilon(t *testing.T) {
	a := Vector([]float64{1.0, 2.0})
	b := Vector([]float64{1.0 + 1e-12, 2.0})
	require.True(t, Equal(a, b))

	c := Vector([]float64{1.1, 2.0})
	require.False(t, Equal(a, c))
}

func TestCosineSimilarity(t *testing.T) {
	sim, ok := CosineSimilarity([]float64{1, 0}, []float64{1, 0})
	require.True(t, ok)
	require.InDelta(t, 1.0, sim, 1e-9)

	_, ok = CosineSimilarity([]float64{}, []float64{})
	require.False(t, ok)

	_, ok = CosineSimilarity([]float64{1, 2}, []float64{1})
	require.False(t, ok)

	_, ok = CosineSimilarity([]float64{0, 0}, []float64{1, 1})
	require.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Int(1))
	obj.Set("b", Array([]Value{String("x"), Bool(true)}))
	v := ObjectValue(obj)

	data, err := v.MarshalJSON()
	require.NoError(t, err)

	var out Value
	require.NoError(t, out.UnmarshalJSON(data))
	require.True(t, Equal(v, out))
}

func TestStringRendering(t *testing.T) {
	require.Equal(t, "nil", Null().String())
	require.Equal(t, "42", Int(42).String())
	require.Equal(t, "alice", String("alice").String())
}
