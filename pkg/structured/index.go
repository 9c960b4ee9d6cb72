package structured

import (
	"sort"

	"github.com/unsetsoft/toridb/pkg/value"
)

// Index holds both a hash index and an ordered (range-scannable) index over
// the same column expression, per spec.md §3.
type Index struct {
	hash    map[string][]int64
	ordered []orderedEntry // sorted ascending by value.Compare
}

type orderedEntry struct {
	key    value.Value
	rowIDs []int64
}

func newIndex() *Index {
	return &Index{hash: make(map[string][]int64)}
}

// hashKey renders a canonical, comparable string for a value, used as the
// hash-index bucket key: the value's kind plus its String() rendering. For
// scalar kinds this matches value.Equal (Float 0 and -0 aside); for Array,
// Object and Vector keys the rendered text can disagree with value.Equal.
func hashKey(v value.Value) string {
	return string(rune(v.Kind())) + "|" + v.String()
}

// Add inserts rowID under the extracted key into both index halves.
func (ix *Index) Add(key value.Value, rowID int64) {
	hk := hashKey(key)
	ix.hash[hk] = append(ix.hash[hk], rowID)

	pos := sort.Search(len(ix.ordered), func(i int) bool {
		return value.Compare(ix.ordered[i].key, key) >= 0
	})
	if pos < len(ix.ordered) && value.Equal(ix.ordered[pos].key, key) {
		ix.ordered[pos].rowIDs = append(ix.ordered[pos].rowIDs, rowID)
		return
	}
	entry := orderedEntry{key: key, rowIDs: []int64{rowID}}
	ix.ordered = append(ix.ordered, orderedEntry{})
	copy(ix.ordered[pos+1:], ix.ordered[pos:])
	ix.ordered[pos] = entry
}

// Remove deletes rowID from the bucket for key.
func (ix *Index) Remove(key value.Value, rowID int64) {
	hk := hashKey(key)
	ix.hash[hk] = removeID(ix.hash[hk], rowID)
	if len(ix.hash[hk]) == 0 {
		delete(ix.hash, hk)
	}

	pos := sort.Search(len(ix.ordered), func(i int) bool {
		return value.Compare(ix.ordered[i].key, key) >= 0
	})
	if pos < len(ix.ordered) && value.Equal(ix.ordered[pos].key, key) {
		ix.ordered[pos].rowIDs = removeID(ix.ordered[pos].rowIDs, rowID)
		if len(ix.ordered[pos].rowIDs) == 0 {
			ix.ordered = append(ix.ordered[:pos], ix.ordered[pos+1:]...)
		}
	}
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Lookup returns the row ids whose extracted value equals key.
func (ix *Index) Lookup(key value.Value) []int64 {
	return ix.hash[hashKey(key)]
}

// BucketSize returns the bucket size for key, used to enforce PK uniqueness (I3).
func (ix *Index) BucketSize(key value.Value) int {
	return len(ix.hash[hashKey(key)])
}

// RangeBound describes one side of a range scan.
type RangeBound struct {
	Value     value.Value
	Inclusive bool
	Unbounded bool
}

// Range returns the row ids whose extracted value falls within [lo,hi]
// (per bound inclusivity), in ascending key order.
func (ix *Index) Range(lo, hi RangeBound) []int64 {
	start := 0
	if !lo.Unbounded {
		start = sort.Search(len(ix.ordered), func(i int) bool {
			c := value.Compare(ix.ordered[i].key, lo.Value)
			if lo.Inclusive {
				return c >= 0
			}
			return c > 0
		})
	}
	end := len(ix.ordered)
	if !hi.Unbounded {
		end = sort.Search(len(ix.ordered), func(i int) bool {
			c := value.Compare(ix.ordered[i].key, hi.Value)
			if hi.Inclusive {
				return c > 0
			}
			return c >= 0
		})
	}
	var out []int64
	for i := start; i < end && i < len(ix.ordered); i++ {
		out = append(out, ix.ordered[i].rowIDs...)
	}
	return out
}

// Rebuild discards and recomputes an index from scratch by walking rows via
// extractFn, which maps a row to the key value (or false if inapplicable).
func (t *Table) Rebuild(expr string, extractFn func(row []value.Value) (value.Value, bool)) {
	ix := newIndex()
	for _, id := range t.rowOrder {
		row := t.rows[id]
		if key, ok := extractFn(row); ok {
			ix.Add(key, id)
		}
	}
	t.Indices[expr] = ix
}
