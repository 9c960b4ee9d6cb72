package structured

import (
	"regexp"
	"strings"

	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/value"
)

// EvaluateFilter recursively evaluates f against row. A nil filter matches
// every row; a missing column/path or an inapplicable operand (e.g. LIKE on
// non-string) yields false.
func (t *Table) EvaluateFilter(row []value.Value, f *query.Filter) bool {
	if f == nil {
		return true
	}
	if f.And != nil {
		return t.EvaluateFilter(row, f.And.Left) && t.EvaluateFilter(row, f.And.Right)
	}
	if f.Or != nil {
		return t.EvaluateFilter(row, f.Or.Left) || t.EvaluateFilter(row, f.Or.Right)
	}
	cell, ok := t.ExtractFromRow(row, f.Col)
	if !ok {
		return false
	}
	return evaluateCondition(cell, f.Op, f.Val, t.columnTypeFor(f.Col))
}

func (t *Table) columnTypeFor(expr string) DataType {
	col, _ := splitExpr(expr)
	idx := t.ColumnIndex(col)
	if idx < 0 {
		return TypeString
	}
	return t.Columns[idx].Type
}

func evaluateCondition(cell value.Value, op query.Operator, raw string, colType DataType) bool {
	switch op {
	case query.OpLike:
		if cell.Kind() != value.KindString {
			return false
		}
		return likeMatch(cell.AsString(), raw)
	case query.OpIn:
		for _, part := range strings.Split(raw, ",") {
			candidate := ParseCell(colType, strings.TrimSpace(part))
			if value.Equal(cell, candidate) {
				return true
			}
		}
		return false
	default:
		rhs := ParseCell(colType, raw)
		c := value.Compare(cell, rhs)
		switch op {
		case query.OpEq:
			return c == 0
		case query.OpNeq:
			return c != 0
		case query.OpGt:
			return c > 0
		case query.OpLt:
			return c < 0
		case query.OpGte:
			return c >= 0
		case query.OpLte:
			return c <= 0
		default:
			return false
		}
	}
}

// likeMatch implements SQL-style LIKE with % (any length) and _ (one char),
// anchored at both ends.
func likeMatch(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// planResult is the outcome of attempting to reduce a filter to a candidate
// row-id set via indices.
type planResult struct {
	reducible bool
	rowIDs    map[int64]struct{}
}

// PlanFilter attempts filter push-down per spec.md §4.2 step 1. Returns
// (candidateIDs, true) if reducible, else (nil, false) meaning "full scan".
func (t *Table) PlanFilter(f *query.Filter) (map[int64]struct{}, bool) {
	res := t.planFilter(f)
	if !res.reducible {
		return nil, false
	}
	return res.rowIDs, true
}

func (t *Table) planFilter(f *query.Filter) planResult {
	if f == nil {
		return planResult{reducible: false}
	}
	if f.And != nil {
		left := t.planFilter(f.And.Left)
		right := t.planFilter(f.And.Right)
		switch {
		case left.reducible && right.reducible:
			return planResult{reducible: true, rowIDs: intersect(left.rowIDs, right.rowIDs)}
		case left.reducible:
			return left
		case right.reducible:
			return right
		default:
			return planResult{reducible: false}
		}
	}
	if f.Or != nil {
		left := t.planFilter(f.Or.Left)
		right := t.planFilter(f.Or.Right)
		if left.reducible && right.reducible {
			return planResult{reducible: true, rowIDs: union(left.rowIDs, right.rowIDs)}
		}
		return planResult{reducible: false}
	}
	// Leaf condition.
	switch f.Op {
	case query.OpEq:
		ix, ok := t.Indices[f.Col]
		if !ok {
			return planResult{reducible: false}
		}
		rhs := ParseCell(t.columnTypeFor(f.Col), f.Val)
		return planResult{reducible: true, rowIDs: toSet(ix.Lookup(rhs))}
	case query.OpGt, query.OpGte, query.OpLt, query.OpLte:
		ix, ok := t.Indices[f.Col]
		if !ok {
			return planResult{reducible: false}
		}
		rhs := ParseCell(t.columnTypeFor(f.Col), f.Val)
		lo := RangeBound{Unbounded: true}
		hi := RangeBound{Unbounded: true}
		switch f.Op {
		case query.OpGt:
			lo = RangeBound{Value: rhs, Inclusive: false}
		case query.OpGte:
			lo = RangeBound{Value: rhs, Inclusive: true}
		case query.OpLt:
			hi = RangeBound{Value: rhs, Inclusive: false}
		case query.OpLte:
			hi = RangeBound{Value: rhs, Inclusive: true}
		}
		return planResult{reducible: true, rowIDs: toSet(ix.Range(lo, hi))}
	default:
		return planResult{reducible: false}
	}
}

func toSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func intersect(a, b map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{})
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for id := range small {
		if _, ok := big[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func union(a, b map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}
