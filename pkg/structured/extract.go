package structured

import (
	"strconv"
	"strings"

	"github.com/unsetsoft/toridb/pkg/value"
)

// splitExpr splits a column expression ("col", "col->field", "col->>field",
// chainable) into the base column name and the JSON path segments.
func splitExpr(expr string) (col string, path []string) {
	// Both "->" and "->>" behave identically in this model: a JSON field
	// extraction. Normalize "->>" to "->" before splitting.
	normalized := strings.ReplaceAll(expr, "->>", "->")
	parts := strings.Split(normalized, "->")
	return parts[0], parts[1:]
}

// ExtractFromRow extracts the value named by a column expression from a row.
func (t *Table) ExtractFromRow(row []value.Value, expr string) (value.Value, bool) {
	col, path := splitExpr(expr)
	idx := t.ColumnIndex(col)
	if idx < 0 || idx >= len(row) {
		return value.Null(), false
	}
	cur := row[idx]
	for _, seg := range path {
		if cur.Kind() != value.KindObject {
			return value.Null(), false
		}
		v, ok := cur.AsObject().Get(seg)
		if !ok {
			return value.Null(), false
		}
		cur = v
	}
	return cur, true
}

// ParseCell parses a raw text argument into a typed Value for the given
// column type. Unparseable text yields the type's zero value, except Vector
// (becomes Null) and Json (parses as JSON, Null on failure), per spec.md §4.2.
func ParseCell(t DataType, raw string) value.Value {
	switch t {
	case TypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return value.Int(0)
		}
		return value.Int(i)
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return value.Float(0)
		}
		return value.Float(f)
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return value.Bool(false)
		}
		return value.Bool(b)
	case TypeDateTime:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return value.DateTime(0)
		}
		return value.DateTime(i)
	case TypeBlob:
		return value.Blob([]byte(raw))
	case TypeString:
		return value.String(raw)
	case TypeJSON:
		return value.ParseJSON(raw)
	case TypeVector:
		v := value.ParseJSON(raw)
		if v.Kind() != value.KindArray {
			return value.Null()
		}
		floats := make([]float64, 0, len(v.AsArray()))
		for _, e := range v.AsArray() {
			if !e.IsNumeric() {
				return value.Null()
			}
			floats = append(floats, e.AsFloat())
		}
		return value.Vector(floats)
	default:
		return value.Null()
	}
}
