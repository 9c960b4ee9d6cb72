// Package structured implements StructuredStore, the relational plane:
// typed tables, primary/foreign keys, hash+ordered indices per column
// expression, and a filter/group/aggregate/join/vector-search query planner.
//
// Grounded on _examples/original_source/src/core/structured.rs, generalized
// from that file's historical plain-string row representation to the
// UnifiedValue + stable-row_id model spec.md mandates (see DESIGN.md).
package structured

import (
	"sync"

	"github.com/unsetsoft/toridb/pkg/value"
)

// DataType is the closed set of column types.
type DataType int

const (
	TypeInteger DataType = iota
	TypeString
	TypeBoolean
	TypeFloat
	TypeDateTime
	TypeBlob
	TypeJSON
	TypeVector
)

// ParseDataType maps a column-def type token (case-insensitive) to a DataType.
func ParseDataType(s string) (DataType, bool) {
	switch normalizeType(s) {
	case "int", "integer":
		return TypeInteger, true
	case "string", "str", "text":
		return TypeString, true
	case "bool", "boolean":
		return TypeBoolean, true
	case "float", "double":
		return TypeFloat, true
	case "datetime", "timestamp":
		return TypeDateTime, true
	case "blob", "bytes":
		return TypeBlob, true
	case "json":
		return TypeJSON, true
	case "vector":
		return TypeVector, true
	default:
		return 0, false
	}
}

func normalizeType(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 32
		}
		out = append(out, c)
	}
	return string(out)
}

// ZeroValue returns a column type's default value, used to backfill ADD COLUMN.
func (t DataType) ZeroValue() value.Value {
	switch t {
	case TypeInteger:
		return value.Int(0)
	case TypeString:
		return value.String("")
	case TypeBoolean:
		return value.Bool(false)
	case TypeFloat:
		return value.Float(0)
	case TypeDateTime:
		return value.DateTime(0)
	case TypeBlob:
		return value.Blob(nil)
	case TypeJSON:
		return value.Null()
	case TypeVector:
		return value.Null()
	default:
		return value.Null()
	}
}

// ForeignKey references another table's column.
type ForeignKey struct {
	Table  string
	Column string
}

// Column describes one column in a table.
type Column struct {
	Name string
	Type DataType
	IsPK bool
	FK   *ForeignKey
}

// Table is a typed row store with a stable row_id across deletes.
type Table struct {
	mu sync.RWMutex

	Name       string
	Columns    []Column
	NextRowID  int64
	rows       map[int64][]value.Value
	rowOrder   []int64 // insertion order, yields deterministic scans
	Indices    map[string]*Index
}

// NewTable returns an empty table with the given column set, auto-creating
// hash+ordered indices for every primary-key column.
func NewTable(name string, columns []Column) *Table {
	t := &Table{
		Name:      name,
		Columns:   columns,
		NextRowID: 1,
		rows:      make(map[int64][]value.Value),
		Indices:   make(map[string]*Index),
	}
	for _, c := range columns {
		if c.IsPK {
			t.Indices[c.Name] = newIndex()
		}
	}
	return t
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// PKColumn returns the primary-key column, if any.
func (t *Table) PKColumn() (Column, bool) {
	for _, c := range t.Columns {
		if c.IsPK {
			return c, true
		}
	}
	return Column{}, false
}

// RowIDs returns row ids in insertion order (a defensive copy).
func (t *Table) RowIDs() []int64 {
	out := make([]int64, len(t.rowOrder))
	copy(out, t.rowOrder)
	return out
}

// Row returns the cell slice for a row id (nil, false if absent).
func (t *Table) Row(id int64) ([]value.Value, bool) {
	r, ok := t.rows[id]
	return r, ok
}

// Len reports the current row count.
func (t *Table) Len() int { return len(t.rowOrder) }
