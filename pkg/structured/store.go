package structured

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/unsetsoft/toridb/pkg/dberrors"
	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/value"
)

// Store is the relational plane for one database engine: a registry of
// named tables plus their indices.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Table returns the named table, if it exists.
func (s *Store) Table(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// TableNames returns all registered table names.
func (s *Store) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for n := range s.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CreateTable registers a new table, failing if the name already exists.
func (s *Store) CreateTable(name string, columns []query.ColumnDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return dberrors.Constraint("table '%s' already exists", name)
	}
	cols := make([]Column, len(columns))
	for i, c := range columns {
		dt, ok := ParseDataType(c.Type)
		if !ok {
			return dberrors.Type("unknown column type '%s'", c.Type)
		}
		col := Column{Name: c.Name, Type: dt, IsPK: c.IsPK}
		if c.HasFK {
			col.FK = &ForeignKey{Table: c.FKTable, Column: c.FKColumn}
		}
		cols[i] = col
	}
	s.tables[name] = NewTable(name, cols)
	return nil
}

// Insert parses raw column values, enforces PK/FK constraints, appends the
// row, and maintains every index registered on this table.
func (s *Store) Insert(tableName string, raw []string) (int64, error) {
	s.mu.RLock()
	t, ok := s.tables[tableName]
	s.mu.RUnlock()
	if !ok {
		return 0, dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(raw) != len(t.Columns) {
		return 0, dberrors.Constraint("column count mismatch: expected %d, got %d", len(t.Columns), len(raw))
	}

	row := make([]value.Value, len(raw))
	for i, c := range t.Columns {
		row[i] = ParseCell(c.Type, raw[i])
	}

	if pk, ok := t.PKColumn(); ok {
		pkIdx := t.ColumnIndex(pk.Name)
		if ix, ok := t.Indices[pk.Name]; ok {
			if ix.BucketSize(row[pkIdx]) > 0 {
				return 0, dberrors.Constraint("Constraint violation: Duplicate primary key '%s'", row[pkIdx].String())
			}
		}
	}

	for _, c := range t.Columns {
		if c.FK == nil {
			continue
		}
		refTable, ok := s.lookupTableUnsafe(c.FK.Table)
		if !ok {
			return 0, dberrors.Constraint("foreign key references unknown table '%s'", c.FK.Table)
		}
		refIdx, ok := refTable.Indices[c.FK.Column]
		if !ok {
			return 0, dberrors.Constraint("foreign key column '%s.%s' is not indexed", c.FK.Table, c.FK.Column)
		}
		colIdx := t.ColumnIndex(c.Name)
		if refIdx.BucketSize(row[colIdx]) == 0 {
			return 0, dberrors.Constraint("foreign key violation: '%s' not found in %s.%s", row[colIdx].String(), c.FK.Table, c.FK.Column)
		}
	}

	id := t.NextRowID
	t.NextRowID++
	t.rows[id] = row
	t.rowOrder = append(t.rowOrder, id)

	for expr, ix := range t.Indices {
		if key, ok := t.ExtractFromRow(row, expr); ok {
			ix.Add(key, id)
		}
	}
	return id, nil
}

// lookupTableUnsafe looks up a table under s.mu's read lock but without
// locking the returned table, whose indices the caller then reads during FK
// validation at insert time.
func (s *Store) lookupTableUnsafe(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// CreateIndex builds a fresh hash+ordered index over a column expression by
// walking every row, then publishes it under the expression's verbatim text.
func (s *Store) CreateIndex(tableName, expr string) error {
	t, ok := s.Table(tableName)
	if !ok {
		return dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Rebuild(expr, func(row []value.Value) (value.Value, bool) {
		return t.ExtractFromRow(row, expr)
	})
	return nil
}

// AlterTable applies an ADD or DROP column operation.
func (s *Store) AlterTable(tableName string, op query.AlterOp) error {
	t, ok := s.Table(tableName)
	if !ok {
		return dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch op.Kind {
	case query.AlterAdd:
		dt, ok := ParseDataType(op.ColumnType)
		if !ok {
			return dberrors.Type("unknown column type '%s'", op.ColumnType)
		}
		t.Columns = append(t.Columns, Column{Name: op.ColumnName, Type: dt})
		zero := dt.ZeroValue()
		for _, id := range t.rowOrder {
			t.rows[id] = append(t.rows[id], zero)
		}
		return nil
	case query.AlterDrop:
		idx := t.ColumnIndex(op.ColumnName)
		if idx < 0 {
			return dberrors.NotFound("column '%s' does not exist", op.ColumnName)
		}
		if t.Columns[idx].IsPK {
			return dberrors.Constraint("cannot drop primary key column '%s'", op.ColumnName)
		}
		t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
		for _, id := range t.rowOrder {
			row := t.rows[id]
			t.rows[id] = append(row[:idx], row[idx+1:]...)
		}
		// See DESIGN.md Open Question 1: indices rooted at a dropped column
		// are removed rather than left dangling.
		for expr := range t.Indices {
			col, _ := splitExpr(expr)
			if col == op.ColumnName {
				delete(t.Indices, expr)
			}
		}
		return nil
	default:
		return dberrors.Internal("unknown alter op")
	}
}

// Update applies set.Column = set.Value to every row matching filter, under
// the caller's already-held engine transaction lock, and resynchronizes
// every index registered on the updated column.
func (s *Store) Update(tableName string, filter *query.Filter, col, val string) (int64, error) {
	t, ok := s.Table(tableName)
	if !ok {
		return 0, dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	colIdx := t.ColumnIndex(col)
	if colIdx < 0 {
		return 0, dberrors.NotFound("column '%s' does not exist", col)
	}
	newVal := ParseCell(t.Columns[colIdx].Type, val)

	var count int64
	for _, id := range t.rowOrder {
		row := t.rows[id]
		if !t.EvaluateFilter(row, filter) {
			continue
		}
		for expr, ix := range t.Indices {
			exprCol, _ := splitExpr(expr)
			if exprCol != col {
				continue
			}
			if oldKey, ok := t.ExtractFromRow(row, expr); ok {
				ix.Remove(oldKey, id)
			}
		}
		row[colIdx] = newVal
		for expr, ix := range t.Indices {
			exprCol, _ := splitExpr(expr)
			if exprCol != col {
				continue
			}
			if newKey, ok := t.ExtractFromRow(row, expr); ok {
				ix.Add(newKey, id)
			}
		}
		count++
	}
	return count, nil
}

// Delete removes every row matching filter, purging index membership.
func (s *Store) Delete(tableName string, filter *query.Filter) (int64, error) {
	t, ok := s.Table(tableName)
	if !ok {
		return 0, dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var toDelete []int64
	for _, id := range t.rowOrder {
		if t.EvaluateFilter(t.rows[id], filter) {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		row := t.rows[id]
		for expr, ix := range t.Indices {
			if key, ok := t.ExtractFromRow(row, expr); ok {
				ix.Remove(key, id)
			}
		}
		delete(t.rows, id)
	}
	if len(toDelete) > 0 {
		deleted := toSet(toDelete)
		out := t.rowOrder[:0]
		for _, id := range t.rowOrder {
			if _, gone := deleted[id]; !gone {
				out = append(out, id)
			}
		}
		t.rowOrder = out
	}
	return int64(len(toDelete)), nil
}

// Select runs the full read pipeline: index push-down, re-check scan, join,
// group/aggregate, order, offset, limit, projection.
func (s *Store) Select(tableName string, sel query.Selector, joins []query.JoinClause, filter *query.Filter, groupBy []string, having *query.Filter, orderBy *query.OrderBy, limit, offset *int) ([][]value.Value, []string, error) {
	t, ok := s.Table(tableName)
	if !ok {
		return nil, nil, dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []int64
	if candidates, reducible := t.PlanFilter(filter); reducible {
		ids = make([]int64, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	} else {
		ids = t.RowIDs()
	}

	rows := make([][]value.Value, 0, len(ids))
	for _, id := range ids {
		row, ok := t.Row(id)
		if !ok || !t.EvaluateFilter(row, filter) {
			continue
		}
		rows = append(rows, row)
	}

	if len(joins) > 0 {
		var err error
		rows, err = s.applyJoins(t, rows, joins)
		if err != nil {
			return nil, nil, err
		}
	}

	colNames := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		colNames[i] = c.Name
	}

	if len(groupBy) > 0 || sel.IsAggregate() {
		return t.groupAndAggregate(rows, colNames, groupBy, having, sel, orderBy, limit, offset)
	}

	if orderBy != nil {
		sortRows(rows, colNames, *orderBy)
	}
	rows = applyOffsetLimit(rows, offset, limit)
	return t.project(rows, colNames, sel)
}

// applyJoins performs a nested-loop inner/left join against each clause in
// sequence, widening each left row with the matched right-table columns.
func (s *Store) applyJoins(left *Table, rows [][]value.Value, joins []query.JoinClause) ([][]value.Value, error) {
	for _, j := range joins {
		right, ok := s.Table(j.Table)
		if !ok {
			return nil, dberrors.NotFound("table '%s' does not exist", j.Table)
		}
		right.mu.RLock()
		rightCols := len(right.Columns)
		leftIdx := left.ColumnIndex(j.OnLeft)
		rightIdx := right.ColumnIndex(j.OnRight)
		var joined [][]value.Value
		for _, lrow := range rows {
			matched := false
			if leftIdx >= 0 && rightIdx >= 0 {
				for _, rid := range right.RowIDs() {
					rrow, _ := right.Row(rid)
					if value.Equal(lrow[leftIdx], rrow[rightIdx]) {
						matched = true
						combined := append(append([]value.Value{}, lrow...), rrow...)
						joined = append(joined, combined)
					}
				}
			}
			if !matched && j.Type == query.JoinLeft {
				padding := make([]value.Value, rightCols)
				for i := range padding {
					padding[i] = value.Null()
				}
				joined = append(joined, append(append([]value.Value{}, lrow...), padding...))
			}
		}
		right.mu.RUnlock()
		rows = joined
	}
	return rows, nil
}

func applyOffsetLimit(rows [][]value.Value, offset, limit *int) [][]value.Value {
	if offset != nil {
		if *offset >= len(rows) {
			return nil
		}
		rows = rows[*offset:]
	}
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

func sortRows(rows [][]value.Value, colNames []string, ob query.OrderBy) {
	idx := -1
	for i, n := range colNames {
		if n == ob.Column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := value.Compare(rows[i][idx], rows[j][idx])
		if ob.Ascending {
			return c < 0
		}
		return c > 0
	})
}

// project selects the requested output columns (SelAll/SelColumns) from rows
// already finalized in shape.
func (t *Table) project(rows [][]value.Value, colNames []string, sel query.Selector) ([][]value.Value, []string, error) {
	if sel.Kind == query.SelAll || len(sel.Columns) == 0 {
		return rows, colNames, nil
	}
	idxs := make([]int, len(sel.Columns))
	for i, name := range sel.Columns {
		pos := -1
		for j, n := range colNames {
			if n == name {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, nil, dberrors.NotFound("column '%s' does not exist", name)
		}
		idxs[i] = pos
	}
	out := make([][]value.Value, len(rows))
	for i, row := range rows {
		projected := make([]value.Value, len(idxs))
		for j, idx := range idxs {
			projected[j] = row[idx]
		}
		out[i] = projected
	}
	return out, sel.Columns, nil
}

// groupAndAggregate buckets rows by groupBy column values, computes the
// requested aggregate per bucket, applies HAVING, then orders/limits the
// resulting bucket rows.
func (t *Table) groupAndAggregate(rows [][]value.Value, colNames, groupBy []string, having *query.Filter, sel query.Selector, orderBy *query.OrderBy, limit, offset *int) ([][]value.Value, []string, error) {
	groupIdxs := make([]int, len(groupBy))
	for i, g := range groupBy {
		groupIdxs[i] = indexOf(colNames, g)
	}
	aggIdx := -1
	if sel.Column != "" {
		aggIdx = indexOf(colNames, sel.Column)
	}

	type bucket struct {
		key  []value.Value
		rows [][]value.Value
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, row := range rows {
		key := make([]value.Value, len(groupIdxs))
		for i, idx := range groupIdxs {
			if idx >= 0 {
				key[i] = row[idx]
			}
		}
		hk := groupKey(key)
		b, ok := buckets[hk]
		if !ok {
			b = &bucket{key: key}
			buckets[hk] = b
			order = append(order, hk)
		}
		b.rows = append(b.rows, row)
	}

	outCols := append(append([]string{}, groupBy...), aggColumnName(sel))
	var out [][]value.Value
	for _, hk := range order {
		b := buckets[hk]
		aggVal := computeAggregate(sel, b.rows, aggIdx)
		result := append(append([]value.Value{}, b.key...), aggVal)
		if having != nil {
			// HAVING is evaluated against the aggregate row's own columns.
			if !evalHavingRow(result, outCols, having) {
				continue
			}
		}
		out = append(out, result)
	}

	if orderBy != nil {
		sortRows(out, outCols, *orderBy)
	}
	out = applyOffsetLimit(out, offset, limit)
	return out, outCols, nil
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}

func groupKey(vals []value.Value) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(v.String())
		b.WriteByte('\x1f')
	}
	return b.String()
}

func aggColumnName(sel query.Selector) string {
	switch sel.Kind {
	case query.SelCount:
		return "count"
	case query.SelSum:
		return "sum"
	case query.SelAvg:
		return "avg"
	case query.SelMax:
		return "max"
	case query.SelMin:
		return "min"
	default:
		return sel.Column
	}
}

func computeAggregate(sel query.Selector, rows [][]value.Value, colIdx int) value.Value {
	switch sel.Kind {
	case query.SelCount:
		return value.Int(int64(len(rows)))
	case query.SelSum:
		var sum float64
		for _, r := range rows {
			if colIdx >= 0 && r[colIdx].IsNumeric() {
				sum += r[colIdx].AsFloat()
			}
		}
		return value.Float(sum)
	case query.SelAvg:
		if len(rows) == 0 {
			return value.Float(0)
		}
		var sum float64
		for _, r := range rows {
			if colIdx >= 0 && r[colIdx].IsNumeric() {
				sum += r[colIdx].AsFloat()
			}
		}
		return value.Float(sum / float64(len(rows)))
	case query.SelMax, query.SelMin:
		if colIdx < 0 || len(rows) == 0 {
			return value.Null()
		}
		best := rows[0][colIdx]
		for _, r := range rows[1:] {
			c := value.Compare(r[colIdx], best)
			if (sel.Kind == query.SelMax && c > 0) || (sel.Kind == query.SelMin && c < 0) {
				best = r[colIdx]
			}
		}
		return best
	default:
		return value.Null()
	}
}

func evalHavingRow(row []value.Value, colNames []string, f *query.Filter) bool {
	if f == nil {
		return true
	}
	if f.And != nil {
		return evalHavingRow(row, colNames, f.And.Left) && evalHavingRow(row, colNames, f.And.Right)
	}
	if f.Or != nil {
		return evalHavingRow(row, colNames, f.Or.Left) || evalHavingRow(row, colNames, f.Or.Right)
	}
	idx := indexOf(colNames, f.Col)
	if idx < 0 {
		return false
	}
	return evaluateCondition(row[idx], f.Op, f.Val, inferType(row[idx]))
}

func inferType(v value.Value) DataType {
	switch v.Kind() {
	case value.KindInt:
		return TypeInteger
	case value.KindFloat:
		return TypeFloat
	case value.KindBool:
		return TypeBoolean
	case value.KindDateTime:
		return TypeDateTime
	case value.KindBlob:
		return TypeBlob
	default:
		return TypeString
	}
}

// VectorSearch ranks rows by cosine similarity of a vector column against
// query, returning the top k (row, score) pairs descending by score.
func (s *Store) VectorSearch(tableName, column string, queryVec []float64, k int) ([][]value.Value, []float64, error) {
	t, ok := s.Table(tableName)
	if !ok {
		return nil, nil, dberrors.NotFound("table '%s' does not exist", tableName)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	colIdx := t.ColumnIndex(column)
	if colIdx < 0 {
		return nil, nil, dberrors.NotFound("column '%s' does not exist", column)
	}

	type scored struct {
		row   []value.Value
		score float64
	}
	var results []scored
	for _, id := range t.RowIDs() {
		row, _ := t.Row(id)
		cell := row[colIdx]
		if cell.Kind() != value.KindVector {
			continue
		}
		sim, ok := value.CosineSimilarity(cell.AsVector(), queryVec)
		if !ok {
			continue
		}
		results = append(results, scored{row: row, score: sim})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if k < len(results) {
		results = results[:k]
	}
	rows := make([][]value.Value, len(results))
	scores := make([]float64, len(results))
	for i, r := range results {
		rows[i] = r.row
		scores[i] = r.score
	}
	return rows, scores, nil
}

// Export serializes every table's schema and rows for a whole-engine snapshot.
func (s *Store) Export() map[string]TableDump {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]TableDump, len(s.tables))
	for name, t := range s.tables {
		t.mu.RLock()
		cols := append([]Column{}, t.Columns...)
		rows := make(map[int64][]value.Value, len(t.rows))
		for id, row := range t.rows {
			rows[id] = append([]value.Value{}, row...)
		}
		out[name] = TableDump{
			Columns:   cols,
			NextRowID: t.NextRowID,
			Rows:      rows,
			RowOrder:  append([]int64{}, t.rowOrder...),
		}
		t.mu.RUnlock()
	}
	return out
}

// TableDump is the serializable shape of one table for snapshots.
type TableDump struct {
	Columns   []Column
	NextRowID int64
	Rows      map[int64][]value.Value
	RowOrder  []int64
}

// Restore replaces this store's contents from a previously exported dump,
// rebuilding every PK index.
func (s *Store) Restore(dump map[string]TableDump) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*Table, len(dump))
	for name, td := range dump {
		t := NewTable(name, td.Columns)
		t.NextRowID = td.NextRowID
		t.rowOrder = append([]int64{}, td.RowOrder...)
		t.rows = make(map[int64][]value.Value, len(td.Rows))
		for id, row := range td.Rows {
			t.rows[id] = append([]value.Value{}, row...)
		}
		for expr, ix := range t.Indices {
			_ = ix
			t.Rebuild(expr, func(row []value.Value) (value.Value, bool) {
				return t.ExtractFromRow(row, expr)
			})
		}
		s.tables[name] = t
	}
}

// DumpCommands renders every table as CREATE TABLE + INSERT + CREATE INDEX
// command text, for log-rewrite compaction. Grounded on dump_commands() in
// structured.rs: the emitted text must parse back through this package's own
// grammar (columnDef/parseInsert), not SQL.
func (s *Store) DumpCommands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, name := range s.sortedNamesLocked() {
		t := s.tables[name]
		t.mu.RLock()
		out = append(out, t.createTableCommand())
		for _, id := range t.rowOrder {
			out = append(out, t.insertCommand(t.rows[id]))
		}
		out = append(out, t.createIndexCommands()...)
		t.mu.RUnlock()
	}
	return out
}

func (s *Store) sortedNamesLocked() []string {
	out := make([]string, 0, len(s.tables))
	for n := range s.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// createTableCommand renders "CREATE TABLE name col:type[:pk][:fk(t.c)] ...",
// the grammar columnDef() in pkg/parser accepts.
func (t *Table) createTableCommand() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s", t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, " %s:%s", c.Name, dataTypeName(c.Type))
		if c.IsPK {
			b.WriteString(":pk")
		}
		if c.FK != nil {
			fmt.Fprintf(&b, ":fk(%s.%s)", c.FK.Table, c.FK.Column)
		}
	}
	return b.String()
}

// insertCommand renders "INSERT name \"v1\" \"v2\" ...", the grammar
// parseInsert()/stringList() accepts — every value double-quoted so the
// round trip never depends on a bare token's contents.
func (t *Table) insertCommand(row []value.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT %s", t.Name)
	for _, v := range row {
		text := v.String()
		switch v.Kind() {
		case value.KindObject, value.KindArray:
			// JSON text, which ParseCell parses back for a json column.
			if raw, err := v.MarshalJSON(); err == nil {
				text = string(raw)
			}
		case value.KindBlob:
			// Raw bytes; ParseCell base64-encodes them again.
			text = string(v.AsBlob())
		}
		b.WriteByte(' ')
		b.WriteString(quoteCommandValue(text))
	}
	return b.String()
}

// quoteCommandValue double-quotes s for use as a command-text token,
// escaping the characters cursor.quoted() unescapes on the way back in.
func quoteCommandValue(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// createIndexCommands renders one "CREATE INDEX name ON table(expr)" line
// per non-PK index, in sorted order for deterministic output. PK columns are
// skipped: NewTable recreates their index automatically from the CREATE
// TABLE line's :pk marker, so re-emitting one would be redundant.
func (t *Table) createIndexCommands() []string {
	pk, hasPK := t.PKColumn()
	exprs := make([]string, 0, len(t.Indices))
	for expr := range t.Indices {
		if hasPK && expr == pk.Name {
			continue
		}
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)
	out := make([]string, len(exprs))
	for i, expr := range exprs {
		out[i] = fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", t.Name, indexNameToken(expr), t.Name, expr)
	}
	return out
}

// indexNameToken sanitizes an index expression (which may contain "->" JSON
// path operators) into something identifier() will accept inside a
// synthesized index name.
func indexNameToken(expr string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, expr)
}

func dataTypeName(t DataType) string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeFloat:
		return "float"
	case TypeDateTime:
		return "datetime"
	case TypeBlob:
		return "blob"
	case TypeJSON:
		return "json"
	case TypeVector:
		return "vector"
	default:
		return "string"
	}
}
