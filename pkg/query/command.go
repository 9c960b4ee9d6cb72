// Package query defines the command and filter AST shared by the text
// parser, the structured-store query planner, and the executor.
package query

// Operator is a filter comparison operator.
type Operator int

const (
	OpEq Operator = iota
	OpNeq
	OpGt
	OpLt
	OpGte
	OpLte
	OpLike
	OpIn
)

// Filter is a boolean predicate tree over column expressions.
type Filter struct {
	// Condition fields; Op/Col/Val are set when And/Or are nil.
	Col string
	Op  Operator
	Val string

	And *FilterPair
	Or  *FilterPair
}

// FilterPair holds the two operands of a binary boolean combinator.
type FilterPair struct {
	Left  *Filter
	Right *Filter
}

// IsCondition reports whether f is a leaf comparison (not And/Or).
func (f *Filter) IsCondition() bool { return f != nil && f.And == nil && f.Or == nil }

// SelectorKind tags the projection/aggregate requested by a SELECT.
type SelectorKind int

const (
	SelAll SelectorKind = iota
	SelColumns
	SelCount
	SelSum
	SelAvg
	SelMax
	SelMin
)

// Selector describes what a SELECT projects.
type Selector struct {
	Kind    SelectorKind
	Columns []string // used by SelColumns
	Column  string   // used by Sum/Avg/Max/Min
}

// IsAggregate reports whether the selector computes a single aggregate value.
func (s Selector) IsAggregate() bool {
	switch s.Kind {
	case SelCount, SelSum, SelAvg, SelMax, SelMin:
		return true
	default:
		return false
	}
}

// JoinType is the kind of join in a JoinClause.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
)

// JoinClause describes one joined table and its equality predicate.
type JoinClause struct {
	Type    JoinType
	Table   string
	OnLeft  string // table.col
	OnRight string // table.col
}

// AlterOpKind tags an ALTER TABLE operation.
type AlterOpKind int

const (
	AlterAdd AlterOpKind = iota
	AlterDrop
)

// AlterOp is a single ALTER TABLE operation.
type AlterOp struct {
	Kind       AlterOpKind
	ColumnName string
	ColumnType string // used by AlterAdd
}

// ColumnDef describes one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name      string
	Type      string
	IsPK      bool
	FKTable   string
	FKColumn  string
	HasFK     bool
}

// OrderBy is an ORDER BY clause.
type OrderBy struct {
	Column    string
	Ascending bool
}

// Kind tags the variant carried by a Command.
type Kind int

const (
	CmdReplicaOf Kind = iota
	CmdPsync
	CmdInfo
	CmdClusterInfo
	CmdClusterSlots
	CmdClusterMeet
	CmdClusterAddSlots
	CmdClusterSetSlot
	CmdSet
	CmdGet
	CmdDel
	CmdLPush
	CmdRPush
	CmdLPop
	CmdRPop
	CmdLRange
	CmdHSet
	CmdHGet
	CmdHGetAll
	CmdSAdd
	CmdSMembers
	CmdZAdd
	CmdZRange
	CmdZScore
	CmdJSONGet
	CmdJSONSet
	CmdCreateTable
	CmdAlterTable
	CmdInsert
	CmdSelect
	CmdVectorSearch
	CmdUpdate
	CmdDelete
	CmdPing
	CmdSave
	CmdCreateIndex
	CmdSetEx
	CmdTTL
	CmdAuth
	CmdAclSetUser
	CmdAclGetUser
	CmdAclList
	CmdAclDelUser
	CmdClientList
	CmdClientKill
	CmdIncr
	CmdDecr
	CmdRewriteAof
	CmdUse
	CmdBegin
	CmdCommit
	CmdRollback
)

// Command is a fully parsed, tagged command ready for dispatch.
type Command struct {
	Kind Kind

	// Generic string/slice payloads, named per command for readability at
	// call sites even though a single struct carries every variant.
	Key      string
	Keys     []string
	Value    string
	Values   []string
	TTL      uint64
	Count    *int64
	Start    int64
	Stop     int64
	Field    string
	Score    float64
	Member   string
	Path     string

	Table     string
	Columns   []ColumnDef
	AlterOp   *AlterOp
	InsertVal []string
	Selector  Selector
	Joins     []JoinClause
	Filter    *Filter
	GroupBy   []string
	Having    *Filter
	OrderBy   *OrderBy
	Limit     *int
	Offset    *int
	Vector    []float64
	SetCol    string
	SetVal    string

	IndexName string

	Host     string
	Port     string
	PortNum  uint16
	Slots    []uint16

	Username string
	Password string
	Rules    []string

	Addr string

	DBName string
}

// GetKey returns the flexible-store key this command addresses, if any —
// used for slot-ownership routing. Only flexible-plane commands carry a key.
func (c *Command) GetKey() (string, bool) {
	switch c.Kind {
	case CmdSet, CmdGet, CmdSetEx, CmdTTL, CmdIncr, CmdDecr,
		CmdLPush, CmdRPush, CmdLPop, CmdRPop, CmdLRange,
		CmdHSet, CmdHGet, CmdHGetAll,
		CmdSAdd, CmdSMembers,
		CmdZAdd, CmdZRange, CmdZScore,
		CmdJSONGet, CmdJSONSet:
		return c.Key, true
	default:
		return "", false
	}
}

// IsWrite reports whether successful execution of c must be appended to the
// command log and propagated to replicas.
func (c *Command) IsWrite() bool {
	switch c.Kind {
	case CmdSet, CmdCreateTable, CmdInsert, CmdUpdate, CmdDelete, CmdAclSetUser,
		CmdLPush, CmdRPush, CmdLPop, CmdRPop,
		CmdHSet, CmdSAdd, CmdJSONSet,
		CmdSetEx, CmdIncr, CmdDecr,
		CmdAlterTable, CmdCreateIndex, CmdReplicaOf,
		CmdAclDelUser, CmdClientKill, CmdZAdd,
		CmdCommit:
		return true
	default:
		return false
	}
}
