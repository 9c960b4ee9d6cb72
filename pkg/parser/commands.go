package parser

import (
	"strings"

	"github.com/unsetsoft/toridb/pkg/query"
)

// stringList parses one-or-more space-separated parse_string tokens,
// matching separated_list1(multispace1, parse_string).
func (c *cursor) stringList() ([]string, error) {
	first, err := c.str()
	if err != nil {
		return nil, err
	}
	vals := []string{first}
	for {
		save := c.pos
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		v, err := c.str()
		if err != nil {
			c.pos = save
			break
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// columnExprList parses a comma-separated list of column expressions.
func (c *cursor) columnExprList() ([]string, error) {
	first, err := c.columnExpr()
	if err != nil {
		return nil, err
	}
	cols := []string{first}
	for {
		save := c.pos
		c.skipSpace()
		if !c.tryConsumeByte(',') {
			c.pos = save
			break
		}
		c.skipSpace()
		col, err := c.columnExpr()
		if err != nil {
			c.pos = save
			break
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (c *cursor) vector() ([]float64, error) {
	if err := c.consumeByte('['); err != nil {
		return nil, err
	}
	var vals []float64
	for {
		c.skipSpace()
		v, err := c.float()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		c.skipSpace()
		if c.tryConsumeByte(',') {
			continue
		}
		break
	}
	if err := c.consumeByte(']'); err != nil {
		return nil, err
	}
	return vals, nil
}

func (c *cursor) u16List() ([]uint16, error) {
	first, err := c.u64()
	if err != nil {
		return nil, err
	}
	slots := []uint16{uint16(first)}
	for {
		save := c.pos
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		n, err := c.u64()
		if err != nil {
			c.pos = save
			break
		}
		slots = append(slots, uint16(n))
	}
	return slots, nil
}

func parseSet(c *cursor) (query.Command, error) {
	if !c.matchWord("SET") {
		return query.Command{}, errf("expected SET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	value, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdSet, Key: key, Value: strings.TrimSpace(value)}, nil
}

func parseSetEx(c *cursor) (query.Command, error) {
	if !c.matchWord("SETEX") {
		return query.Command{}, errf("expected SETEX")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	ttl, err := c.u64()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	value, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdSetEx, Key: key, TTL: ttl, Value: strings.TrimSpace(value)}, nil
}

func parseGet(c *cursor) (query.Command, error) {
	if !c.matchWord("GET") {
		return query.Command{}, errf("expected GET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdGet, Key: key}, nil
}

func parseDel(c *cursor) (query.Command, error) {
	if !c.matchWord("DEL") {
		return query.Command{}, errf("expected DEL")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	keys, err := c.stringList()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdDel, Keys: keys}, nil
}

func parseTTL(c *cursor) (query.Command, error) {
	if !c.matchWord("TTL") {
		return query.Command{}, errf("expected TTL")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdTTL, Key: key}, nil
}

func parseIncr(c *cursor) (query.Command, error) {
	if !c.matchWord("INCR") {
		return query.Command{}, errf("expected INCR")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdIncr, Key: key}, nil
}

func parseDecr(c *cursor) (query.Command, error) {
	if !c.matchWord("DECR") {
		return query.Command{}, errf("expected DECR")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdDecr, Key: key}, nil
}

func parseAuth(c *cursor) (query.Command, error) {
	if !c.matchWord("AUTH") {
		return query.Command{}, errf("expected AUTH")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}

	save := c.pos
	if user, err := c.identifier(); err == nil {
		if err2 := c.requireSpace(); err2 == nil {
			if pass, err3 := c.str(); err3 == nil {
				return query.Command{Kind: query.CmdAuth, Username: user, Password: pass}, nil
			}
		}
	}
	c.pos = save
	pass, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdAuth, Password: pass}, nil
}

func parseAcl(c *cursor) (query.Command, error) {
	if !c.matchWord("ACL") {
		return query.Command{}, errf("expected ACL")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	sub := strings.ToUpper(c.headWord())
	switch sub {
	case "SETUSER":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		username, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		password, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		rules, err := c.stringList()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdAclSetUser, Username: username, Password: password, Rules: rules}, nil
	case "GETUSER":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		username, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdAclGetUser, Username: username}, nil
	case "LIST":
		c.pos += len(sub)
		return query.Command{Kind: query.CmdAclList}, nil
	case "DELUSER":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		username, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdAclDelUser, Username: username}, nil
	default:
		return query.Command{}, errf("unknown ACL subcommand: %s", sub)
	}
}

func parseUse(c *cursor) (query.Command, error) {
	if !c.matchWord("USE") {
		return query.Command{}, errf("expected USE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	db, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdUse, DBName: db}, nil
}

func parseClient(c *cursor) (query.Command, error) {
	if !c.matchWord("CLIENT") {
		return query.Command{}, errf("expected CLIENT")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	sub := strings.ToUpper(c.headWord())
	switch sub {
	case "LIST":
		c.pos += len(sub)
		return query.Command{Kind: query.CmdClientList}, nil
	case "KILL":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		addr, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdClientKill, Addr: addr}, nil
	default:
		return query.Command{}, errf("unknown CLIENT subcommand: %s", sub)
	}
}

func parseReplicaOf(c *cursor) (query.Command, error) {
	if !c.matchWord("REPLICAOF") {
		return query.Command{}, errf("expected REPLICAOF")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	host, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	port, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdReplicaOf, Host: host, Port: port}, nil
}

func parseCluster(c *cursor) (query.Command, error) {
	if !c.matchWord("CLUSTER") {
		return query.Command{}, errf("expected CLUSTER")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	sub := strings.ToUpper(c.headWord())
	switch sub {
	case "INFO":
		c.pos += len(sub)
		return query.Command{Kind: query.CmdClusterInfo}, nil
	case "SLOTS":
		c.pos += len(sub)
		return query.Command{Kind: query.CmdClusterSlots}, nil
	case "MEET":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		host, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		port, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdClusterMeet, Host: host, Port: port}, nil
	case "ADDSLOTS":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		slots, err := c.u16List()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdClusterAddSlots, Slots: slots}, nil
	case "SETSLOT":
		c.pos += len(sub)
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		slot, err := c.u64()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		if !c.matchWord("NODE") {
			return query.Command{}, errf("expected NODE at %q", c.rest())
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		host, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		port, err := c.str()
		if err != nil {
			return query.Command{}, err
		}
		return query.Command{Kind: query.CmdClusterSetSlot, Slots: []uint16{uint16(slot)}, Host: host, Port: port}, nil
	default:
		return query.Command{}, errf("unknown CLUSTER subcommand: %s", sub)
	}
}

func parseSearch(c *cursor) (query.Command, error) {
	if !c.matchWord("SEARCH") {
		return query.Command{}, errf("expected SEARCH")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	column, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	vec, err := c.vector()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	limit, err := c.u64()
	if err != nil {
		return query.Command{}, err
	}
	n := int64(limit)
	return query.Command{Kind: query.CmdVectorSearch, Table: table, Field: column, Vector: vec, Count: &n}, nil
}

func parseCreate(c *cursor) (query.Command, error) {
	if !c.matchWord("CREATE") {
		return query.Command{}, errf("expected CREATE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	sub := strings.ToUpper(c.headWord())
	switch sub {
	case "TABLE":
		c.pos += len(sub)
		return parseCreateTableBody(c)
	case "INDEX":
		c.pos += len(sub)
		return parseCreateIndexBody(c)
	default:
		return query.Command{}, errf("unknown CREATE subcommand: %s", sub)
	}
}

func (c *cursor) columnDef() (query.ColumnDef, error) {
	name, err := c.identifier()
	if err != nil {
		return query.ColumnDef{}, err
	}
	if err := c.consumeByte(':'); err != nil {
		return query.ColumnDef{}, err
	}
	dtype, err := c.identifier()
	if err != nil {
		return query.ColumnDef{}, err
	}
	def := query.ColumnDef{Name: name, Type: dtype}

	save := c.pos
	if c.tryConsumeByte(':') {
		if c.matchWord("PRIMARY KEY") || c.matchWord("PK") {
			def.IsPK = true
		} else {
			c.pos = save
		}
	}

	save = c.pos
	if c.tryConsumeByte(':') {
		if c.matchWord("FK") {
			if err := c.consumeByte('('); err != nil {
				return query.ColumnDef{}, err
			}
			fkTable, err := c.identifier()
			if err != nil {
				return query.ColumnDef{}, err
			}
			if err := c.consumeByte('.'); err != nil {
				return query.ColumnDef{}, err
			}
			fkCol, err := c.identifier()
			if err != nil {
				return query.ColumnDef{}, err
			}
			if err := c.consumeByte(')'); err != nil {
				return query.ColumnDef{}, err
			}
			def.HasFK = true
			def.FKTable = fkTable
			def.FKColumn = fkCol
		} else {
			c.pos = save
		}
	}
	return def, nil
}

func parseCreateTableBody(c *cursor) (query.Command, error) {
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	name, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	first, err := c.columnDef()
	if err != nil {
		return query.Command{}, err
	}
	cols := []query.ColumnDef{first}
	for {
		save := c.pos
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		cd, err := c.columnDef()
		if err != nil {
			c.pos = save
			break
		}
		cols = append(cols, cd)
	}
	return query.Command{Kind: query.CmdCreateTable, Table: name, Columns: cols}, nil
}

func parseCreateIndexBody(c *cursor) (query.Command, error) {
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	idxName, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if !c.matchWord("ON") {
		return query.Command{}, errf("expected ON at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.consumeByte('('); err != nil {
		return query.Command{}, err
	}
	col, err := c.columnExpr()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.consumeByte(')'); err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdCreateIndex, IndexName: idxName, Table: table, Field: col}, nil
}

func parseAlterTable(c *cursor) (query.Command, error) {
	if !c.matchWord("ALTER") {
		return query.Command{}, errf("expected ALTER")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if !c.matchWord("TABLE") {
		return query.Command{}, errf("expected TABLE at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}

	var op *query.AlterOp
	switch {
	case c.matchWord("ADD"):
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		col, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		if err := c.consumeByte(':'); err != nil {
			return query.Command{}, err
		}
		dtype, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		op = &query.AlterOp{Kind: query.AlterAdd, ColumnName: col, ColumnType: dtype}
	case c.matchWord("DROP"):
		if err := c.requireSpace(); err != nil {
			return query.Command{}, err
		}
		col, err := c.identifier()
		if err != nil {
			return query.Command{}, err
		}
		op = &query.AlterOp{Kind: query.AlterDrop, ColumnName: col}
	default:
		return query.Command{}, errf("expected ADD or DROP at %q", c.rest())
	}
	return query.Command{Kind: query.CmdAlterTable, Table: table, AlterOp: op}, nil
}

func parseInsert(c *cursor) (query.Command, error) {
	if !c.matchWord("INSERT") {
		return query.Command{}, errf("expected INSERT")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	values, err := c.stringList()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdInsert, Table: table, InsertVal: values}, nil
}

func (c *cursor) selector() (query.Selector, error) {
	if c.matchWord("COUNT(*)") || c.matchWord("COUNT") {
		return query.Selector{Kind: query.SelCount}, nil
	}
	if col, ok, err := c.aggFunc("SUM"); err != nil {
		return query.Selector{}, err
	} else if ok {
		return query.Selector{Kind: query.SelSum, Column: col}, nil
	}
	if col, ok, err := c.aggFunc("AVG"); err != nil {
		return query.Selector{}, err
	} else if ok {
		return query.Selector{Kind: query.SelAvg, Column: col}, nil
	}
	if col, ok, err := c.aggFunc("MAX"); err != nil {
		return query.Selector{}, err
	} else if ok {
		return query.Selector{Kind: query.SelMax, Column: col}, nil
	}
	if col, ok, err := c.aggFunc("MIN"); err != nil {
		return query.Selector{}, err
	} else if ok {
		return query.Selector{Kind: query.SelMin, Column: col}, nil
	}
	if c.tryConsumeByte('*') {
		return query.Selector{Kind: query.SelAll}, nil
	}
	cols, err := c.columnExprList()
	if err != nil {
		return query.Selector{}, err
	}
	return query.Selector{Kind: query.SelColumns, Columns: cols}, nil
}

func (c *cursor) aggFunc(name string) (string, bool, error) {
	save := c.pos
	if !c.matchWord(name + "(") {
		c.pos = save
		return "", false, nil
	}
	col, err := c.columnExpr()
	if err != nil {
		c.pos = save
		return "", false, nil
	}
	if err := c.consumeByte(')'); err != nil {
		c.pos = save
		return "", false, nil
	}
	return col, true, nil
}

func (c *cursor) tryJoinClause() (*query.JoinClause, bool) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, false
	}
	if !c.matchWord("JOIN") {
		c.pos = save
		return nil, false
	}
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, false
	}
	table, err := c.identifier()
	if err != nil {
		c.pos = save
		return nil, false
	}
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, false
	}
	if !c.matchWord("ON") {
		c.pos = save
		return nil, false
	}
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, false
	}
	left, err := c.columnExpr()
	if err != nil {
		c.pos = save
		return nil, false
	}
	c.skipSpace()
	if err := c.consumeByte('='); err != nil {
		c.pos = save
		return nil, false
	}
	c.skipSpace()
	right, err := c.columnExpr()
	if err != nil {
		c.pos = save
		return nil, false
	}
	return &query.JoinClause{Type: query.JoinInner, Table: table, OnLeft: left, OnRight: right}, true
}

func (c *cursor) optionalGroupBy() ([]string, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("GROUP") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	if !c.matchWord("BY") {
		return nil, errf("expected BY at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	return c.columnExprList()
}

func (c *cursor) optionalHaving() (*query.Filter, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("HAVING") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	return c.filterExpr()
}

func (c *cursor) optionalOrderBy() (*query.OrderBy, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("ORDER") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	if !c.matchWord("BY") {
		return nil, errf("expected BY at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	col, err := c.columnExpr()
	if err != nil {
		return nil, err
	}
	asc := true
	save2 := c.pos
	if err := c.requireSpace(); err == nil {
		if c.matchWord("DESC") {
			asc = false
		} else if c.matchWord("ASC") {
			asc = true
		} else {
			c.pos = save2
		}
	} else {
		c.pos = save2
	}
	return &query.OrderBy{Column: col, Ascending: asc}, nil
}

func (c *cursor) optionalLimit() (*int, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("LIMIT") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	n, err := c.u64()
	if err != nil {
		return nil, err
	}
	v := int(n)
	return &v, nil
}

func (c *cursor) optionalOffset() (*int, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("OFFSET") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	n, err := c.u64()
	if err != nil {
		return nil, err
	}
	v := int(n)
	return &v, nil
}

func parseFullSelectBody(c *cursor) (query.Command, error) {
	sel, err := c.selector()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if !c.matchWord("FROM") {
		return query.Command{}, errf("expected FROM at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}

	var joins []query.JoinClause
	for {
		j, ok := c.tryJoinClause()
		if !ok {
			break
		}
		joins = append(joins, *j)
	}

	filter, err := c.optionalWhere()
	if err != nil {
		return query.Command{}, err
	}
	groupBy, err := c.optionalGroupBy()
	if err != nil {
		return query.Command{}, err
	}
	having, err := c.optionalHaving()
	if err != nil {
		return query.Command{}, err
	}
	orderBy, err := c.optionalOrderBy()
	if err != nil {
		return query.Command{}, err
	}
	limit, err := c.optionalLimit()
	if err != nil {
		return query.Command{}, err
	}
	offset, err := c.optionalOffset()
	if err != nil {
		return query.Command{}, err
	}

	return query.Command{
		Kind:     query.CmdSelect,
		Table:    table,
		Selector: sel,
		Joins:    joins,
		Filter:   filter,
		GroupBy:  groupBy,
		Having:   having,
		OrderBy:  orderBy,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func parseLegacySelectBody(c *cursor) (query.Command, error) {
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	filter, err := c.optionalWhere()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdSelect, Table: table, Selector: query.Selector{Kind: query.SelAll}, Filter: filter}, nil
}

func parseSelect(c *cursor) (query.Command, error) {
	if !c.matchWord("SELECT") {
		return query.Command{}, errf("expected SELECT")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	save := c.pos
	if cmd, err := parseFullSelectBody(c); err == nil {
		return cmd, nil
	}
	c.pos = save
	return parseLegacySelectBody(c)
}

func parseUpdate(c *cursor) (query.Command, error) {
	if !c.matchWord("UPDATE") {
		return query.Command{}, errf("expected UPDATE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if !c.matchWord("SET") {
		return query.Command{}, errf("expected SET at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	col, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if err := c.consumeByte('='); err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	val, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	filter, err := c.optionalWhere()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdUpdate, Table: table, SetCol: col, SetVal: val, Filter: filter}, nil
}

func parseDelete(c *cursor) (query.Command, error) {
	if !c.matchWord("DELETE") {
		return query.Command{}, errf("expected DELETE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	if !c.matchWord("FROM") {
		return query.Command{}, errf("expected FROM at %q", c.rest())
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	table, err := c.identifier()
	if err != nil {
		return query.Command{}, err
	}
	filter, err := c.optionalWhere()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdDelete, Table: table, Filter: filter}, nil
}

func tagForKind(k query.Kind) string {
	switch k {
	case query.CmdLPush:
		return "LPUSH"
	case query.CmdRPush:
		return "RPUSH"
	case query.CmdSAdd:
		return "SADD"
	default:
		return ""
	}
}

func parsePushPop(c *cursor, kind query.Kind) (query.Command, error) {
	tag := tagForKind(kind)
	if !c.matchWord(tag) {
		return query.Command{}, errf("expected %s", tag)
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	values, err := c.stringList()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: kind, Key: key, Values: values}, nil
}

func parsePop(c *cursor, kind query.Kind) (query.Command, error) {
	tag := "LPOP"
	if kind == query.CmdRPop {
		tag = "RPOP"
	}
	if !c.matchWord(tag) {
		return query.Command{}, errf("expected %s", tag)
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}

	var count *int64
	save := c.pos
	if err := c.requireSpace(); err == nil {
		n, err2 := c.u64()
		if err2 == nil {
			v := int64(n)
			count = &v
		} else {
			c.pos = save
		}
	} else {
		c.pos = save
	}
	return query.Command{Kind: kind, Key: key, Count: count}, nil
}

func parseLRange(c *cursor) (query.Command, error) {
	if !c.matchWord("LRANGE") {
		return query.Command{}, errf("expected LRANGE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	start, err := c.i64()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	stop, err := c.i64()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdLRange, Key: key, Start: start, Stop: stop}, nil
}

func parseHSet(c *cursor) (query.Command, error) {
	if !c.matchWord("HSET") {
		return query.Command{}, errf("expected HSET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	field, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	value, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdHSet, Key: key, Field: field, Value: value}, nil
}

func parseHGet(c *cursor) (query.Command, error) {
	if !c.matchWord("HGET") {
		return query.Command{}, errf("expected HGET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	field, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdHGet, Key: key, Field: field}, nil
}

func parseHGetAll(c *cursor) (query.Command, error) {
	if !c.matchWord("HGETALL") {
		return query.Command{}, errf("expected HGETALL")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdHGetAll, Key: key}, nil
}

func parseSMembers(c *cursor) (query.Command, error) {
	if !c.matchWord("SMEMBERS") {
		return query.Command{}, errf("expected SMEMBERS")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdSMembers, Key: key}, nil
}

func parseZAdd(c *cursor) (query.Command, error) {
	if !c.matchWord("ZADD") {
		return query.Command{}, errf("expected ZADD")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	score, err := c.float()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	member, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdZAdd, Key: key, Score: score, Member: member}, nil
}

func parseZRange(c *cursor) (query.Command, error) {
	if !c.matchWord("ZRANGE") {
		return query.Command{}, errf("expected ZRANGE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	start, err := c.i64()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	stop, err := c.i64()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdZRange, Key: key, Start: start, Stop: stop}, nil
}

func parseZScore(c *cursor) (query.Command, error) {
	if !c.matchWord("ZSCORE") {
		return query.Command{}, errf("expected ZSCORE")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	member, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdZScore, Key: key, Member: member}, nil
}

func parseJSONGet(c *cursor) (query.Command, error) {
	if !c.matchWord("JSON.GET") {
		return query.Command{}, errf("expected JSON.GET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	var path string
	save := c.pos
	if err := c.requireSpace(); err == nil {
		p, err2 := c.str()
		if err2 == nil {
			path = p
		} else {
			c.pos = save
		}
	} else {
		c.pos = save
	}
	return query.Command{Kind: query.CmdJSONGet, Key: key, Path: path}, nil
}

func parseJSONSet(c *cursor) (query.Command, error) {
	if !c.matchWord("JSON.SET") {
		return query.Command{}, errf("expected JSON.SET")
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	key, err := c.key()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	path, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	if err := c.requireSpace(); err != nil {
		return query.Command{}, err
	}
	value, err := c.str()
	if err != nil {
		return query.Command{}, err
	}
	return query.Command{Kind: query.CmdJSONSet, Key: key, Path: path, Value: value}, nil
}
