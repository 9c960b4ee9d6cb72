package parser

import (
	"strings"

	"github.com/unsetsoft/toridb/pkg/query"
)

// columnExpr matches col, table.col, col->path, col->>path and
// table.col->path, mirroring parse_column_expr's arrow-chasing loop.
func (c *cursor) columnExpr() (string, error) {
	part1, err := c.identifier()
	if err != nil {
		return "", err
	}
	base := part1
	save := c.pos
	if c.tryConsumeByte('.') {
		part2, err := c.identifier()
		if err != nil {
			c.pos = save
		} else {
			base = part1 + "." + part2
		}
	}

	var b strings.Builder
	b.WriteString(base)
	for {
		save := c.pos
		if !c.matchWord("->") {
			break
		}
		double := c.tryConsumeByte('>')
		key, err := c.identifier()
		if err != nil {
			c.pos = save
			break
		}
		if double {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString(key)
	}
	return b.String(), nil
}

func (c *cursor) operator() (query.Operator, error) {
	switch {
	case c.matchWord("LIKE"):
		return query.OpLike, nil
	case c.matchWord("IN"):
		return query.OpIn, nil
	case c.matchWord(">="):
		return query.OpGte, nil
	case c.matchWord("<="):
		return query.OpLte, nil
	case c.matchWord("!="):
		return query.OpNeq, nil
	case c.matchWord("="):
		return query.OpEq, nil
	case c.matchWord(">"):
		return query.OpGt, nil
	case c.matchWord("<"):
		return query.OpLt, nil
	default:
		return 0, errf("expected comparison operator at %q", c.rest())
	}
}

// valueList parses "(a, b, c)" into a single comma-joined string, matching
// parser.rs's parse_value_list (used by the IN operator's right-hand side).
func (c *cursor) valueList() (string, error) {
	if err := c.consumeByte('('); err != nil {
		return "", err
	}
	var vals []string
	for {
		c.skipSpace()
		v, err := c.str()
		if err != nil {
			return "", err
		}
		vals = append(vals, v)
		c.skipSpace()
		if c.tryConsumeByte(',') {
			continue
		}
		break
	}
	if err := c.consumeByte(')'); err != nil {
		return "", err
	}
	return strings.Join(vals, ","), nil
}

func (c *cursor) condition() (*query.Filter, error) {
	col, err := c.columnExpr()
	if err != nil {
		return nil, err
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	op, err := c.operator()
	if err != nil {
		return nil, err
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}

	save := c.pos
	val, err := c.valueList()
	if err != nil {
		c.pos = save
		val, err = c.str()
		if err != nil {
			return nil, err
		}
	}
	return &query.Filter{Col: col, Op: op, Val: val}, nil
}

func (c *cursor) atom() (*query.Filter, error) {
	save := c.pos
	if c.tryConsumeByte('(') {
		c.skipSpace()
		f, err := c.filterExpr()
		if err == nil {
			c.skipSpace()
			if err2 := c.consumeByte(')'); err2 == nil {
				return f, nil
			}
		}
		c.pos = save
	}
	return c.condition()
}

func (c *cursor) andTerm() (*query.Filter, error) {
	first, err := c.atom()
	if err != nil {
		return nil, err
	}
	for {
		save := c.pos
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		if !c.matchWord("AND") {
			c.pos = save
			break
		}
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		rhs, err := c.atom()
		if err != nil {
			c.pos = save
			break
		}
		first = &query.Filter{And: &query.FilterPair{Left: first, Right: rhs}}
	}
	return first, nil
}

// filterExpr is the entry point for a full OR-of-AND-of-atom boolean tree.
func (c *cursor) filterExpr() (*query.Filter, error) {
	first, err := c.andTerm()
	if err != nil {
		return nil, err
	}
	for {
		save := c.pos
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		if !c.matchWord("OR") {
			c.pos = save
			break
		}
		if err := c.requireSpace(); err != nil {
			c.pos = save
			break
		}
		rhs, err := c.andTerm()
		if err != nil {
			c.pos = save
			break
		}
		first = &query.Filter{Or: &query.FilterPair{Left: first, Right: rhs}}
	}
	return first, nil
}

// optionalWhere parses "WHERE <filter>" if present, returning nil filter
// and no error if WHERE isn't there.
func (c *cursor) optionalWhere() (*query.Filter, error) {
	save := c.pos
	if err := c.requireSpace(); err != nil {
		c.pos = save
		return nil, nil
	}
	if !c.matchWord("WHERE") {
		c.pos = save
		return nil, nil
	}
	if err := c.requireSpace(); err != nil {
		return nil, err
	}
	return c.filterExpr()
}
