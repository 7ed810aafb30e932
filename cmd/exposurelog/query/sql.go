package query

import (
	"fmt"
	"strings"
)

// Where renders the conditions joined by AND, or "" when there are none.
func Where(d Dialect, b *Binder, conds []Condition) string {
	if len(conds) == 0 {
		return ""
	}
	terms := make([]string, len(conds))
	for i, c := range conds {
		terms[i] = renderCondition(d, b, c)
	}
	return strings.Join(terms, " AND ")
}

func renderCondition(d Dialect, b *Binder, c Condition) string {
	switch c := c.(type) {
	case Range:
		return fmt.Sprintf("%s %s %s", c.Column, c.Op, b.Bind(c.Value))
	case In:
		if len(c.Values) == 0 {
			return "1 = 0"
		}
		return fmt.Sprintf("%s IN (%s)", c.Column, b.BindList(c.Values))
	case Contains:
		return d.Contains(c.Column, b.Bind(c.Substr))
	case IsNull:
		if c.Null {
			return c.Column + " IS NULL"
		}
		return c.Column + " IS NOT NULL"
	case Equal:
		return fmt.Sprintf("%s = %s", c.Column, b.Bind(c.Value))
	case AnyOf:
		if len(c.Values) == 0 {
			return "1 = 0"
		}
		return d.AnyOf(c.Column, b, c.Values)
	}
	panic(fmt.Sprintf("query: unhandled condition %T", c))
}

// OrderClause renders the ORDER BY terms. NULL sorts as the largest value.
func OrderClause(d Dialect, t *Table, terms []OrderTerm) string {
	parts := make([]string, len(terms))
	for i, term := range terms {
		expr := d.OrderExpr(t, term.Column)
		if term.Desc {
			parts[i] = expr + " DESC NULLS FIRST"
		} else {
			parts[i] = expr + " ASC NULLS LAST"
		}
	}
	return strings.Join(parts, ", ")
}

// SQL renders q as a parameterized SELECT for d.
func (q *Query) SQL(d Dialect) (string, []any) {
	b := NewBinder(d)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(q.Table.Columns, ", "), q.Table.Name)
	if where := Where(d, b, q.Conditions); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(OrderClause(d, q.Table, q.OrderBy))
	}
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", b.Bind(q.Limit), b.Bind(q.Offset))

	return sb.String(), b.Args
}
