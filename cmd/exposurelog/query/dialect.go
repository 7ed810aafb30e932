package query

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is how SQLite stores timestamps. A fixed-width layout keeps
// lexical order equal to time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Dialect renders the parts of a query that differ between databases.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	// Value converts a bound Go value to what the driver expects.
	Value(v any) any
	Contains(column, placeholder string) string
	AnyOf(column string, b *Binder, values []string) string
	// OrderExpr is the expression to sort column by.
	OrderExpr(t *Table, column string) string
	// LockClause is appended to a single-row select that must lock the row.
	LockClause() string
}

// Binder accumulates positional arguments.
type Binder struct {
	dialect Dialect
	Args    []any
}

// NewBinder starts with args already bound, if any.
func NewBinder(d Dialect, args ...any) *Binder {
	b := &Binder{dialect: d}
	for _, a := range args {
		b.Bind(a)
	}
	return b
}

// Bind appends v and returns its placeholder.
func (b *Binder) Bind(v any) string {
	b.Args = append(b.Args, b.dialect.Value(v))
	return b.dialect.Placeholder(len(b.Args))
}

// BindList binds each value and returns the comma-separated placeholders.
func (b *Binder) BindList(values []any) string {
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = b.Bind(v)
	}
	return strings.Join(phs, ", ")
}

// Postgres is the dialect of the message store and of postgres registries.
var Postgres Dialect = postgres{}

// SQLite is the dialect of go-sqlite3 stores and registries.
var SQLite Dialect = sqlite{}

type postgres struct{}

func (postgres) Name() string             { return "postgres" }
func (postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (postgres) Value(v any) any          { return v }
func (postgres) LockClause() string       { return " FOR UPDATE" }

func (postgres) Contains(column, placeholder string) string {
	return fmt.Sprintf("strpos(%s, %s) > 0", column, placeholder)
}

func (postgres) AnyOf(column string, b *Binder, values []string) string {
	return fmt.Sprintf("%s && %s", column, b.Bind(values))
}

// Postgres enums already sort in declaration order. Enum columns are
// qualified so a text cast of the same name in the select list is not
// picked up instead.
func (postgres) OrderExpr(t *Table, column string) string {
	if _, ok := t.EnumOrder[column]; ok {
		return t.Name + "." + column
	}
	return column
}

type sqlite struct{}

func (sqlite) Name() string           { return "sqlite" }
func (sqlite) Placeholder(int) string { return "?" }
func (sqlite) LockClause() string     { return "" }

func (sqlite) Value(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC().Format(TimeLayout)
	case *time.Time:
		if tv == nil {
			return nil
		}
		return tv.UTC().Format(TimeLayout)
	}
	return v
}

func (sqlite) Contains(column, placeholder string) string {
	return fmt.Sprintf("instr(%s, %s) > 0", column, placeholder)
}

func (sqlite) AnyOf(column string, b *Binder, values []string) string {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value IN (%s))", column, b.BindList(anys))
}

func (sqlite) OrderExpr(t *Table, column string) string {
	values, ok := t.EnumOrder[column]
	if !ok {
		return column
	}
	var sb strings.Builder
	sb.WriteString("CASE ")
	sb.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&sb, " WHEN '%s' THEN %d", v, i)
	}
	sb.WriteString(" END")
	return sb.String()
}
