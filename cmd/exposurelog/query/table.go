package query

import "time"

// Kind says which condition a filter key produces.
type Kind int

const (
	KindMin      Kind = iota // column >= value
	KindMax                  // column < value
	KindAfter                // column > value
	KindUpTo                 // column <= value
	KindIn                   // column IN (values)
	KindContains             // substring
	KindHas                  // true: IS NOT NULL, false: IS NULL
	KindEqual                // column = value
	KindAnyOf                // array overlap
)

// Type is the Go type a filter value must have.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeTime
	TypeStrings
)

// Filter declares one supported filter key.
type Filter struct {
	Key     string
	Column  string
	Kind    Kind
	Type    Type
	Allowed []string // for TypeStrings: permitted values, if restricted
}

// Table declares what may be selected, filtered and ordered.
type Table struct {
	Name         string
	Columns      []string
	Filters      []Filter
	OrderFields  []string
	Unique       string
	Defaults     map[string]any
	DefaultLimit int
	// EnumOrder maps an enum column to its values in declaration order.
	EnumOrder map[string][]string
	// ArrayColumns are stored as arrays (text[] in postgres, JSON in sqlite).
	ArrayColumns map[string]bool
	// Fixed conditions are always applied, e.g. the instrument of a registry query.
	Fixed []Condition
}

// Filter returns the filter declared under key.
func (t *Table) Filter(key string) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

// Orderable reports whether field may appear in order_by.
func (t *Table) Orderable(field string) bool {
	for _, f := range t.OrderFields {
		if f == field {
			return true
		}
	}
	return false
}

// WithFixed returns a copy of t that always applies conds.
func (t *Table) WithFixed(conds ...Condition) *Table {
	c := *t
	c.Fixed = append(append([]Condition(nil), t.Fixed...), conds...)
	return &c
}

func (typ Type) check(v any) bool {
	switch typ {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInt:
		_, ok := v.(int)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeTime:
		_, ok := v.(time.Time)
		return ok
	case TypeStrings:
		_, ok := v.([]string)
		return ok
	}
	return false
}
