package query

import (
	"fmt"
	"slices"
	"strings"
)

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Query is a validated select against one table.
type Query struct {
	Table      *Table
	Conditions []Condition
	OrderBy    []OrderTerm
	Limit      int
	Offset     int
}

// Build validates a find request and turns it into a Query.
//
// args maps filter keys to values; the caller omits keys the user did not
// supply. Conditions are emitted in the table's filter declaration order so
// the rendered SQL is deterministic. If orderBy names neither the unique
// column nor its descending form, an ascending tiebreak on it is appended.
func Build(t *Table, args map[string]any, orderBy []string, limit, offset int) (*Query, error) {
	for key := range args {
		if _, ok := t.Filter(key); !ok {
			return nil, fmt.Errorf("%w: %q on table %s", ErrUnknownFilter, key, t.Name)
		}
	}

	q := &Query{
		Table:      t,
		Conditions: append([]Condition(nil), t.Fixed...),
		Limit:      limit,
		Offset:     offset,
	}

	for _, f := range t.Filters {
		v, ok := args[f.Key]
		if !ok {
			if v, ok = t.Defaults[f.Key]; !ok {
				continue
			}
		}
		cond, err := f.condition(v)
		if err != nil {
			return nil, err
		}
		q.Conditions = append(q.Conditions, cond)
	}

	hasUnique := false
	for _, item := range orderBy {
		field, desc := strings.CutPrefix(item, "-")
		if !t.Orderable(field) {
			return nil, validationErrorf("order_by", "%q is not a sortable field", item)
		}
		if field == t.Unique {
			hasUnique = true
		}
		q.OrderBy = append(q.OrderBy, OrderTerm{Column: field, Desc: desc})
	}
	if !hasUnique && t.Unique != "" {
		q.OrderBy = append(q.OrderBy, OrderTerm{Column: t.Unique})
	}

	if limit < 1 {
		return nil, validationErrorf("limit", "must be at least 1, got %d", limit)
	}
	if offset < 0 {
		return nil, validationErrorf("offset", "must not be negative, got %d", offset)
	}

	return q, nil
}

func (f Filter) condition(v any) (Condition, error) {
	if !f.Type.check(v) {
		return nil, fmt.Errorf("%w: %s=%v (%T)", ErrInvalidArg, f.Key, v, v)
	}

	switch f.Kind {
	case KindMin:
		return Range{Column: f.Column, Op: OpGE, Value: v}, nil
	case KindMax:
		return Range{Column: f.Column, Op: OpLT, Value: v}, nil
	case KindAfter:
		return Range{Column: f.Column, Op: OpGT, Value: v}, nil
	case KindUpTo:
		return Range{Column: f.Column, Op: OpLE, Value: v}, nil
	case KindIn, KindAnyOf:
		values, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a list", ErrInvalidArg, f.Key)
		}
		for _, val := range values {
			if len(f.Allowed) > 0 && !slices.Contains(f.Allowed, val) {
				return nil, validationErrorf(f.Key, "%q is not one of %s", val, strings.Join(f.Allowed, ", "))
			}
		}
		if f.Kind == KindAnyOf {
			return AnyOf{Column: f.Column, Values: values}, nil
		}
		anys := make([]any, len(values))
		for i, val := range values {
			anys[i] = val
		}
		return In{Column: f.Column, Values: anys}, nil
	case KindContains:
		return Contains{Column: f.Column, Substr: v.(string)}, nil
	case KindHas:
		return IsNull{Column: f.Column, Null: !v.(bool)}, nil
	case KindEqual:
		return Equal{Column: f.Column, Value: v}, nil
	}
	return nil, fmt.Errorf("%w: %s has unsupported kind %d", ErrInvalidArg, f.Key, f.Kind)
}
