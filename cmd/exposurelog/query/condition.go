package query

// Condition is one WHERE term. The set of variants is closed: only the types
// in this file implement it.
type Condition interface {
	isCondition()
}

// RangeOp is a comparison operator for Range.
type RangeOp string

const (
	OpGE RangeOp = ">="
	OpGT RangeOp = ">"
	OpLT RangeOp = "<"
	OpLE RangeOp = "<="
)

// Range compares a column to a bound: column Op Value.
type Range struct {
	Column string
	Op     RangeOp
	Value  any
}

// In is set membership: column IN (Values...). An empty set matches nothing.
type In struct {
	Column string
	Values []any
}

// Contains is case-sensitive substring containment.
type Contains struct {
	Column string
	Substr string
}

// IsNull tests null presence: column IS NULL when Null, else IS NOT NULL.
type IsNull struct {
	Column string
	Null   bool
}

// Equal is exact equality.
type Equal struct {
	Column string
	Value  any
}

// AnyOf matches rows whose array column shares at least one element with Values.
type AnyOf struct {
	Column string
	Values []string
}

func (Range) isCondition()    {}
func (In) isCondition()       {}
func (Contains) isCondition() {}
func (IsNull) isCondition()   {}
func (Equal) isCondition()    {}
func (AnyOf) isCondition()    {}
