// Package index answers key conditions through the primary index (.PX)
// companion of a table.
package index

import "fmt"

type Operator byte

const (
	Equal Operator = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

func (o Operator) String() string {
	switch o {
	case Equal:
		return "="
	case NotEqual:
		return "<>"
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// Condition is either a Compare or a LogicalAnd.
type Condition interface {
	fmt.Stringer
	isCondition()
}

// Compare tests the named field against Value.
type Compare struct {
	Field string
	Op    Operator
	Value any
}

func (Compare) isCondition() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// LogicalAnd holds when both sides hold.
type LogicalAnd struct {
	Left  Condition
	Right Condition
}

func (LogicalAnd) isCondition() {}

func (a LogicalAnd) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// Between is the inclusive range from <= field <= to.
func Between(field string, from, to any) Condition {
	return LogicalAnd{
		Left:  Compare{Field: field, Op: GreaterOrEqual, Value: from},
		Right: Compare{Field: field, Op: LessOrEqual, Value: to},
	}
}

// Match evaluates cond against a row. get returns the value of a field by
// name; unknown fields and null values never match.
func Match(cond Condition, get func(name string) (any, bool)) bool {
	switch c := cond.(type) {
	case Compare:
		value, ok := get(c.Field)
		if !ok || value == nil {
			return false
		}
		order, ok := CompareValues(value, c.Value)
		if !ok {
			return false
		}
		return c.Op.holds(order)

	case LogicalAnd:
		return Match(c.Left, get) && Match(c.Right, get)

	default:
		return false
	}
}

// holds reports whether a field comparing as order against the operand
// satisfies the operator.
func (o Operator) holds(order int) bool {
	switch o {
	case Equal:
		return order == 0
	case NotEqual:
		return order != 0
	case Less:
		return order < 0
	case LessOrEqual:
		return order <= 0
	case Greater:
		return order > 0
	case GreaterOrEqual:
		return order >= 0
	default:
		return false
	}
}
