package conditionals

import (
	"fmt"
	"strings"
)

// Operator is a numeric comparison used by counter and stat conditions.
type Operator string

const (
	OpEqual        Operator = "=="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
)

// ParseOperator normalizes an authored operator. A missing operator means equality.
func ParseOperator(s string) Operator {
	s = strings.TrimSpace(s)
	if s == "" {
		return OpEqual
	}
	return Operator(s)
}

// Compare reports whether actual <op> target holds.
func (op Operator) Compare(actual, target int) (bool, error) {
	switch op {
	case OpEqual, "":
		return actual == target, nil
	case OpGreaterEqual:
		return actual >= target, nil
	case OpLessEqual:
		return actual <= target, nil
	case OpGreater:
		return actual > target, nil
	case OpLess:
		return actual < target, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidOperator, string(op))
	}
}

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	_, err := op.Compare(0, 0)
	return err == nil
}
