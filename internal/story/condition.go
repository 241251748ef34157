package story

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator in an option guard condition.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
	OpGe Op = ">="
	OpLe Op = "<="
)

// IsValid reports whether o is a recognised operator.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
		return true
	}
	return false
}

// Condition is the parsed form of an option guard: a single
// "attribute operator literal" comparison against a player attribute.
type Condition struct {
	Attribute string
	Op        Op
	Value     int
}

// ParseCondition parses a guard expression of exactly three
// whitespace-separated tokens: an attribute name, an operator and an
// integer literal. Any other shape is an error; callers treat a
// malformed guard as never satisfied rather than failing the session.
func ParseCondition(expr string) (Condition, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("condition %q: want 3 tokens, got %d", expr, len(parts))
	}
	op := Op(parts[1])
	if !op.IsValid() {
		return Condition{}, fmt.Errorf("condition %q: unknown operator %q", expr, parts[1])
	}
	value, err := strconv.Atoi(parts[2])
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: literal %q is not an integer", expr, parts[2])
	}
	return Condition{Attribute: parts[0], Op: op, Value: value}, nil
}

// Evaluate applies the comparison against the attribute value returned
// by lookup. Missing attributes must be reported by lookup as 0.
func (c Condition) Evaluate(lookup func(name string) int) bool {
	have := lookup(c.Attribute)
	switch c.Op {
	case OpEq:
		return have == c.Value
	case OpNe:
		return have != c.Value
	case OpGt:
		return have > c.Value
	case OpLt:
		return have < c.Value
	case OpGe:
		return have >= c.Value
	case OpLe:
		return have <= c.Value
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %d", c.Attribute, c.Op, c.Value)
}
