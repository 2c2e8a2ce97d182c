package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Operator names accepted in rule clauses.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGte         Operator = "gte"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// Condition is a recursive tagged variant: either a leaf clause
// (Field/Op/Value) or a boolean combinator (All = AND, Any = OR). Exactly one
// of the three forms should be populated.
type Condition struct {
	Field string   `json:"field,omitempty"`
	Op    Operator `json:"op,omitempty"`
	Value any      `json:"value,omitempty"`

	All []Condition `json:"all,omitempty"`
	Any []Condition `json:"any,omitempty"`
}

// Fields is the fixed resolution table for one evaluation. Clauses can only
// reference what the engine put in here; anything else evaluates to false.
type Fields map[string]any

// Eval walks the condition tree. AND requires every child true, OR at least
// one. A clause referencing an unknown field is a non-match, not an error,
// so one malformed rule cannot abort a live evaluation.
func (c Condition) Eval(fields Fields) bool {
	switch {
	case len(c.All) > 0:
		for _, child := range c.All {
			if !child.Eval(fields) {
				return false
			}
		}
		return true
	case len(c.Any) > 0:
		for _, child := range c.Any {
			if child.Eval(fields) {
				return true
			}
		}
		return false
	default:
		return evalClause(c, fields)
	}
}

func evalClause(clause Condition, fields Fields) bool {
	if clause.Field == "" {
		return false
	}

	actual, known := fields[clause.Field]
	if !known {
		log.Warn("Policy rule references unknown field", "field", clause.Field)
		return false
	}

	switch clause.Op {
	case OpEq:
		return equalValues(actual, clause.Value)
	case OpNe:
		return !equalValues(actual, clause.Value)
	case OpGt, OpLt, OpGte, OpLte:
		return compareOrdered(actual, clause.Value, clause.Op)
	case OpContains:
		return containsValue(actual, clause.Value)
	case OpNotContains:
		return !containsValue(actual, clause.Value)
	case OpIn:
		return memberOf(actual, clause.Value)
	case OpNotIn:
		return !memberOf(actual, clause.Value)
	default:
		log.Warn("Policy rule uses unknown operator", "op", string(clause.Op), "field", clause.Field)
		return false
	}
}

func equalValues(actual, expected any) bool {
	if a, aok := toFloat(actual); aok {
		if e, eok := toFloat(expected); eok {
			return a == e
		}
	}
	return strings.EqualFold(stringify(actual), stringify(expected))
}

func compareOrdered(actual, expected any, op Operator) bool {
	a, aok := toFloat(actual)
	e, eok := toFloat(expected)
	if !aok || !eok {
		return false
	}

	switch op {
	case OpGt:
		return a > e
	case OpLt:
		return a < e
	case OpGte:
		return a >= e
	case OpLte:
		return a <= e
	}
	return false
}

func containsValue(actual, expected any) bool {
	return strings.Contains(
		strings.ToLower(stringify(actual)),
		strings.ToLower(stringify(expected)),
	)
}

func memberOf(actual, expected any) bool {
	switch list := expected.(type) {
	case []any:
		for _, item := range list {
			if equalValues(actual, item) {
				return true
			}
		}
	case []string:
		for _, item := range list {
			if equalValues(actual, item) {
				return true
			}
		}
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
