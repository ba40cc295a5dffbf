package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Operator is a comparison a ScoringRule applies between a feature's value
// and its stored comparand. This is the default rule evaluator's entire
// predicate language: it is deliberately not an expression parser.
type Operator string

const (
	OpEquals      Operator = "eq"
	OpNotEquals   Operator = "neq"
	OpGreaterThan Operator = "gt"
	OpGreaterOrEq Operator = "gte"
	OpLessThan    Operator = "lt"
	OpLessOrEq    Operator = "lte"
	OpContains    Operator = "contains"
	OpIn          Operator = "in"
)

// evaluate applies op to (actual, comparand). actual comes from a
// features.Value's Value field (already JSON-decoded); comparand is the raw
// JSON stored on the rule, decoded on every call.
func evaluate(op Operator, actual any, comparandJSON []byte) (bool, error) {
	var comparand any
	if err := json.Unmarshal(comparandJSON, &comparand); err != nil {
		return false, fmt.Errorf("decode comparand: %w", err)
	}

	switch op {
	case OpEquals:
		return looseEquals(actual, comparand), nil
	case OpNotEquals:
		return !looseEquals(actual, comparand), nil
	case OpGreaterThan, OpGreaterOrEq, OpLessThan, OpLessOrEq:
		a, aok := asFloat(actual)
		b, bok := asFloat(comparand)
		if !aok || !bok {
			return false, nil
		}
		switch op {
		case OpGreaterThan:
			return a > b, nil
		case OpGreaterOrEq:
			return a >= b, nil
		case OpLessThan:
			return a < b, nil
		default:
			return a <= b, nil
		}
	case OpContains:
		s, ok := actual.(string)
		sub, subOk := comparand.(string)
		if !ok || !subOk {
			return false, nil
		}
		return strings.Contains(s, sub), nil
	case OpIn:
		list, ok := comparand.([]any)
		if !ok {
			return false, nil
		}
		for _, item := range list {
			if looseEquals(actual, item) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

func looseEquals(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

