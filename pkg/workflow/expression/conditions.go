package expression

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Operator is one of the fixed condition operators a Block's Condition may use.
type Operator string

const (
	OpEquals      Operator = "=="
	OpNotEquals   Operator = "!="
	OpLessThan    Operator = "<"
	OpGreaterThan Operator = ">"
	OpLessEq      Operator = "<="
	OpGreaterEq   Operator = ">="
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpIn          Operator = "in"
	OpIsEmpty     Operator = "isEmpty"
	OpIsFalsy     Operator = "isFalsy"
	OpIsNull      Operator = "isNull"
	OpRegex       Operator = "regex"
)

// Condition is a single left/operator/right comparison. Left and Right are
// resolved through a Resolver before Evaluate runs if they look like
// $-prefixed paths or {{...}} templates; literal values pass through as-is.
type Condition struct {
	Left     string   `json:"left"`
	Operator Operator `json:"operator"`
	Right    any      `json:"right,omitempty"`
}

// ConditionGroup combines child conditions with "and"/"or" logic, matching
// the Block condition shape in the workflow definition.
type ConditionGroup struct {
	Logic      string      `json:"logic"` // "and" | "or", defaults to "and"
	Conditions []Condition `json:"conditions"`
}

// Evaluate resolves Left/Right through r and sc, then applies cond.Operator.
// Unary operators (isEmpty, isFalsy, isNull) ignore Right.
func Evaluate(r *Resolver, cond Condition, sc Scopes) (bool, error) {
	left := resolveOperand(r, cond.Left, sc)

	switch cond.Operator {
	case OpIsEmpty:
		return isEmpty(left), nil
	case OpIsFalsy:
		return isFalsy(left), nil
	case OpIsNull:
		return left == nil, nil
	}

	right := cond.Right
	if s, ok := right.(string); ok {
		right = resolveOperand(r, s, sc)
	}

	switch cond.Operator {
	case OpEquals:
		return looseEquals(left, right), nil
	case OpNotEquals:
		return !looseEquals(left, right), nil
	case OpLessThan:
		return compareNumericOrString(left, right) < 0, nil
	case OpGreaterThan:
		return compareNumericOrString(left, right) > 0, nil
	case OpLessEq:
		return compareNumericOrString(left, right) <= 0, nil
	case OpGreaterEq:
		return compareNumericOrString(left, right) >= 0, nil
	case OpContains:
		return containsValue(left, right), nil
	case OpStartsWith:
		return strings.HasPrefix(toString(left), toString(right)), nil
	case OpEndsWith:
		return strings.HasSuffix(toString(left), toString(right)), nil
	case OpIn:
		return containsValue(right, left), nil
	case OpRegex:
		pattern := toString(right)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		return re.MatchString(toString(left)), nil
	default:
		return false, fmt.Errorf("unknown condition operator %q", cond.Operator)
	}
}

// EvaluateGroup evaluates every condition in g and combines the results per
// g.Logic. An empty group evaluates to true (no condition blocks execution).
func EvaluateGroup(r *Resolver, g ConditionGroup, sc Scopes) (bool, error) {
	if len(g.Conditions) == 0 {
		return true, nil
	}

	or := strings.EqualFold(g.Logic, "or")

	for _, c := range g.Conditions {
		result, err := Evaluate(r, c, sc)
		if err != nil {
			return false, err
		}
		if or && result {
			return true, nil
		}
		if !or && !result {
			return false, nil
		}
	}

	return !or, nil
}

// resolveOperand resolves operand if it looks like a $-path or contains a
// {{...}} template; otherwise it is returned unchanged as a literal.
func resolveOperand(r *Resolver, operand string, sc Scopes) any {
	trimmed := strings.TrimSpace(operand)
	if strings.HasPrefix(trimmed, "$") {
		return r.Resolve(trimmed, sc)
	}
	if strings.Contains(trimmed, "{{") {
		return r.Interpolate(trimmed, sc)
	}
	return operand
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len() == 0
		default:
			return false
		}
	}
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	default:
		return isEmpty(v)
	}
}

func containsValue(collection, target any) bool {
	if collection == nil {
		return false
	}

	if s, ok := collection.(string); ok {
		return strings.Contains(s, toString(target))
	}

	rv := reflect.ValueOf(collection)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if looseEquals(rv.Index(i).Interface(), target) {
				return true
			}
		}
		return false
	case reflect.Map:
		val := rv.MapIndex(reflect.ValueOf(target))
		if val.IsValid() {
			return true
		}
		// Key may have come through as a different (but equal-valued) type.
		for _, k := range rv.MapKeys() {
			if looseEquals(k.Interface(), target) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// looseEquals compares values the way the engine's condition grammar
// requires: numbers compare by value regardless of int/float
// representation, strings compare by locale-independent byte equality, and
// everything else falls back to deep equality.
func looseEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}

	return reflect.DeepEqual(a, b)
}

// compareNumericOrString orders a and b: numerically if both are numbers,
// lexically if both are strings, otherwise by their string forms.
func compareNumericOrString(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	return stringify(v)
}
