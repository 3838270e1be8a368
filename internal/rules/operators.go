// internal/rules/operators.go
package rules

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/solatis/easyrules/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Values reach Compare already coerced via Coerce().
 *
 * Operators:
 *   - exists/is_null: presence checks, handled before coercion
 *   - eq/neq: equality with int/float mixing
 *   - lt/lte/gt/gte: numeric only; non-numeric operands never match
 *   - prefix/suffix: strings only
 *   - in: membership in the condition's value list
 *   - contains: substring for strings, element membership for lists
 */

// Operator identifies a comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpPrefix
	OpSuffix
	OpIn
	OpExists
	OpIsNull
	OpContains
)

var operatorNames = map[Operator]string{
	OpEq:       "eq",
	OpNeq:      "neq",
	OpLt:       "lt",
	OpLte:      "lte",
	OpGt:       "gt",
	OpGte:      "gte",
	OpPrefix:   "prefix",
	OpSuffix:   "suffix",
	OpIn:       "in",
	OpExists:   "exists",
	OpIsNull:   "is_null",
	OpContains: "contains",
}

// operatorAliases accepts the symbolic spellings alongside the names.
var operatorAliases = map[string]Operator{
	"==": OpEq,
	"!=": OpNeq,
	"<":  OpLt,
	"<=": OpLte,
	">":  OpGt,
	">=": OpGte,
}

// ParseOperator maps a rule-file operator name to an Operator.
func ParseOperator(s string) (Operator, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if op, ok := operatorAliases[name]; ok {
		return op, nil
	}
	for op, n := range operatorNames {
		if n == name {
			return op, nil
		}
	}
	return OpUnspecified, fmt.Errorf("%w: %q", types.ErrInvalidOperator, s)
}

func (op Operator) String() string {
	if n, ok := operatorNames[op]; ok {
		return n
	}
	return "unspecified"
}

// needsOperand reports whether the operator compares against a value or field.
func (op Operator) needsOperand() bool {
	return op != OpExists && op != OpIsNull
}

// Compare applies the operator to compare value against target.
// Both values should already be coerced to compatible types.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIsNull:
		return value == nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpLt:
		c, ok := compareNumeric(value, target)
		return ok && c < 0
	case OpLte:
		c, ok := compareNumeric(value, target)
		return ok && c <= 0
	case OpGt:
		c, ok := compareNumeric(value, target)
		return ok && c > 0
	case OpGte:
		c, ok := compareNumeric(value, target)
		return ok && c >= 0
	case OpPrefix:
		return comparePrefix(value, target)
	case OpSuffix:
		return compareSuffix(value, target)
	case OpIn:
		return compareIn(value, target)
	case OpContains:
		return compareContains(value, target)
	default:
		return false
	}
}

// compareEqual treats 5, int64(5), json.Number("5") and 5.0 as equal. Lists
// and objects compare structurally.
func compareEqual(a, b any) bool {
	if ia, ib, ok := asIntegers(a, b); ok {
		return ia == ib
	}
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return reflect.DeepEqual(a, b)
}

// compareNumeric performs three-way numeric comparison (-1/0/1).
func compareNumeric(a, b any) (int, bool) {
	if ia, ib, ok := asIntegers(a, b); ok {
		switch {
		case ia < ib:
			return -1, true
		case ia > ib:
			return 1, true
		default:
			return 0, true
		}
	}
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// asIntegers compares integers exactly; ids beyond 2^53 do not survive float64.
func asIntegers(a, b any) (int64, int64, bool) {
	ia, oka := asInt64(a)
	ib, okb := asInt64(b)
	return ia, ib, oka && okb
}

// toFloat64 converts any Go numeric type. Record files decode numbers to
// json.Number or int, and hand-built records may hold anything.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func comparePrefix(value, prefix any) bool {
	vs, ok1 := value.(string)
	ps, ok2 := prefix.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.HasPrefix(vs, ps)
}

func compareSuffix(value, suffix any) bool {
	vs, ok1 := value.(string)
	ss, ok2 := suffix.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.HasSuffix(vs, ss)
}

// compareIn checks if value exists in set using equality semantics.
func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}

// compareContains is substring search for strings and compareIn with the
// operands swapped for lists.
func compareContains(value, needle any) bool {
	switch v := value.(type) {
	case string:
		ns, ok := needle.(string)
		return ok && strings.Contains(v, ns)
	case []any:
		return compareIn(needle, v)
	default:
		return false
	}
}
