// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/easyrules/internal/types"
)

/*
 * Type coercion for declarative conditions.
 *
 * Four declared types plus "unspecified", which behaves like "any":
 *   - numeric: strict. Numbers and numeric strings become float64, booleans
 *     are rejected.
 *   - text: lenient. Every scalar is rendered as a string.
 *   - boolean: strict. Only true/false.
 *   - any: the value is compared as-is.
 *
 * Null and coercion failure are reported separately: a nil value yields
 * IsNull and is handled by the on_missing policy, a failed conversion yields
 * ErrCoercionFailed and is handled by on_coercion_fail.
 *
 * Rule literals are coerced with the same function at compile time, so a
 * text condition written as `value: 5` compares against "5".
 */

// FieldType selects the coercion applied before comparison.
type FieldType int

const (
	FieldTypeUnspecified FieldType = iota
	FieldTypeNumeric
	FieldTypeText
	FieldTypeBoolean
	FieldTypeAny
)

var fieldTypeNames = map[string]FieldType{
	"":        FieldTypeUnspecified,
	"numeric": FieldTypeNumeric,
	"number":  FieldTypeNumeric,
	"text":    FieldTypeText,
	"string":  FieldTypeText,
	"boolean": FieldTypeBoolean,
	"bool":    FieldTypeBoolean,
	"any":     FieldTypeAny,
}

// ParseFieldType maps a rule-file type name to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	ft, ok := fieldTypeNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return FieldTypeUnspecified, fmt.Errorf("%w: %q", types.ErrInvalidFieldType, s)
	}
	return ft, nil
}

func (ft FieldType) String() string {
	switch ft {
	case FieldTypeNumeric:
		return "numeric"
	case FieldTypeText:
		return "text"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeAny:
		return "any"
	default:
		return "unspecified"
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil
}

// Coerce attempts to convert value to the expected field type.
// Returns CoercionResult with IsNull=true for nil input.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch fieldType {
	case FieldTypeNumeric:
		return coerceNumeric(value)
	case FieldTypeText:
		return coerceText(value)
	case FieldTypeBoolean:
		return coerceBoolean(value)
	case FieldTypeAny, FieldTypeUnspecified:
		return CoercionResult{Value: value}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

func coerceNumeric(value any) (CoercionResult, error) {
	if f, ok := toFloat64(value); ok {
		return CoercionResult{Value: f}, nil
	}
	s, ok := value.(string)
	if !ok {
		// bool, lists and objects
		return CoercionResult{}, types.ErrCoercionFailed
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return CoercionResult{}, types.ErrCoercionFailed
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return CoercionResult{}, types.ErrCoercionFailed
	}
	return CoercionResult{Value: f}, nil
}

func coerceText(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case bool:
		return CoercionResult{Value: strconv.FormatBool(v)}, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return CoercionResult{Value: strconv.FormatInt(i, 10)}, nil
		}
	case []any, map[string]any:
		return CoercionResult{}, types.ErrCoercionFailed
	}
	if f, ok := toFloat64(value); ok {
		return CoercionResult{Value: strconv.FormatFloat(f, 'f', -1, 64)}, nil
	}
	return CoercionResult{Value: fmt.Sprintf("%v", value)}, nil
}

// coerceBoolean is strict: "true" and 1 are not booleans.
func coerceBoolean(value any) (CoercionResult, error) {
	if v, ok := value.(bool); ok {
		return CoercionResult{Value: v}, nil
	}
	return CoercionResult{}, types.ErrCoercionFailed
}
