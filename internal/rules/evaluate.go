// internal/rules/evaluate.go
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solatis/easyrules/internal/spec"
	"github.com/solatis/easyrules/internal/types"
)

/*
 * Leaf condition evaluation.
 *
 * A CompiledCondition is evaluated against one record:
 *   1. exists/is_null answer from presence alone, no policies involved
 *   2. resolve path; missing field -> on_missing
 *   3. coerce value; nil -> on_missing, failure -> on_coercion_fail
 *   4. resolve and coerce field_ref if present, same policies
 *   5. compare
 *
 * Policy outcomes:
 *   - on_missing:       skip -> false, match -> true, fail -> ErrFieldNotFound
 *   - on_coercion_fail: skip -> false, match -> true, error -> ErrCoercionFailed
 *
 * Errors abort the engine pass that is evaluating the record.
 */

// OnMissingField policy for missing or null fields.
type OnMissingField int

const (
	OnMissingSkip OnMissingField = iota
	OnMissingMatch
	OnMissingFail
)

// OnCoercionPolicy specifies behavior when type coercion fails.
type OnCoercionPolicy int

const (
	OnCoercionSkip OnCoercionPolicy = iota
	OnCoercionMatch
	OnCoercionError
)

// ParseOnMissing maps "", "skip", "match" or "fail" to a policy.
func ParseOnMissing(s string) (OnMissingField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OnMissingSkip, nil
	case "match":
		return OnMissingMatch, nil
	case "fail":
		return OnMissingFail, nil
	}
	return OnMissingSkip, fmt.Errorf("%w: on_missing %q", types.ErrInvalidPolicy, s)
}

// ParseOnCoercionFail maps "", "skip", "match" or "error" to a policy.
func ParseOnCoercionFail(s string) (OnCoercionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OnCoercionSkip, nil
	case "match":
		return OnCoercionMatch, nil
	case "error":
		return OnCoercionError, nil
	}
	return OnCoercionSkip, fmt.Errorf("%w: on_coercion_fail %q", types.ErrInvalidPolicy, s)
}

// CompiledCondition is a validated leaf condition ready for evaluation.
type CompiledCondition struct {
	Path       []types.PathSegment
	Operator   Operator
	FieldType  FieldType
	Value      any                 // coerced literal (nil for exists/is_null and field_ref)
	Values     []any               // coerced literals for IN
	FieldRef   []types.PathSegment // cross-field comparison (mutually exclusive with Value)
	OnMissing  OnMissingField
	OnCoercion OnCoercionPolicy
}

// String renders the condition the way it reads in a rule file.
func (c CompiledCondition) String() string {
	field := FormatPath(c.Path)
	switch {
	case !c.Operator.needsOperand():
		return fmt.Sprintf("%s %s", field, c.Operator)
	case len(c.FieldRef) > 0:
		return fmt.Sprintf("%s %s $%s", field, c.Operator, FormatPath(c.FieldRef))
	case c.Operator == OpIn:
		return fmt.Sprintf("%s in %v", field, c.Values)
	default:
		return fmt.Sprintf("%s %s %v", field, c.Operator, c.Value)
	}
}

// Spec wraps the condition as a leaf specification over records.
func (c CompiledCondition) Spec() spec.Spec[types.Record] {
	return spec.FuncE(func(r types.Record) (bool, error) {
		return evaluateCondition(c, r)
	}).Named(c.String())
}

// evaluateCondition evaluates a single condition against a record.
func evaluateCondition(cond CompiledCondition, rec types.Record) (bool, error) {
	resolved, err := Resolve(cond.Path, rec)
	if err != nil && !errors.Is(err, types.ErrFieldNotFound) {
		return false, err
	}
	found := err == nil && resolved.Found

	switch cond.Operator {
	case OpExists:
		return found && resolved.Value != nil, nil
	case OpIsNull:
		return !found || resolved.Value == nil, nil
	}

	if !found {
		return applyMissingPolicy(cond, cond.Path)
	}

	coerced, err := Coerce(resolved.Value, cond.FieldType)
	if err != nil {
		return applyCoercionPolicy(cond, cond.Path, resolved.Value)
	}
	if coerced.IsNull {
		return applyMissingPolicy(cond, cond.Path)
	}

	var target any
	switch {
	case len(cond.FieldRef) > 0:
		ref, err := Resolve(cond.FieldRef, rec)
		if err != nil || !ref.Found {
			return applyMissingPolicy(cond, cond.FieldRef)
		}
		refCoerced, err := Coerce(ref.Value, cond.FieldType)
		if err != nil {
			return applyCoercionPolicy(cond, cond.FieldRef, ref.Value)
		}
		if refCoerced.IsNull {
			return applyMissingPolicy(cond, cond.FieldRef)
		}
		target = refCoerced.Value
	case cond.Operator == OpIn:
		target = cond.Values
	default:
		target = cond.Value
	}

	return Compare(cond.Operator, coerced.Value, target), nil
}

func applyMissingPolicy(cond CompiledCondition, path []types.PathSegment) (bool, error) {
	switch cond.OnMissing {
	case OnMissingMatch:
		return true, nil
	case OnMissingFail:
		return false, fmt.Errorf("%w: %s", types.ErrFieldNotFound, FormatPath(path))
	default:
		return false, nil
	}
}

func applyCoercionPolicy(cond CompiledCondition, path []types.PathSegment, value any) (bool, error) {
	switch cond.OnCoercion {
	case OnCoercionMatch:
		return true, nil
	case OnCoercionError:
		return false, fmt.Errorf("%w: %s = %v as %s", types.ErrCoercionFailed, FormatPath(path), value, cond.FieldType)
	default:
		return false, nil
	}
}
