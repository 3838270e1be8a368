package types

import "errors"

// Sentinel errors for easyrules operations.
var (
	// ErrInvalidMatchMode indicates an unknown engine match mode.
	ErrInvalidMatchMode = errors.New("invalid match mode")

	// ErrMalformedRule indicates a rule without a usable condition or transform.
	ErrMalformedRule = errors.New("malformed rule")

	// ErrNilSpecification indicates evaluation of a zero-valued specification.
	ErrNilSpecification = errors.New("specification is not initialized")

	// ErrNilTransformer indicates application of a zero-valued transformer.
	ErrNilTransformer = errors.New("transformer is not initialized")

	// ErrTypeMismatch indicates a record field holds a value of an unexpected type.
	ErrTypeMismatch = errors.New("field value has unexpected type")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrWildcardInFieldRef indicates a wildcard in a field_ref path.
	ErrWildcardInFieldRef = errors.New("wildcards not allowed in field_ref")

	// ErrWildcardInAction indicates a wildcard in an action target path.
	ErrWildcardInAction = errors.New("wildcards not allowed in action path")

	// ErrInvalidPath indicates a field path string could not be parsed.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrTooManyInValues indicates an IN operator exceeds MaxInOperatorValues.
	ErrTooManyInValues = errors.New("IN operator has too many values")

	// ErrEmptyExpression indicates an all/any group has no conditions.
	ErrEmptyExpression = errors.New("condition group is empty")

	// ErrAmbiguousCondition indicates a condition node sets more than one of
	// all, any, not, script and field.
	ErrAmbiguousCondition = errors.New("condition must set exactly one of all, any, not, script, field")

	// ErrInvalidOperator indicates an unknown operator name.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidFieldType indicates an unknown field type name.
	ErrInvalidFieldType = errors.New("invalid field type")

	// ErrInvalidPolicy indicates an unknown on_missing/on_coercion_fail policy.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidAction indicates an action without exactly one known verb.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidScript indicates a script that does not compile.
	ErrInvalidScript = errors.New("invalid script")

	// ErrScriptFailed indicates a script raised an exception or returned an
	// unusable value.
	ErrScriptFailed = errors.New("script evaluation failed")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnsupportedFormat indicates an unknown rule-set or record file format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
