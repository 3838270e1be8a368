// internal/rules/compile.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/spec"
	"github.com/solatis/easyrules/internal/transform"
	"github.com/solatis/easyrules/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a types.RuleDef into an engine.Rule over types.Record:
 *   - the `when` tree becomes a spec.Spec (all -> AllOf, any -> AnyOf,
 *     not -> Not, script -> goja predicate, leaf -> CompiledCondition.Spec)
 *   - the `then` list becomes a chained transform.Transformer
 *
 * Resource limits are enforced here rather than at evaluation time:
 * path depth, wildcard count, IN list length. Literals are coerced to the
 * condition's declared type once, so evaluation only coerces record values.
 *
 * Conditions keep their written order. Evaluation order is observable
 * through short-circuiting, so the compiler never reorders.
 *
 * Field_ref constraint: cross-field comparison paths cannot contain wildcards
 * because resolving both sides with wildcards creates an N*M comparison matrix.
 */

// Compile validates a rule definition and returns the equivalent engine rule.
// Only Options.ScriptTimeout applies here.
func Compile(def *types.RuleDef, opts ...Option) (engine.Rule[types.Record], error) {
	return compileRule(def, applyOptions(opts))
}

func compileRule(def *types.RuleDef, o Options) (engine.Rule[types.Record], error) {
	cond := spec.True[types.Record]()
	if def.When != nil {
		c, err := compileNode(def.When, o)
		if err != nil {
			return engine.Rule[types.Record]{}, fmt.Errorf("rule %q: when: %w", def.Name, err)
		}
		cond = c
	}

	actions := make([]transform.Transformer[types.Record], 0, len(def.Then))
	for i, a := range def.Then {
		t, err := compileAction(a, o)
		if err != nil {
			return engine.Rule[types.Record]{}, fmt.Errorf("rule %q: then[%d]: %w", def.Name, i, err)
		}
		actions = append(actions, t)
	}

	tf := transform.Chain(actions...)
	if len(actions) > 1 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = a.Name()
		}
		tf = tf.Named(strings.Join(names, "; "))
	}

	var opts []engine.RuleOption
	if def.StopOnMatch {
		opts = append(opts, engine.StopOnMatch())
	}
	return engine.NewRule(def.Name, cond, tf, opts...), nil
}

// compileNode turns one node of a condition tree into a specification.
func compileNode(c *types.Condition, o Options) (spec.Spec[types.Record], error) {
	var zero spec.Spec[types.Record]

	set := 0
	if c.All != nil {
		set++
	}
	if c.Any != nil {
		set++
	}
	if c.Not != nil {
		set++
	}
	if c.Script != "" {
		set++
	}
	if c.Field != "" {
		set++
	}
	switch {
	case set == 0:
		return zero, types.ErrEmptyExpression
	case set > 1:
		return zero, types.ErrAmbiguousCondition
	}

	switch {
	case c.All != nil || c.Any != nil:
		group, name := c.All, "all"
		if c.Any != nil {
			group, name = c.Any, "any"
		}
		if len(group) == 0 {
			return zero, fmt.Errorf("%w: %s", types.ErrEmptyExpression, name)
		}
		children := make([]spec.Spec[types.Record], 0, len(group))
		for i := range group {
			child, err := compileNode(&group[i], o)
			if err != nil {
				return zero, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			children = append(children, child)
		}
		if name == "all" {
			return spec.AllOf(children...), nil
		}
		return spec.AnyOf(children...), nil

	case c.Not != nil:
		child, err := compileNode(c.Not, o)
		if err != nil {
			return zero, fmt.Errorf("not: %w", err)
		}
		return spec.Not(child), nil

	case c.Script != "":
		sc, err := compileScript(c.Script, o.ScriptTimeout)
		if err != nil {
			return zero, err
		}
		return spec.FuncE(sc.test).Named("script(" + c.Script + ")"), nil

	default:
		cc, err := compileCondition(c)
		if err != nil {
			return zero, err
		}
		return cc.Spec(), nil
	}
}

// compileCondition validates and pre-processes a single leaf condition.
func compileCondition(c *types.Condition) (CompiledCondition, error) {
	path, err := ParsePath(c.Field)
	if err != nil {
		return CompiledCondition{}, err
	}
	if err := validatePath(path); err != nil {
		return CompiledCondition{}, fmt.Errorf("%s: %w", c.Field, err)
	}

	op, err := ParseOperator(c.Op)
	if err != nil {
		return CompiledCondition{}, err
	}
	ft, err := ParseFieldType(c.Type)
	if err != nil {
		return CompiledCondition{}, err
	}
	onMissing, err := ParseOnMissing(c.OnMissing)
	if err != nil {
		return CompiledCondition{}, err
	}
	onCoercion, err := ParseOnCoercionFail(c.OnCoercionFail)
	if err != nil {
		return CompiledCondition{}, err
	}

	cc := CompiledCondition{
		Path:       path,
		Operator:   op,
		FieldType:  ft,
		OnMissing:  onMissing,
		OnCoercion: onCoercion,
	}

	if !op.needsOperand() {
		if c.Value != nil || c.Values != nil || c.FieldRef != "" {
			return CompiledCondition{}, fmt.Errorf("%w: %s takes no value", types.ErrInvalidOperator, op)
		}
		return cc, nil
	}

	operands := 0
	if c.Value != nil {
		operands++
	}
	if c.Values != nil {
		operands++
	}
	if c.FieldRef != "" {
		operands++
	}
	if operands != 1 {
		return CompiledCondition{}, fmt.Errorf("%w: %s needs exactly one of value, values, field_ref", types.ErrInvalidOperator, op)
	}

	switch {
	case c.FieldRef != "":
		ref, err := ParsePath(c.FieldRef)
		if err != nil {
			return CompiledCondition{}, err
		}
		if len(ref) > types.MaxPathDepth {
			return CompiledCondition{}, fmt.Errorf("%s: %w", c.FieldRef, types.ErrPathTooDeep)
		}
		if hasWildcard(ref) {
			return CompiledCondition{}, fmt.Errorf("%s: %w", c.FieldRef, types.ErrWildcardInFieldRef)
		}
		cc.FieldRef = ref

	case op == OpIn:
		if c.Values == nil {
			return CompiledCondition{}, fmt.Errorf("%w: in needs values", types.ErrInvalidOperator)
		}
		if len(c.Values) > types.MaxInOperatorValues {
			return CompiledCondition{}, types.ErrTooManyInValues
		}
		cc.Values = make([]any, len(c.Values))
		for i, v := range c.Values {
			lit, err := coerceLiteral(v, ft)
			if err != nil {
				return CompiledCondition{}, fmt.Errorf("values[%d]: %w", i, err)
			}
			cc.Values[i] = lit
		}

	default:
		if c.Value == nil {
			return CompiledCondition{}, fmt.Errorf("%w: %s needs value or field_ref", types.ErrInvalidOperator, op)
		}
		lit, err := coerceLiteral(c.Value, ft)
		if err != nil {
			return CompiledCondition{}, fmt.Errorf("value: %w", err)
		}
		cc.Value = lit
	}
	return cc, nil
}

func coerceLiteral(v any, ft FieldType) (any, error) {
	res, err := Coerce(v, ft)
	if err != nil {
		return nil, fmt.Errorf("%w: literal %v as %s", err, v, ft)
	}
	return res.Value, nil
}
