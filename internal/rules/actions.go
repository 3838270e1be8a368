// internal/rules/actions.go
package rules

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/easyrules/internal/transform"
	"github.com/solatis/easyrules/internal/types"
)

/*
 * Declarative actions.
 *
 * Each action compiles to a transform.Transformer[types.Record] that updates
 * one path through SetPath, so the input record is never modified:
 *   - set:       replace the value at path with a literal or a script result
 *   - increment: numeric add (default 1); a missing field counts as 0
 *   - append:    add value to the list at path, creating it when missing;
 *                unique skips values already present
 *   - remove:    drop every element equal to value from the list at path;
 *                records without a match are returned as-is
 *
 * Action paths must be concrete: wildcards are rejected at compile time.
 */

type actionKind int

const (
	actionSet actionKind = iota
	actionIncrement
	actionAppend
	actionRemove
)

func (k actionKind) String() string {
	switch k {
	case actionIncrement:
		return "increment"
	case actionAppend:
		return "append"
	case actionRemove:
		return "remove"
	default:
		return "set"
	}
}

// compileAction validates one action and returns its transformer.
func compileAction(a types.Action, o Options) (transform.Transformer[types.Record], error) {
	var zero transform.Transformer[types.Record]

	kind, target, n := actionSet, "", 0
	for _, c := range []struct {
		kind actionKind
		path string
	}{
		{actionSet, a.Set},
		{actionIncrement, a.Increment},
		{actionAppend, a.Append},
		{actionRemove, a.Remove},
	} {
		if c.path != "" {
			kind, target = c.kind, c.path
			n++
		}
	}
	if n != 1 {
		return zero, fmt.Errorf("%w: need exactly one of set, increment, append, remove", types.ErrInvalidAction)
	}

	path, err := ParsePath(target)
	if err != nil {
		return zero, err
	}
	if len(path) > types.MaxPathDepth {
		return zero, fmt.Errorf("%s: %w", target, types.ErrPathTooDeep)
	}
	if hasWildcard(path) {
		return zero, fmt.Errorf("%s: %w", target, types.ErrWildcardInAction)
	}
	if a.Unique && kind != actionAppend {
		return zero, fmt.Errorf("%w: unique applies to append only", types.ErrInvalidAction)
	}
	if a.Script != "" && kind != actionSet {
		return zero, fmt.Errorf("%w: script applies to set only", types.ErrInvalidAction)
	}

	name := kind.String() + " " + FormatPath(path)

	switch kind {
	case actionSet:
		if a.Script != "" {
			if a.Value != nil {
				return zero, fmt.Errorf("%w: set takes value or script, not both", types.ErrInvalidAction)
			}
			sc, err := compileScript(a.Script, o.ScriptTimeout)
			if err != nil {
				return zero, err
			}
			return transform.FuncE(func(r types.Record) (types.Record, error) {
				v, err := sc.run(r)
				if err != nil {
					return nil, err
				}
				return SetPath(r, path, v)
			}).Named(name), nil
		}
		value := a.Value
		return transform.FuncE(func(r types.Record) (types.Record, error) {
			return SetPath(r, path, value)
		}).Named(name), nil

	case actionIncrement:
		delta := a.Value
		if delta == nil {
			delta = 1
		}
		if _, ok := toFloat64(delta); !ok {
			return zero, fmt.Errorf("%w: increment by non-numeric %v", types.ErrInvalidAction, delta)
		}
		return transform.FuncE(func(r types.Record) (types.Record, error) {
			cur, found, err := lookup(r, path)
			if err != nil {
				return nil, err
			}
			if !found || cur == nil {
				cur = 0
			}
			sum, err := addNumbers(cur, delta)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return SetPath(r, path, sum)
		}).Named(name), nil

	case actionAppend:
		if a.Value == nil {
			return zero, fmt.Errorf("%w: append needs value", types.ErrInvalidAction)
		}
		value, unique := a.Value, a.Unique
		return transform.FuncE(func(r types.Record) (types.Record, error) {
			list, err := listAt(r, path, name)
			if err != nil {
				return nil, err
			}
			if unique && compareIn(value, list) {
				return r, nil
			}
			out := make([]any, len(list), len(list)+1)
			copy(out, list)
			return SetPath(r, path, append(out, value))
		}).Named(name), nil

	default:
		if a.Value == nil {
			return zero, fmt.Errorf("%w: remove needs value", types.ErrInvalidAction)
		}
		value := a.Value
		return transform.FuncE(func(r types.Record) (types.Record, error) {
			list, err := listAt(r, path, name)
			if err != nil {
				return nil, err
			}
			out := make([]any, 0, len(list))
			for _, elem := range list {
				if !compareEqual(elem, value) {
					out = append(out, elem)
				}
			}
			if len(out) == len(list) {
				return r, nil
			}
			return SetPath(r, path, out)
		}).Named(name), nil
	}
}

// lookup resolves path, treating a missing field as (nil, false, nil).
func lookup(r types.Record, path []types.PathSegment) (any, bool, error) {
	res, err := Resolve(path, r)
	if errors.Is(err, types.ErrFieldNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Found, nil
}

// listAt returns the list stored at path. Missing and null count as empty.
func listAt(r types.Record, path []types.PathSegment, name string) ([]any, error) {
	cur, _, err := lookup(r, path)
	if err != nil {
		return nil, err
	}
	switch v := cur.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: %w: %T is not a list", name, types.ErrTypeMismatch, cur)
	}
}

// addNumbers keeps integer arithmetic for integer operands and falls back to
// float64 otherwise.
func addNumbers(a, b any) (any, error) {
	if ia, ok := asInt64(a); ok {
		if ib, ok := asInt64(b); ok {
			if _, isInt := a.(int); isInt {
				return int(ia + ib), nil
			}
			return ia + ib, nil
		}
	}
	fa, oka := toFloat64(a)
	fb, okb := toFloat64(b)
	if !oka || !okb {
		return nil, fmt.Errorf("%w: cannot add %T and %T", types.ErrTypeMismatch, a, b)
	}
	return fa + fb, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
