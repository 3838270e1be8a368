// internal/spec/spec.go
package spec

/*
 * Specification algebra.
 *
 * A Spec is an immutable boolean predicate over a record type, stored as a
 * tagged variant over {Leaf, And, Or, Not, Const} nodes. Combinators allocate
 * new nodes and never modify their operands, so a Spec can be shared across
 * rules, engines and goroutines.
 *
 * Evaluation is a recursive walk, left to right:
 *   - And: right operand is skipped when the left is false
 *   - Or: right operand is skipped when the left is true
 *   - Not: negates its operand
 *   - Leaf: calls the bound predicate; its error is returned unchanged
 *
 * N-ary And/Or fold left, so And(a, b, c) evaluates as ((a AND b) AND c).
 */

import (
	"strings"

	"github.com/solatis/easyrules/internal/accessor"
	"github.com/solatis/easyrules/internal/types"
)

// Kind identifies the variant of a Spec node.
type Kind int

const (
	KindInvalid Kind = iota
	KindLeaf
	KindAnd
	KindOr
	KindNot
	KindConst
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindConst:
		return "const"
	default:
		return "invalid"
	}
}

type node[T any] struct {
	kind  Kind
	label string
	test  func(T) (bool, error) // leaf only
	left  *node[T]              // and, or, not
	right *node[T]              // and, or
	value bool                  // const only
}

// Spec is a composable predicate over records of type T.
// The zero value is not usable; build Specs with the constructors below.
type Spec[T any] struct {
	n *node[T]
}

// True returns the specification that matches every record.
func True[T any]() Spec[T] {
	return Spec[T]{n: &node[T]{kind: KindConst, value: true}}
}

// False returns the specification that matches no record.
func False[T any]() Spec[T] {
	return Spec[T]{n: &node[T]{kind: KindConst, value: false}}
}

// Func wraps a plain predicate over the whole record.
func Func[T any](pred func(T) bool) Spec[T] {
	return FuncE(func(r T) (bool, error) {
		return pred(r), nil
	})
}

// FuncE wraps a fallible predicate over the whole record.
func FuncE[T any](pred func(T) (bool, error)) Spec[T] {
	if pred == nil {
		return Spec[T]{}
	}
	return Spec[T]{n: &node[T]{kind: KindLeaf, test: pred}}
}

// Attr binds a field getter to a value predicate:
// Evaluate(r) == pred(get(r)).
func Attr[T, V any](get func(T) V, pred func(V) bool) Spec[T] {
	if get == nil || pred == nil {
		return Spec[T]{}
	}
	return Func(func(r T) bool {
		return pred(get(r))
	})
}

// AttrE is Attr for fallible getters and predicates. The first error wins and
// is returned unchanged.
func AttrE[T, V any](get accessor.Getter[T, V], pred func(V) (bool, error)) Spec[T] {
	if get == nil || pred == nil {
		return Spec[T]{}
	}
	return FuncE(func(r T) (bool, error) {
		v, err := get(r)
		if err != nil {
			return false, err
		}
		return pred(v)
	})
}

// On binds an accessor Field to a value predicate. The Spec is labelled with
// the field name.
func On[T, V any](f accessor.Field[T, V], pred func(V) bool) Spec[T] {
	if pred == nil {
		return Spec[T]{}
	}
	return AttrE(f.Get, func(v V) (bool, error) {
		return pred(v), nil
	}).Named(f.Name)
}

// And returns the conjunction of its operands, evaluated left to right.
func And[T any](a, b Spec[T], more ...Spec[T]) Spec[T] {
	out := binary(KindAnd, a, b)
	for _, m := range more {
		out = binary(KindAnd, out, m)
	}
	return out
}

// Or returns the disjunction of its operands, evaluated left to right.
func Or[T any](a, b Spec[T], more ...Spec[T]) Spec[T] {
	out := binary(KindOr, a, b)
	for _, m := range more {
		out = binary(KindOr, out, m)
	}
	return out
}

// Not returns the negation of a.
func Not[T any](a Spec[T]) Spec[T] {
	return Spec[T]{n: &node[T]{kind: KindNot, left: a.n}}
}

// AllOf is And over a slice. An empty slice yields True.
func AllOf[T any](specs ...Spec[T]) Spec[T] {
	switch len(specs) {
	case 0:
		return True[T]()
	case 1:
		return specs[0]
	default:
		return And(specs[0], specs[1], specs[2:]...)
	}
}

// AnyOf is Or over a slice. An empty slice yields False.
func AnyOf[T any](specs ...Spec[T]) Spec[T] {
	switch len(specs) {
	case 0:
		return False[T]()
	case 1:
		return specs[0]
	default:
		return Or(specs[0], specs[1], specs[2:]...)
	}
}

func binary[T any](k Kind, a, b Spec[T]) Spec[T] {
	return Spec[T]{n: &node[T]{kind: k, left: a.n, right: b.n}}
}

// And is method sugar for And(s, other).
func (s Spec[T]) And(other Spec[T]) Spec[T] { return And(s, other) }

// Or is method sugar for Or(s, other).
func (s Spec[T]) Or(other Spec[T]) Spec[T] { return Or(s, other) }

// Not is method sugar for Not(s).
func (s Spec[T]) Not() Spec[T] { return Not(s) }

// Named returns a copy of s rendered as label by String.
// Evaluation is unaffected.
func (s Spec[T]) Named(label string) Spec[T] {
	if s.n == nil {
		return s
	}
	c := *s.n
	c.label = label
	return Spec[T]{n: &c}
}

// IsZero reports whether s is the uninitialized zero value.
func (s Spec[T]) IsZero() bool {
	return s.n == nil
}

// Kind returns the variant of the root node.
func (s Spec[T]) Kind() Kind {
	if s.n == nil {
		return KindInvalid
	}
	return s.n.kind
}

// Operands returns the direct children of an And, Or or Not node.
func (s Spec[T]) Operands() []Spec[T] {
	if s.n == nil {
		return nil
	}
	switch s.n.kind {
	case KindAnd, KindOr:
		return []Spec[T]{{n: s.n.left}, {n: s.n.right}}
	case KindNot:
		return []Spec[T]{{n: s.n.left}}
	default:
		return nil
	}
}

// Validate reports ErrNilSpecification if any node of the tree, including
// nodes that short-circuiting might skip, is uninitialized.
func (s Spec[T]) Validate() error {
	return s.n.validate()
}

func (n *node[T]) validate() error {
	if n == nil {
		return types.ErrNilSpecification
	}
	switch n.kind {
	case KindConst:
		return nil
	case KindLeaf:
		if n.test == nil {
			return types.ErrNilSpecification
		}
		return nil
	case KindNot:
		return n.left.validate()
	case KindAnd, KindOr:
		if err := n.left.validate(); err != nil {
			return err
		}
		return n.right.validate()
	default:
		return types.ErrNilSpecification
	}
}

// Evaluate reports whether r satisfies s. Errors raised by bound getters or
// predicates are returned as is.
func (s Spec[T]) Evaluate(r T) (bool, error) {
	return s.n.eval(r)
}

func (n *node[T]) eval(r T) (bool, error) {
	if n == nil {
		return false, types.ErrNilSpecification
	}
	switch n.kind {
	case KindConst:
		return n.value, nil
	case KindLeaf:
		if n.test == nil {
			return false, types.ErrNilSpecification
		}
		return n.test(r)
	case KindNot:
		v, err := n.left.eval(r)
		if err != nil {
			return false, err
		}
		return !v, nil
	case KindAnd:
		l, err := n.left.eval(r)
		if err != nil || !l {
			return false, err
		}
		return n.right.eval(r)
	case KindOr:
		l, err := n.left.eval(r)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return n.right.eval(r)
	default:
		return false, types.ErrNilSpecification
	}
}

// String renders the tree, e.g. "(vip AND NOT blacklisted)".
func (s Spec[T]) String() string {
	var b strings.Builder
	s.n.render(&b)
	return b.String()
}

func (n *node[T]) render(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	if n.label != "" {
		b.WriteString(n.label)
		return
	}
	switch n.kind {
	case KindConst:
		if n.value {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case KindLeaf:
		b.WriteString("<predicate>")
	case KindNot:
		b.WriteString("NOT ")
		n.left.render(b)
	case KindAnd, KindOr:
		op := " AND "
		if n.kind == KindOr {
			op = " OR "
		}
		b.WriteByte('(')
		n.left.render(b)
		b.WriteString(op)
		n.right.render(b)
		b.WriteByte(')')
	default:
		b.WriteString("<invalid>")
	}
}
