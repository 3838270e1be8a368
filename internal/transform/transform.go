// Package transform provides pure record-to-record functions used as rule
// actions.
//
// A Transformer never mutates the record it is applied to. Attribute
// transformers read one field, compute a replacement and write it back through
// a copy-on-write setter, leaving every other field untouched.
package transform

import (
	"github.com/solatis/easyrules/internal/accessor"
	"github.com/solatis/easyrules/internal/types"
)

// Transformer maps a record to an updated record.
// The zero value is not usable; Apply reports ErrNilTransformer.
type Transformer[T any] struct {
	name  string
	apply func(T) (T, error)
}

// Identity returns the transformer that hands back its input unchanged.
func Identity[T any]() Transformer[T] {
	return Transformer[T]{
		name:  "identity",
		apply: func(r T) (T, error) { return r, nil },
	}
}

// Func wraps an infallible function.
func Func[T any](f func(T) T) Transformer[T] {
	if f == nil {
		return Transformer[T]{}
	}
	return FuncE(func(r T) (T, error) { return f(r), nil })
}

// FuncE wraps a fallible function.
func FuncE[T any](f func(T) (T, error)) Transformer[T] {
	return Transformer[T]{apply: f}
}

// Attr returns a transformer computing set(r, value(get(r))).
func Attr[T, V any](get func(T) V, set func(T, V) T, value func(V) V) Transformer[T] {
	if get == nil || set == nil || value == nil {
		return Transformer[T]{}
	}
	return Func(func(r T) T {
		return set(r, value(get(r)))
	})
}

// AttrE is Attr with fallible getter, setter and value function. The first
// error is returned unchanged.
func AttrE[T, V any](get accessor.Getter[T, V], set accessor.Setter[T, V], value func(V) (V, error)) Transformer[T] {
	if get == nil || set == nil || value == nil {
		return Transformer[T]{}
	}
	return FuncE(func(r T) (T, error) {
		old, err := get(r)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := value(old)
		if err != nil {
			var zero T
			return zero, err
		}
		return set(r, v)
	})
}

// On binds an accessor Field to a value function. The transformer is named
// after the field.
func On[T, V any](f accessor.Field[T, V], value func(V) V) Transformer[T] {
	if value == nil {
		return Transformer[T]{}
	}
	return AttrE(f.Get, f.Set, func(v V) (V, error) {
		return value(v), nil
	}).Named("set " + f.Name)
}

// Chain composes transformers left to right: the output of each is the input
// of the next. An empty chain is the identity.
func Chain[T any](ts ...Transformer[T]) Transformer[T] {
	switch len(ts) {
	case 0:
		return Identity[T]()
	case 1:
		return ts[0]
	}
	steps := make([]Transformer[T], len(ts))
	copy(steps, ts)
	return FuncE(func(r T) (T, error) {
		cur := r
		for _, s := range steps {
			next, err := s.Apply(cur)
			if err != nil {
				var zero T
				return zero, err
			}
			cur = next
		}
		return cur, nil
	})
}

// Named returns a copy of t carrying a diagnostic label.
func (t Transformer[T]) Named(name string) Transformer[T] {
	t.name = name
	return t
}

// Name returns the diagnostic label, if any.
func (t Transformer[T]) Name() string {
	return t.name
}

// IsZero reports whether t is the uninitialized zero value.
func (t Transformer[T]) IsZero() bool {
	return t.apply == nil
}

// Apply returns the transformed record. Errors from caller-supplied functions
// are returned unchanged.
func (t Transformer[T]) Apply(r T) (T, error) {
	if t.apply == nil {
		var zero T
		return zero, types.ErrNilTransformer
	}
	return t.apply(r)
}
