// Package accessor pairs a read function with a copy-on-write update function
// for one field of a record.
//
// Every Setter returns a new record with exactly one field replaced. The record
// passed in stays valid and unchanged, so a pre-transform value can be reused
// by other rules or engines.
package accessor

import (
	"fmt"

	"github.com/solatis/easyrules/internal/types"
)

// Getter reads one field of a record.
type Getter[T, V any] func(T) (V, error)

// Setter returns a copy of the record with one field replaced.
type Setter[T, V any] func(T, V) (T, error)

// Field is a named Getter/Setter pair bound to one record field.
type Field[T, V any] struct {
	Name string
	Get  Getter[T, V]
	Set  Setter[T, V]
}

// Of builds a Field from infallible read and write functions.
func Of[T, V any](name string, get func(T) V, set func(T, V) T) Field[T, V] {
	return Field[T, V]{
		Name: name,
		Get:  Read(get),
		Set:  Rebuild(set),
	}
}

// Read lifts an infallible read function to a Getter.
func Read[T, V any](get func(T) V) Getter[T, V] {
	return func(r T) (V, error) {
		return get(r), nil
	}
}

// Rebuild adapts a "with"-style constructor, one that returns a new record
// with one field changed, to a Setter.
func Rebuild[T, V any](with func(T, V) T) Setter[T, V] {
	return func(r T, v V) (T, error) {
		return with(r, v), nil
	}
}

// StructSetter returns a Setter for value records. The record is copied and
// set is applied to the copy only.
func StructSetter[T, V any](set func(*T, V)) Setter[T, V] {
	return func(r T, v V) (T, error) {
		c := r
		set(&c, v)
		return c, nil
	}
}

// PointerSetter returns a Setter for pointer records. A new struct is
// allocated for every update; the pointer passed in is never written through.
// A nil record yields ErrFieldNotFound.
func PointerSetter[T, V any](set func(*T, V)) Setter[*T, V] {
	return func(r *T, v V) (*T, error) {
		if r == nil {
			return nil, fmt.Errorf("%w: nil record", types.ErrFieldNotFound)
		}
		c := *r
		set(&c, v)
		return &c, nil
	}
}

// MapSetter returns a Setter for map records that shallow-copies the map and
// replaces key.
func MapSetter[V any](key string) Setter[map[string]any, V] {
	return func(r map[string]any, v V) (map[string]any, error) {
		out := types.CloneRecord(r)
		out[key] = v
		return out, nil
	}
}

// MapGetter returns a Getter reading key from a map record. A missing key
// yields ErrFieldNotFound, a value that is not a V yields ErrTypeMismatch.
func MapGetter[V any](key string) Getter[map[string]any, V] {
	return func(r map[string]any) (V, error) {
		var zero V
		raw, ok := r[key]
		if !ok {
			return zero, fmt.Errorf("%w: %s", types.ErrFieldNotFound, key)
		}
		v, ok := raw.(V)
		if !ok {
			return zero, fmt.Errorf("%w: %s is %T, want %T", types.ErrTypeMismatch, key, raw, zero)
		}
		return v, nil
	}
}

// MapKey returns a Field over one key of a map record.
func MapKey[V any](key string) Field[map[string]any, V] {
	return Field[map[string]any, V]{
		Name: key,
		Get:  MapGetter[V](key),
		Set:  MapSetter[V](key),
	}
}
