// Package types provides domain models shared across easyrules components.
//
// Record is the map-shaped record used by the declarative rule layer and the
// CLI. The generic engine packages work on any caller-defined record type and
// only import this package for its sentinel errors.
package types

// Record is a decoded JSON/YAML object. Rule transforms never mutate a Record
// in place; every update returns a new map that shares untouched values with
// its source.
type Record = map[string]any

// Resource limits enforced when compiling declarative rules.
const (
	// MaxPathDepth bounds recursive path resolution.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion in one path.
	MaxNestedWildcards = 2

	// MaxInOperatorValues limits IN operator list size.
	MaxInOperatorValues = 64
)

// CloneRecord returns a shallow copy of r. A nil Record clones to an empty one.
func CloneRecord(r Record) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}
