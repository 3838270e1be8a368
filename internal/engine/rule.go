package engine

import (
	"sort"

	"github.com/solatis/easyrules/internal/spec"
	"github.com/solatis/easyrules/internal/transform"
)

// Rule binds a condition to an action. Rules are immutable once built and can
// be shared by many engines and many Process calls.
type Rule[T any] struct {
	name        string
	condition   spec.Spec[T]
	transform   transform.Transformer[T]
	stopOnMatch bool
}

// RuleOption configures a Rule at construction.
type RuleOption func(o *ruleOptions)

type ruleOptions struct {
	stopOnMatch bool
}

// StopOnMatch halts evaluation of later rules for a record once this rule
// matches. It never changes which transform this rule applies.
func StopOnMatch() RuleOption {
	return func(o *ruleOptions) {
		o.stopOnMatch = true
	}
}

// NewRule builds a rule. The name is diagnostic only.
func NewRule[T any](name string, condition spec.Spec[T], tf transform.Transformer[T], opts ...RuleOption) Rule[T] {
	var o ruleOptions
	for _, opt := range opts {
		opt(&o)
	}
	return Rule[T]{
		name:        name,
		condition:   condition,
		transform:   tf,
		stopOnMatch: o.stopOnMatch,
	}
}

func (r Rule[T]) Name() string                        { return r.name }
func (r Rule[T]) Condition() spec.Spec[T]             { return r.condition }
func (r Rule[T]) Transform() transform.Transformer[T] { return r.transform }
func (r Rule[T]) StopsOnMatch() bool                  { return r.stopOnMatch }

// Match evaluates the condition against rec. When it holds, the transform is
// applied and the updated record is returned with matched = true; otherwise
// rec is returned as is.
func (r Rule[T]) Match(rec T) (out T, matched bool, err error) {
	ok, err := r.condition.Evaluate(rec)
	if err != nil {
		return out, false, err
	}
	if !ok {
		return rec, false, nil
	}
	out, err = r.transform.Apply(rec)
	if err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Prioritized pairs a rule with a priority. Smaller numbers run first.
type Prioritized[T any] struct {
	Priority int
	Rule     Rule[T]
}

// SortByPriority returns the rules ordered by ascending priority. Rules with
// equal priority keep their input order. The input slice is not modified.
func SortByPriority[T any](ps []Prioritized[T]) []Rule[T] {
	sorted := make([]Prioritized[T], len(ps))
	copy(sorted, ps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	out := make([]Rule[T], len(sorted))
	for i, p := range sorted {
		out[i] = p.Rule
	}
	return out
}
