// internal/engine/engine.go
package engine

/*
 * Rule engine orchestration.
 *
 * Runs an ordered list of rules over a batch of records. Each record is
 * processed independently, in input order, by a small state machine:
 *
 *   SCANNING -> condition true? -> APPLY transform -> stop? -> DONE
 *            -> condition false -> next rule
 *            -> rules exhausted -> DONE
 *
 * "stop" holds when the matching rule has StopOnMatch or the engine runs in
 * MatchFirst mode. Transforms thread the evolving record from one rule into
 * the next, left to right.
 *
 * Emission: a matched record is emitted in its final state. An unmatched
 * record is emitted unchanged when KeepUnmatched is set and dropped otherwise.
 * Output order equals input order.
 *
 * Failure: the first error from a condition or transform aborts the whole
 * call. No partial output is returned and the error is not wrapped.
 *
 * The engine holds no mutable state after New, so one Engine may serve
 * concurrent callers as long as the caller-supplied functions are pure.
 */

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatis/easyrules/internal/types"
)

// Engine evaluates records against an ordered list of rules.
type Engine[T any] struct {
	rules []Rule[T]
	opts  Options
}

// Outcome describes what happened to one record during a pass.
type Outcome[T any] struct {
	// Record is the final record: transformed if Matched, the input otherwise.
	Record T

	// Matched is true when at least one rule matched.
	Matched bool

	// Applied lists the names of the rules whose transforms ran, in order.
	Applied []string

	// StoppedBy names the rule after which evaluation halted early, if any.
	StoppedBy string

	// Kept reports whether Process emits this record.
	Kept bool
}

// New validates the configuration and returns an engine. Rules are evaluated
// in slice order; sort them beforehand (see SortByPriority) to apply a
// priority scheme. The slice is copied.
func New[T any](rules []Rule[T], opts ...Option) (*Engine[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !o.MatchMode.valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidMatchMode, int(o.MatchMode))
	}

	for i, r := range rules {
		if err := r.condition.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): condition: %v", types.ErrMalformedRule, i, r.name, err)
		}
		if r.transform.IsZero() {
			return nil, fmt.Errorf("%w: rule %d (%s): %v", types.ErrMalformedRule, i, r.name, types.ErrNilTransformer)
		}
	}

	copied := make([]Rule[T], len(rules))
	copy(copied, rules)
	return &Engine[T]{rules: copied, opts: o}, nil
}

// Rules returns a copy of the engine's rules in evaluation order.
func (e *Engine[T]) Rules() []Rule[T] {
	out := make([]Rule[T], len(e.rules))
	copy(out, e.rules)
	return out
}

// RuleCount is the number of rules in the engine.
func (e *Engine[T]) RuleCount() int {
	return len(e.rules)
}

// MatchMode returns the configured match mode.
func (e *Engine[T]) MatchMode() MatchMode {
	return e.opts.MatchMode
}

// KeepsUnmatched reports whether unmatched records are emitted.
func (e *Engine[T]) KeepsUnmatched() bool {
	return e.opts.KeepUnmatched
}

// Process maps records to a new slice. The input slice and its records are
// never modified. On error the result is nil.
func (e *Engine[T]) Process(records []T) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, rec := range records {
		oc, err := e.evaluate(i, rec)
		if err != nil {
			return nil, err
		}
		if oc.Kept {
			out = append(out, oc.Record)
		}
	}
	return out, nil
}

// Evaluate runs a single record through the rules and reports the outcome.
func (e *Engine[T]) Evaluate(rec T) (Outcome[T], error) {
	return e.evaluate(0, rec)
}

// Trace is Process with diagnostics: it returns one Outcome per input record,
// in input order, including records Process would drop (Kept = false).
func (e *Engine[T]) Trace(records []T) ([]Outcome[T], error) {
	out := make([]Outcome[T], 0, len(records))
	for i, rec := range records {
		oc, err := e.evaluate(i, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, oc)
	}
	return out, nil
}

func (e *Engine[T]) evaluate(index int, rec T) (Outcome[T], error) {
	oc := Outcome[T]{Record: rec}
	current := rec
	debug := e.opts.Logger.Enabled(context.Background(), slog.LevelDebug)

	for _, r := range e.rules {
		next, matched, err := r.Match(current)
		if err != nil {
			return Outcome[T]{}, err
		}
		if !matched {
			continue
		}
		current = next
		oc.Matched = true
		oc.Applied = append(oc.Applied, r.name)
		if debug {
			e.opts.Logger.Debug("rule matched", "record", index, "rule", r.name)
		}

		if r.stopOnMatch || e.opts.MatchMode == MatchFirst {
			oc.StoppedBy = r.name
			break
		}
	}

	if oc.Matched {
		oc.Record = current
		oc.Kept = true
		return oc, nil
	}
	oc.Kept = e.opts.KeepUnmatched
	return oc, nil
}
