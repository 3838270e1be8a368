// internal/rules/engine.go
package rules

import (
	"sort"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/types"
)

/*
 * Rule set assembly.
 *
 * Build turns a parsed RuleSet into a ready engine. Describe compiles the
 * same set without building an engine and reports each rule the way it will
 * run, in evaluation order.
 */

// Build compiles every rule of set, orders them by priority (stable, lowest
// first) and constructs an engine. The set's match_mode and keep_unmatched
// are applied first so that WithEngineOptions can override them.
func Build(set *types.RuleSet, opts ...Option) (*engine.Engine[types.Record], error) {
	o := applyOptions(opts)
	prioritized := make([]engine.Prioritized[types.Record], 0, len(set.Rules))
	for i := range set.Rules {
		r, err := compileRule(&set.Rules[i], o)
		if err != nil {
			return nil, err
		}
		prioritized = append(prioritized, engine.Prioritized[types.Record]{
			Priority: set.Rules[i].Priority,
			Rule:     r,
		})
	}

	var base []engine.Option
	if set.MatchMode != "" {
		mode, err := engine.ParseMatchMode(set.MatchMode)
		if err != nil {
			return nil, err
		}
		base = append(base, engine.WithMatchMode(mode))
	}
	if set.KeepUnmatched != nil {
		base = append(base, engine.KeepUnmatched(*set.KeepUnmatched))
	}

	return engine.New(engine.SortByPriority(prioritized), append(base, o.Engine...)...)
}

// RuleSummary is the compiled view of one rule definition.
type RuleSummary struct {
	Position    int // evaluation order, zero based
	Priority    int
	Name        string
	StopOnMatch bool
	Condition   string
	Actions     string
}

// Describe compiles set and returns one summary per rule in evaluation order.
func Describe(set *types.RuleSet) ([]RuleSummary, error) {
	out := make([]RuleSummary, 0, len(set.Rules))
	for i := range set.Rules {
		r, err := compileRule(&set.Rules[i], defaultOptions())
		if err != nil {
			return nil, err
		}
		out = append(out, RuleSummary{
			Priority:    set.Rules[i].Priority,
			Name:        r.Name(),
			StopOnMatch: r.StopsOnMatch(),
			Condition:   r.Condition().String(),
			Actions:     r.Transform().Name(),
		})
	}

	// Same ordering as engine.SortByPriority.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	for i := range out {
		out[i].Position = i
	}
	return out, nil
}
