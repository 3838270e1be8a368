// internal/rules/options.go
package rules

import (
	"time"

	"github.com/solatis/easyrules/internal/engine"
)

// DefaultScriptTimeout bounds a single script evaluation unless
// WithScriptTimeout says otherwise.
const DefaultScriptTimeout = time.Second

// Options used while compiling and building rule sets.
type Options struct {
	// ScriptTimeout bounds every script compiled with these options.
	ScriptTimeout time.Duration

	// Engine is passed to engine.New after the rule set's own policy, so it
	// takes precedence.
	Engine []engine.Option
}

// Option mutates Options.
type Option func(o *Options)

func defaultOptions() Options {
	return Options{ScriptTimeout: DefaultScriptTimeout}
}

func applyOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithScriptTimeout sets the evaluation deadline of compiled scripts.
// Non-positive durations keep the default.
func WithScriptTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ScriptTimeout = d
		}
	}
}

// WithEngineOptions forwards engine options to Build.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *Options) {
		o.Engine = append(o.Engine, opts...)
	}
}
