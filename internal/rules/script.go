// internal/rules/script.go
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/solatis/easyrules/internal/types"
)

/*
 * JavaScript expressions for conditions and computed values.
 *
 * A script is a single ECMAScript expression evaluated with the current
 * record bound to the global `record`:
 *
 *   when: {script: "record.is_vip && record.total_amount >= 200"}
 *   then: [{set: discount, script: "record.total_amount * 0.1"}]
 *
 * Programs are compiled once (strict mode) and run on a fresh goja.Runtime
 * per evaluation, so scripts cannot leak state between records and a
 * compiled rule stays safe for concurrent use.
 *
 * The record is handed to the runtime as a JSON-canonical deep copy: the
 * script may scribble on it without touching the caller's record. Results
 * are canonicalized the same way so that numbers come back as float64.
 *
 * Runaway scripts are interrupted once the timeout given at compile time
 * (Options.ScriptTimeout) elapses.
 */

const scriptInterrupted = "script timeout"

type script struct {
	src     string
	prog    *goja.Program
	timeout time.Duration
}

func compileScript(src string, timeout time.Duration) (*script, error) {
	wrapped := fmt.Sprintf("(function() {\nreturn (%s);\n}());\n", src)
	prog, err := goja.Compile("", wrapped, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidScript, err)
	}
	return &script{src: src, prog: prog, timeout: timeout}, nil
}

// run evaluates the script against rec and returns the exported result.
func (s *script) run(rec types.Record) (any, error) {
	env, err := canonicalize(map[string]any(rec))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrScriptFailed, err)
	}

	vm := goja.New()
	if err := vm.Set("record", env); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrScriptFailed, err)
	}

	timer := time.AfterFunc(s.timeout, func() {
		vm.Interrupt(scriptInterrupted)
	})
	v, err := vm.RunProgram(s.prog)
	timer.Stop()
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w: %s: %s", types.ErrScriptFailed, scriptInterrupted, s.src)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrScriptFailed, err)
	}

	out, err := canonicalize(v.Export())
	if err != nil {
		return nil, fmt.Errorf("%w: result: %v", types.ErrScriptFailed, err)
	}
	return out, nil
}

// test evaluates the script as a predicate.
func (s *script) test(rec types.Record) (bool, error) {
	v, err := s.run(rec)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T, want bool", types.ErrScriptFailed, s.src, v)
	}
	return b, nil
}

// canonicalize deep-copies x into plain JSON values.
func canonicalize(x any) (any, error) {
	js, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	var y any
	if err := json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
