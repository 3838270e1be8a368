package cmd

import (
	"errors"
	"fmt"
)

// ExitCode is the process status a command finishes with.
type ExitCode int

const (
	ExitOK ExitCode = iota
	// ExitFailure covers rule evaluation errors, unreadable records and
	// rule sets that fail validation.
	ExitFailure
	// ExitUsage covers bad flags or config and rule sets that cannot be
	// loaded or built.
	ExitUsage
)

// exitError attaches an ExitCode to a failure. cause may be nil.
type exitError struct {
	code  ExitCode
	msg   string
	cause error
}

func (e *exitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *exitError) Unwrap() error { return e.cause }

func fail(code ExitCode, msg string, cause error) error {
	return &exitError{code: code, msg: msg, cause: cause}
}

func failf(code ExitCode, format string, args ...any) error {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}

// ExitCodeOf reports the status main should exit with. Errors that carry no
// code count as ExitFailure.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}
