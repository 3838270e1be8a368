package engine

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/solatis/easyrules/internal/types"
)

// MatchMode is the engine-wide policy deciding how many rules may apply to
// one record.
type MatchMode int

const (
	// MatchAll lets every rule attempt to match, unless a matching rule
	// carries StopOnMatch.
	MatchAll MatchMode = iota
	// MatchFirst stops at the first matching rule, whatever its own
	// StopOnMatch flag says.
	MatchFirst
)

func (m MatchMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchFirst:
		return "first"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

func (m MatchMode) valid() bool {
	return m == MatchAll || m == MatchFirst
}

// ParseMatchMode converts "all" or "first" (case-insensitive) to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return MatchAll, nil
	case "first":
		return MatchFirst, nil
	default:
		return MatchAll, fmt.Errorf("%w: %q (expected all or first)", types.ErrInvalidMatchMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m MatchMode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidMatchMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MatchMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Options used by the engine during processing.
// See the functional definitions below for the meaning.
type Options struct {
	KeepUnmatched bool
	MatchMode     MatchMode
	Logger        *slog.Logger
}

// Option mutates Options.
type Option func(o *Options)

func defaultOptions() Options {
	return Options{
		KeepUnmatched: true,
		MatchMode:     MatchAll,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// KeepUnmatched controls whether records no rule matched are emitted
// unchanged (true) or dropped (false).
// Default: true
func KeepUnmatched(b bool) Option {
	return func(o *Options) {
		o.KeepUnmatched = b
	}
}

// WithMatchMode sets the match mode.
// Default: MatchAll
func WithMatchMode(m MatchMode) Option {
	return func(o *Options) {
		o.MatchMode = m
	}
}

// WithLogger sets the logger used for debug-level match tracing.
// Default: a logger that discards everything
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
