// Package config provides configuration management for the easyrules CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/recordio"
)

// Config is the resolved CLI configuration.
type Config struct {
	Engine EngineConfig
	IO     IOConfig
	Log    LogConfig
}

// EngineConfig holds engine policy overrides. A nil field means "not
// configured": the rule set file's own value (or the engine default) applies.
type EngineConfig struct {
	MatchMode     *engine.MatchMode
	KeepUnmatched *bool
	ScriptTimeout time.Duration
}

// IOConfig selects record formats. An empty format is inferred from the
// file extension; stdin and stdout fall back to JSON.
type IOConfig struct {
	InputFormat  recordio.Format
	OutputFormat recordio.Format
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ScriptTimeout: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Options translates the configured overrides into engine options. Only
// configured values produce an option.
func (c EngineConfig) Options() []engine.Option {
	var opts []engine.Option
	if c.MatchMode != nil {
		opts = append(opts, engine.WithMatchMode(*c.MatchMode))
	}
	if c.KeepUnmatched != nil {
		opts = append(opts, engine.KeepUnmatched(*c.KeepUnmatched))
	}
	return opts
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level must be one of debug, info, warn, error, got %q", c.Level)
	}
}

// validateConfig checks log settings and the script timeout.
func validateConfig(cfg *Config) error {
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", cfg.Log.Format)
	}
	if cfg.Engine.ScriptTimeout <= 0 {
		return fmt.Errorf("script_timeout must be positive, got %v", cfg.Engine.ScriptTimeout)
	}
	return nil
}
