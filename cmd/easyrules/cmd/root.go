package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/easyrules/internal/core/config"
	"github.com/solatis/easyrules/internal/rules"
	"github.com/solatis/easyrules/internal/types"
)

const Version = "0.1.0"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "easyrules",
		Short:   "Declarative rule engine for record batches",
		Long:    `easyrules applies prioritized condition/action rules to batches of JSON or YAML records.`,
		Version: Version,

		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log format (json, text)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newDescribeCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args. Errors that did not come from a command
// body (unknown flags, wrong argument counts) are usage errors.
func Execute() error {
	return classify(NewRootCommand().Execute())
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return fail(ExitUsage, "usage", err)
}

// setup loads configuration, applies the global flags on top of it and
// builds the run-scoped logger.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, nil, fail(ExitUsage, "failed to load config", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, nil, fail(ExitUsage, "invalid logging flags", err)
	}
	return cfg, logger.With("run_id", string(types.NewRunID()), "command", cmd.Name()), nil
}

func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch lc.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("log format must be json or text, got %q", lc.Format)
	}
}

// loadRuleSet reads a rule set file and reports failures as command errors.
func loadRuleSet(path string) (*types.RuleSet, error) {
	if path == "" {
		return nil, fail(ExitUsage, "--rules is required", nil)
	}
	set, err := rules.Load(path)
	if err != nil {
		return nil, fail(ExitUsage, "failed to load rule set", err)
	}
	return set, nil
}
