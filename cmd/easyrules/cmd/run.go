package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/recordio"
	"github.com/solatis/easyrules/internal/rules"
	"github.com/solatis/easyrules/internal/types"
)

type runOptions struct {
	rulesPath     string
	input         string
	output        string
	inputFormat   string
	outputFormat  string
	matchMode     string
	keepUnmatched bool
	trace         bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --rules FILE [--input FILE] [--output FILE]",
		Short: "Apply a rule set to a batch of records",
		Long: `Reads a batch of records, runs every record through the rule set and
writes the surviving records in input order.

Engine policy comes from the rule set file unless overridden by config,
EASYRULES_ENGINE_* environment variables or the flags below.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.rulesPath, "rules", "r", "", "rule set file (yaml or json)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "input records file, - for stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output records file, - for stdout")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "input format (json, jsonl, yaml); inferred from --input by default")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "", "output format (json, jsonl, yaml); inferred from --output by default")
	cmd.Flags().StringVar(&opts.matchMode, "match-mode", "", "override match mode (all, first)")
	cmd.Flags().BoolVar(&opts.keepUnmatched, "keep-unmatched", true, "override whether unmatched records are emitted")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print a per-record trace table instead of records")

	return cmd
}

func runRun(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg, logger, err := root.setup(cmd)
	if err != nil {
		return err
	}

	set, err := loadRuleSet(opts.rulesPath)
	if err != nil {
		return err
	}

	engineOpts := cfg.Engine.Options()
	if cmd.Flags().Changed("match-mode") {
		mode, err := engine.ParseMatchMode(opts.matchMode)
		if err != nil {
			return fail(ExitUsage, "invalid --match-mode", err)
		}
		engineOpts = append(engineOpts, engine.WithMatchMode(mode))
	}
	if cmd.Flags().Changed("keep-unmatched") {
		engineOpts = append(engineOpts, engine.KeepUnmatched(opts.keepUnmatched))
	}
	engineOpts = append(engineOpts, engine.WithLogger(logger))

	eng, err := rules.Build(set,
		rules.WithScriptTimeout(cfg.Engine.ScriptTimeout),
		rules.WithEngineOptions(engineOpts...),
	)
	if err != nil {
		return fail(ExitUsage, "failed to build rule set", err)
	}

	inFormat, err := resolveFormat(opts.inputFormat, cfg.IO.InputFormat, opts.input)
	if err != nil {
		return fail(ExitUsage, "invalid input format", err)
	}
	outFormat, err := resolveFormat(opts.outputFormat, cfg.IO.OutputFormat, opts.output)
	if err != nil {
		return fail(ExitUsage, "invalid output format", err)
	}

	records, err := readInput(cmd, opts.input, inFormat)
	if err != nil {
		return err
	}

	logger.Info("run started",
		"rule_set", set.Name,
		"rules", eng.RuleCount(),
		"match_mode", eng.MatchMode().String(),
		"keep_unmatched", eng.KeepsUnmatched(),
		"records", len(records),
	)
	start := time.Now()

	if opts.trace {
		outcomes, err := eng.Trace(records)
		if err != nil {
			return fail(ExitFailure, "rule evaluation failed", err)
		}
		logger.Info("run finished", "duration", time.Since(start).String(), "records", len(outcomes))
		return renderTrace(cmd.OutOrStdout(), outcomes)
	}

	out, err := eng.Process(records)
	if err != nil {
		return fail(ExitFailure, "rule evaluation failed", err)
	}
	logger.Info("run finished",
		"duration", time.Since(start).String(),
		"records_in", len(records),
		"records_out", len(out),
	)

	return writeOutput(cmd, opts.output, outFormat, out)
}

// resolveFormat picks the record format: explicit flag, then config, then the
// file extension, then JSON for stdin/stdout.
func resolveFormat(flag string, configured recordio.Format, path string) (recordio.Format, error) {
	if flag != "" {
		return recordio.ParseFormat(flag)
	}
	if configured != "" {
		return configured, nil
	}
	if path != "" && path != "-" {
		return recordio.FormatFromPath(path)
	}
	return recordio.FormatJSON, nil
}

func readInput(cmd *cobra.Command, path string, format recordio.Format) ([]types.Record, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fail(ExitUsage, "failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	records, err := recordio.Read(r, format)
	if err != nil {
		return nil, fail(ExitFailure, "failed to read records", err)
	}
	return records, nil
}

func writeOutput(cmd *cobra.Command, path string, format recordio.Format, records []types.Record) error {
	if path == "-" {
		if err := recordio.Write(cmd.OutOrStdout(), format, records); err != nil {
			return fail(ExitFailure, "failed to write records", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fail(ExitUsage, "failed to create output", err)
	}
	if err := recordio.Write(f, format, records); err != nil {
		f.Close()
		return fail(ExitFailure, "failed to write records", err)
	}
	if err := f.Close(); err != nil {
		return fail(ExitFailure, "failed to write records", err)
	}
	return nil
}

func renderTrace(w io.Writer, outcomes []engine.Outcome[types.Record]) error {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Matched", "Applied", "Stopped By", "Kept"})
	for i, oc := range outcomes {
		tw.AppendRow(table.Row{i, oc.Matched, strings.Join(oc.Applied, ", "), oc.StoppedBy, oc.Kept})
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
