package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/easyrules/internal/rules"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Parse and compile rule set files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, args)
		},
	}
}

func runValidate(cmd *cobra.Command, root *rootOptions, paths []string) error {
	_, logger, err := root.setup(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		set, err := rules.Load(path)
		if err == nil {
			_, err = rules.Build(set)
		}
		if err != nil {
			failed++
			logger.Warn("rule set invalid", "path", path, "error", err)
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d rules)\n", path, len(set.Rules))
	}

	if failed > 0 {
		return failf(ExitFailure, "validation failed with %d error(s)", failed)
	}
	return nil
}
