package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/solatis/easyrules/internal/engine"
	"github.com/solatis/easyrules/internal/rules"
	"github.com/solatis/easyrules/internal/types"
)

func newDescribeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Show a rule set in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, root, args[0])
		},
	}
}

func runDescribe(cmd *cobra.Command, root *rootOptions, path string) error {
	if _, _, err := root.setup(cmd); err != nil {
		return err
	}

	set, err := loadRuleSet(path)
	if err != nil {
		return err
	}
	rows, err := rules.Describe(set)
	if err != nil {
		return fail(ExitUsage, "failed to compile rule set", err)
	}
	// Engine construction catches what compiling single rules cannot, such
	// as duplicate names or an unknown match mode.
	eng, err := rules.Build(set)
	if err != nil {
		return fail(ExitUsage, "failed to build rule set", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRuleSet(set, eng, rows))
	return err
}

func renderRuleSet(set *types.RuleSet, eng *engine.Engine[types.Record], rows []rules.RuleSummary) string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("%s (match_mode=%s, keep_unmatched=%t)", set.Name, eng.MatchMode(), eng.KeepsUnmatched()))
	tw.AppendHeader(table.Row{"#", "Priority", "Rule", "Stop", "When", "Then"})
	for _, r := range rows {
		stop := ""
		if r.StopOnMatch {
			stop = "yes"
		}
		tw.AppendRow(table.Row{r.Position, r.Priority, r.Name, stop, r.Condition, r.Actions})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 60},
		{Number: 6, WidthMax: 40},
	})

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}
