package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/analysis"
	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
)

// analyzeCommand creates the analyze command for chart summarization.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		query       string
		departments string
	)

	cmd := &cobra.Command{
		Use:   "analyze [chart.json] [instruction]",
		Short: "Ask the analysis service about an org chart",
		Long: `Ask the external text-generation service about an org chart.

The visible part of the chart (after --query and --departments filtering)
is serialized into a compact snapshot and sent to the configured service
together with the instruction. Responses are cached, so repeating a
question about an unchanged chart does not hit the service again.

Requires an [analysis] section in the config file with at least base_url
set; the API key can come from ORGTREE_API_KEY.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flt := forest.Filter{Query: query, Departments: parseDepartments(departments)}
			return c.runAnalyze(cmd.Context(), args[0], args[1], flt)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only include nodes matching this search query")
	cmd.Flags().StringVar(&departments, "departments", "", "only include these departments (comma-separated)")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input, instruction string, flt forest.Filter) error {
	if c.Config.Analysis.BaseURL == "" {
		return fmt.Errorf("no analysis service configured: set [analysis] base_url in %s", configFileName)
	}

	f, err := chart.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", input, err)
	}

	client, closeCache, err := c.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	snap := analysis.Take(f, flt)
	c.Logger.Debug("snapshot taken", "nodes", snap.NodeCount, "departments", len(snap.Departments))

	spinner := newSpinnerWithContext(ctx, "Analyzing chart...")
	spinner.Start()

	text, err := client.Analyze(ctx, snap, instruction)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.Stop()

	fmt.Println(text)
	return nil
}
