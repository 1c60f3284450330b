package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
)

// layoutCommand creates the layout command for computing chart positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		query       string
		departments string
		hSpacing    float64
		vSpacing    float64
	)

	cmd := &cobra.Command{
		Use:   "layout [chart.json]",
		Short: "Compute node positions for an org chart",
		Long: `Compute node positions for an org chart.

The layout command reads a chart file, runs the tidy tree layout over the
visible hierarchy, and writes the chart back with positions filled in.
Collapsed subtrees and nodes excluded by --query or --departments keep
their previous positions.

The output (default: <input>.layout.json) is a full chart document and can
be rendered with the 'render' command or served with 'serve'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flt := forest.Filter{Query: query, Departments: parseDepartments(departments)}
			cfg := c.Config.LayoutSettings()
			if hSpacing > 0 {
				cfg.HSpacing = hSpacing
			}
			if vSpacing > 0 {
				cfg.VSpacing = vSpacing
			}
			return c.runLayout(cmd.Context(), args[0], output, flt, cfg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only lay out nodes matching this search query")
	cmd.Flags().StringVar(&departments, "departments", "", "only lay out these departments (comma-separated)")
	cmd.Flags().Float64Var(&hSpacing, "h-spacing", 0, "horizontal spacing between sibling slots")
	cmd.Flags().Float64Var(&vSpacing, "v-spacing", 0, "vertical spacing between depth rows")

	return cmd
}

// runLayout loads the chart, computes positions, and writes the output.
func (c *CLI) runLayout(ctx context.Context, input, output string, flt forest.Filter, cfg layout.Config) error {
	f, err := chart.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", input, err)
	}

	p := newProgress(c.Logger)
	positions := layout.Compute(f, flt, cfg)
	layout.Apply(f, positions)
	p.done(fmt.Sprintf("Laid out %d nodes", len(positions)))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := chart.WriteFile(f, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	bounds := layout.Bounds(positions, cfg)
	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(f.NodeCount(), f.EdgeCount(), false)
	printDetail("canvas: %.0f × %.0f", bounds.Width(), bounds.Height())
	printNewline()
	printNextStep("Render", "orgtree render "+outputPath)

	return nil
}
