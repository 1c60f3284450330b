package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
)

// demoCommand creates the demo command, which writes a small example
// chart to get started with.
func (c *CLI) demoCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write an example org chart",
		Long: `Write a small example org chart with positions already computed.

The result is a regular chart file: browse it, render it, serve it, or
use it as a template for your own organization.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := demoForest()
			positions := layout.Compute(f, forest.Filter{}, c.Config.LayoutSettings())
			layout.Apply(f, positions)

			if err := chart.WriteFile(f, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Example chart written")
			printFile(output)
			printStats(f.NodeCount(), f.EdgeCount(), false)
			printNewline()
			printNextStep("Browse", "orgtree browse "+output)
			printNextStep("Render", "orgtree render "+output)
			printNextStep("Serve", "orgtree serve "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "org.json", "output file")

	return cmd
}

// demoForest builds the example organization. Errors are impossible by
// construction (fresh forest, unique IDs, parents inserted first).
func demoForest() *forest.Forest {
	f := forest.New()

	type seed struct {
		id, parent string
		emp        forest.Employee
	}
	seeds := []seed{
		{"ceo", "", forest.Employee{Name: "Maria Silva", Title: "CEO", Department: "Executive", Email: "maria@example.com", Level: 1}},
		{"cto", "ceo", forest.Employee{Name: "Chen Wei", Title: "CTO", Department: "Engineering", Email: "chen@example.com", Level: 2}},
		{"cfo", "ceo", forest.Employee{Name: "Amara Okafor", Title: "CFO", Department: "Finance", Email: "amara@example.com", Level: 2}},
		{"vp-eng", "cto", forest.Employee{Name: "Lena Novak", Title: "VP Engineering", Department: "Engineering", Level: 3}},
		{"staff-eng", "vp-eng", forest.Employee{Name: "Diego Ramos", Title: "Staff Engineer", Department: "Engineering", Level: 4}},
		{"eng-1", "vp-eng", forest.Employee{Name: "Priya Patel", Title: "Software Engineer", Department: "Engineering", Level: 5}},
		{"eng-2", "vp-eng", forest.Employee{Name: "Tom Becker", Title: "Software Engineer", Department: "Engineering", Level: 5}},
		{"fin-1", "cfo", forest.Employee{Name: "Sofia Rossi", Title: "Controller", Department: "Finance", Level: 3}},
		{"open-pm", "cto", forest.Vacant(3)},
	}
	for _, s := range seeds {
		_ = f.Insert(forest.Node{ID: s.id, Employee: s.emp}, s.parent)
	}
	return f
}
