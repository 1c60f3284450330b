package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // output file path (or base path for multiple formats)
	formats     []string
	query       string
	departments string
	detailed    bool // include email, phone, and level in node labels
	scale       float64
	noCache     bool
	refresh     bool // recompute even when a cached artifact exists
}

// renderCommand creates the render command for generating chart images.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [chart.json]",
		Short: "Render an org chart to SVG, PNG, PDF, or DOT",
		Long: `Render an org chart to one or more output formats.

Rendering goes through Graphviz: the chart is serialized to DOT and
rasterized from there. PNG and PDF output additionally require librsvg
(rsvg-convert). Collapsed subtrees and nodes excluded by --query or
--departments are omitted from the output.

Rendered artifacts are cached by chart content hash, so re-rendering an
unchanged chart is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "only render nodes matching this search query")
	cmd.Flags().StringVar(&opts.departments, "departments", "", "only render these departments (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show contact details and levels in node labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and re-render")

	return cmd
}

// runRender executes the pipeline and writes each artifact to disk.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		ChartPath:   input,
		Query:       opts.query,
		Departments: parseDepartments(opts.departments),
		HSpacing:    c.Config.Layout.HSpacing,
		VSpacing:    c.Config.Layout.VSpacing,
		TopMargin:   c.Config.Layout.TopMargin,
		Formats:     opts.formats,
		Detailed:    opts.detailed,
		Scale:       opts.scale,
		Refresh:     opts.refresh,
		Logger:      c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering chart...")
	spinner.Start()

	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(opts.output, input)
	printSuccess("Render complete")
	for _, format := range opts.formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		var path string
		if opts.output != "" && len(opts.formats) == 1 {
			path = opts.output
		} else {
			path = base + "." + format
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)

	return nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. If output has a
// format extension (.svg, .png, ...), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
