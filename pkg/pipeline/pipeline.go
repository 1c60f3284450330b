// Package pipeline provides the core chart processing pipeline.
//
// This package implements the complete load → layout → render pipeline
// that is shared by the CLI and the HTTP server. Centralizing it keeps
// behavior consistent across entry points and avoids duplicating the
// caching logic.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and validate a chart document into a forest
//  2. Layout: Compute node positions for the visible hierarchy
//  3. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ChartPath: "org.json",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
)

// DefaultScale is the default PNG scale factor. 2x suits high-DPI displays.
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Options contains all configuration for the chart pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	ChartPath string `json:"chart_path,omitempty"`

	// Filter options
	Query       string   `json:"query,omitempty"`
	Departments []string `json:"departments,omitempty"`

	// Layout options
	HSpacing  float64 `json:"h_spacing,omitempty"`
	VSpacing  float64 `json:"v_spacing,omitempty"`
	TopMargin float64 `json:"top_margin,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Forest is the loaded chart with positions applied.
	Forest *forest.Forest

	// ChartHash is the content hash of the chart document.
	ChartHash string

	// Positions holds the computed coordinates keyed by node ID.
	Positions map[string]forest.Position

	// Bounds is the bounding box of the positioned chart.
	Bounds layout.Rect

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	VisibleCount int
	EdgeCount    int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ChartPath == "" {
		return fmt.Errorf("chart_path is required")
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.HSpacing == 0 {
		o.HSpacing = layout.DefaultHSpacing
	}
	if o.VSpacing == 0 {
		o.VSpacing = layout.DefaultVSpacing
	}
	if o.TopMargin == 0 {
		o.TopMargin = layout.DefaultTopMargin
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Filter returns the visibility filter described by the options.
func (o *Options) Filter() forest.Filter {
	return forest.Filter{
		Query:       o.Query,
		Departments: o.Departments,
	}
}

// LayoutConfig returns the layout configuration described by the options.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{
		HSpacing:  o.HSpacing,
		VSpacing:  o.VSpacing,
		TopMargin: o.TopMargin,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
