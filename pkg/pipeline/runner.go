package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	f, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Forest = f
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = f.NodeCount()
	result.Stats.EdgeCount = f.EdgeCount()

	hash, err := chart.Hash(f)
	if err != nil {
		return nil, fmt.Errorf("hash chart: %w", err)
	}
	result.ChartHash = hash

	r.Logger.Info("loaded chart",
		"nodes", f.NodeCount(),
		"edges", f.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	positions, bounds := r.ComputeLayout(ctx, f, opts)
	result.Positions = positions
	result.Bounds = bounds
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleCount = len(positions)

	r.Logger.Info("computed layout",
		"visible", len(positions),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, f, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and validates the chart document into a forest.
func (r *Runner) Load(opts Options) (*forest.Forest, error) {
	return chart.ReadFile(opts.ChartPath)
}

// ComputeLayout computes positions for the visible hierarchy and applies
// them to the forest.
func (r *Runner) ComputeLayout(ctx context.Context, f *forest.Forest, opts Options) (map[string]forest.Position, layout.Rect) {
	opts.SetLayoutDefaults()

	observability.Layout().OnLayoutStart(ctx, f.NodeCount())
	start := time.Now()

	positions := layout.Compute(f, opts.Filter(), opts.LayoutConfig())
	layout.Apply(f, positions)
	bounds := layout.Bounds(positions, opts.LayoutConfig())

	observability.Layout().OnLayoutComplete(ctx, len(positions), time.Since(start), nil)
	return positions, bounds
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// Artifacts are keyed by chart content hash, so a chart edit naturally
// invalidates every cached rendering of the previous revision.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, f *forest.Forest, chartHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Try to get all formats from cache (unless refresh requested)
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(chartHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := r.renderAll(f, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(chartHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, f *forest.Forest, chartHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, f, chartHash, opts)
	return artifacts, err
}

// renderAll produces every requested format. SVG is rendered once and
// reused for PNG and PDF conversion.
func (r *Runner) renderAll(f *forest.Forest, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	dot := render.ToDOT(f, opts.Filter(), render.Options{Detailed: opts.Detailed})

	var svg []byte
	needSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		out, err := render.RenderSVG(dot)
		if err != nil {
			return nil, err
		}
		svg = out
		return svg, nil
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			out, err := needSVG()
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = out
		case FormatPNG:
			out, err := needSVG()
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			png, err := render.ToPNG(out, opts.Scale)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = png
		case FormatPDF:
			out, err := needSVG()
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			pdf, err := render.ToPDF(out)
			if err != nil {
				return nil, fmt.Errorf("render pdf: %w", err)
			}
			artifacts[format] = pdf
		case FormatJSON:
			data, err := chart.Marshal(f)
			if err != nil {
				return nil, fmt.Errorf("marshal chart: %w", err)
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
