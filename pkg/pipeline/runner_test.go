package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/cache"
)

const testChart = `{
  "nodes": [
    {"id": "ceo", "name": "Ada", "title": "CEO", "department": "Executive", "level": 1},
    {"id": "cto", "name": "Grace", "title": "CTO", "department": "Engineering", "level": 2},
    {"id": "eng", "name": "Edsger", "title": "Engineer", "department": "Engineering", "level": 3}
  ],
  "edges": [
    {"source": "ceo", "target": "cto"},
    {"source": "cto", "target": "eng"}
  ]
}`

func writeChart(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "org.json")
	if err := os.WriteFile(path, []byte(testChart), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// dot and json avoid the graphviz/librsvg toolchain in tests.
func TestRunnerExecute(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), Options{
		ChartPath: writeChart(t),
		Formats:   []string{FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.Stats.VisibleCount != 3 {
		t.Errorf("VisibleCount = %d, want 3", result.Stats.VisibleCount)
	}
	if len(result.ChartHash) != 64 {
		t.Errorf("ChartHash = %q", result.ChartHash)
	}
	if len(result.Positions) != 3 {
		t.Errorf("positions = %v", result.Positions)
	}
	if result.Bounds.Width() <= 0 || result.Bounds.Height() <= 0 {
		t.Errorf("bounds = %+v", result.Bounds)
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, `"ceo" -> "cto"`) {
		t.Errorf("dot artifact:\n%s", dot)
	}
	if !strings.Contains(string(result.Artifacts[FormatJSON]), `"Grace"`) {
		t.Error("json artifact missing node payload")
	}
	if result.CacheInfo.RenderHit {
		t.Error("first run cannot be a cache hit")
	}
}

func TestRunnerExecuteMissingChart(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), Options{
		ChartPath: filepath.Join(t.TempDir(), "nope.json"),
		Formats:   []string{FormatDOT},
	})
	if err == nil {
		t.Error("missing chart must fail the pipeline")
	}
}

func TestRunnerRenderCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	opts := Options{ChartPath: writeChart(t), Formats: []string{FormatDOT, FormatJSON}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("cold cache reported a hit")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("warm cache should report a render hit")
	}
	if string(first.Artifacts[FormatDOT]) != string(second.Artifacts[FormatDOT]) {
		t.Error("cached artifact differs from fresh render")
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh run must not report a cache hit")
	}
}

func TestRunnerFilterNarrowsRender(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), Options{
		ChartPath:   writeChart(t),
		Departments: []string{"Engineering"},
		Formats:     []string{FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.VisibleCount != 2 {
		t.Errorf("VisibleCount = %d, want 2", result.Stats.VisibleCount)
	}
	dot := string(result.Artifacts[FormatDOT])
	if strings.Contains(dot, `"ceo"`) {
		t.Errorf("filtered node leaked into render:\n%s", dot)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("nil collaborators must be defaulted: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
