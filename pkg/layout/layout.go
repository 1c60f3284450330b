package layout

import (
	"github.com/matzehuels/orgtree/pkg/forest"
)

// Default spacing constants, in canvas units.
const (
	DefaultHSpacing  = 650.0 // one slot unit of horizontal space
	DefaultVSpacing  = 280.0 // one depth row of vertical space
	DefaultTopMargin = 100.0
	DefaultCardWidth = 240.0 // rendered node card width, for extent math
)

// Config holds the layout spacing constants.
type Config struct {
	HSpacing  float64
	VSpacing  float64
	TopMargin float64
	CardWidth float64
}

// DefaultConfig returns the standard spacing configuration.
func DefaultConfig() Config {
	return Config{
		HSpacing:  DefaultHSpacing,
		VSpacing:  DefaultVSpacing,
		TopMargin: DefaultTopMargin,
		CardWidth: DefaultCardWidth,
	}
}

// withDefaults fills zero fields so a partially specified config (e.g.
// from a TOML file) still produces a sane layout.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HSpacing <= 0 {
		c.HSpacing = d.HSpacing
	}
	if c.VSpacing <= 0 {
		c.VSpacing = d.VSpacing
	}
	if c.TopMargin < 0 {
		c.TopMargin = d.TopMargin
	}
	if c.CardWidth <= 0 {
		c.CardWidth = d.CardWidth
	}
	return c
}

// Compute returns a position for every node visible under the given
// filter. Roots are laid out left to right in node insertion order, with
// one extra horizontal spacing unit between consecutive root subtrees.
// A visible node whose parent is filtered out is treated as the root of
// its own visible subtree.
func Compute(f *forest.Forest, flt forest.Filter, cfg Config) map[string]forest.Position {
	cfg = cfg.withDefaults()

	visible := f.VisibleIDs(flt)
	positions := make(map[string]forest.Position, len(visible))
	if len(visible) == 0 {
		return positions
	}

	roots := visibleRoots(f, visible)
	depths := Depths(f, visible)

	widths := make(map[string]float64, len(visible))
	for _, root := range roots {
		measure(f, root, visible, widths, make(map[string]bool))
	}

	offset := 0.0
	for i, root := range roots {
		if i > 0 {
			offset += cfg.HSpacing // gap between root subtrees
		}
		place(f, root, visible, widths, depths, positions, cfg, offset)
		offset += widths[root] * cfg.HSpacing
	}
	return positions
}

// Apply writes computed positions back onto the forest. The layout engine
// is the sole owner of node positions.
func Apply(f *forest.Forest, positions map[string]forest.Position) {
	for id, p := range positions {
		f.SetPosition(id, p)
	}
}

// visibleRoots returns the visible nodes whose parent is absent or not
// visible, in node insertion order.
func visibleRoots(f *forest.Forest, visible map[string]bool) []string {
	var roots []string
	for _, n := range f.Nodes() {
		if !visible[n.ID] {
			continue
		}
		if p, ok := f.Parent(n.ID); !ok || !visible[p] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// visibleChildren filters a node's children to the visible set, keeping
// edge insertion order.
func visibleChildren(f *forest.Forest, id string, visible map[string]bool) []string {
	var out []string
	for _, c := range f.Children(id) {
		if visible[c] {
			out = append(out, c)
		}
	}
	return out
}

// measure computes subtree widths in slot units, post-order: a leaf is
// one slot, an inner node the sum of its visible children. The seen set
// bounds recursion if a cycle ever slips past the mutation guards.
func measure(f *forest.Forest, id string, visible map[string]bool, widths map[string]float64, seen map[string]bool) float64 {
	if seen[id] {
		return 0
	}
	seen[id] = true

	kids := visibleChildren(f, id, visible)
	if len(kids) == 0 {
		widths[id] = 1
		return 1
	}
	total := 0.0
	for _, c := range kids {
		total += measure(f, c, visible, widths, seen)
	}
	if total == 0 {
		total = 1
	}
	widths[id] = total
	return total
}

// place assigns positions top-down: the node's x sits at the midpoint of
// its subtree span, children consume consecutive sub-spans in order, and
// y is the structural depth row.
func place(f *forest.Forest, id string, visible map[string]bool, widths map[string]float64, depths map[string]int, positions map[string]forest.Position, cfg Config, offset float64) {
	if _, done := positions[id]; done {
		return // visited bound, cycles only
	}
	positions[id] = forest.Position{
		X: offset + widths[id]*cfg.HSpacing/2,
		Y: float64(depths[id])*cfg.VSpacing + cfg.TopMargin,
	}
	childOffset := offset
	for _, c := range visibleChildren(f, id, visible) {
		place(f, c, visible, widths, depths, positions, cfg, childOffset)
		childOffset += widths[c] * cfg.HSpacing
	}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the bounding box of all positions, padded by half a card
// width on each side so fit-to-view callers cover full node footprints.
// Returns the zero Rect for an empty position map.
func Bounds(positions map[string]forest.Position, cfg Config) Rect {
	cfg = cfg.withDefaults()
	if len(positions) == 0 {
		return Rect{}
	}
	first := true
	var r Rect
	for _, p := range positions {
		if first {
			r = Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			first = false
			continue
		}
		r.MinX = min(r.MinX, p.X)
		r.MinY = min(r.MinY, p.Y)
		r.MaxX = max(r.MaxX, p.X)
		r.MaxY = max(r.MaxY, p.Y)
	}
	half := cfg.CardWidth / 2
	r.MinX -= half
	r.MaxX += half
	return r
}
