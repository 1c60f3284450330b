package layout

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/orgtree/pkg/forest"
)

// genForest draws a random single-parent forest: each node either starts
// a new root or attaches to a previously inserted node, so the structure
// invariants hold by construction.
func genForest(t *rapid.T) *forest.Forest {
	f := forest.New()
	n := rapid.IntRange(1, 40).Draw(t, "nodes")
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		parent := ""
		if len(ids) > 0 && rapid.Float64Range(0, 1).Draw(t, "attach") < 0.8 {
			parent = ids[rapid.IntRange(0, len(ids)-1).Draw(t, "parent")]
		}
		if err := f.Insert(forest.Node{ID: id}, parent); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
		ids = append(ids, id)
	}
	return f
}

func TestComputeProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := genForest(rt)
		cfg := DefaultConfig()
		pos := Compute(f, forest.Filter{}, cfg)

		visible := f.VisibleIDs(forest.Filter{})
		if len(pos) != len(visible) {
			rt.Fatalf("positioned %d nodes, %d visible", len(pos), len(visible))
		}

		// No two nodes occupy the same point.
		seen := make(map[forest.Position]string, len(pos))
		for id, p := range pos {
			if other, dup := seen[p]; dup {
				rt.Fatalf("%s and %s share position %+v", id, other, p)
			}
			seen[p] = id
		}

		// Rows follow structural depth exactly.
		for id, p := range pos {
			want := float64(f.Depth(id))*cfg.VSpacing + cfg.TopMargin
			if p.Y != want {
				rt.Fatalf("%s y = %v, want %v at depth %d", id, p.Y, want, f.Depth(id))
			}
		}

		// Every parent sits inside the horizontal span of its children,
		// and children keep edge insertion order left to right.
		for id, p := range pos {
			kids := f.Children(id)
			if len(kids) == 0 {
				continue
			}
			lo, hi := pos[kids[0]].X, pos[kids[0]].X
			prev := pos[kids[0]].X
			for _, c := range kids[1:] {
				x := pos[c].X
				if x <= prev {
					rt.Fatalf("children of %s out of order: %v then %v", id, prev, x)
				}
				prev = x
				lo, hi = min(lo, x), max(hi, x)
			}
			if p.X < lo || p.X > hi {
				rt.Fatalf("%s x = %v outside child span [%v, %v]", id, p.X, lo, hi)
			}
		}
	})
}

func TestComputeCollapseShrinksLayout(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := genForest(rt)
		cfg := DefaultConfig()

		full := Compute(f, forest.Filter{}, cfg)

		// Collapse a random node and recompute: the visible set can only
		// shrink, and so can the horizontal extent.
		target := fmt.Sprintf("n%d", rapid.IntRange(0, f.NodeCount()-1).Draw(rt, "target"))
		f.ToggleCollapse(target)
		collapsed := Compute(f, forest.Filter{}, cfg)

		if len(collapsed) > len(full) {
			rt.Fatalf("collapse grew the layout: %d -> %d nodes", len(full), len(collapsed))
		}
		fb, cb := Bounds(full, cfg), Bounds(collapsed, cfg)
		if cb.Width() > fb.Width() {
			rt.Fatalf("collapse widened the canvas: %v -> %v", fb.Width(), cb.Width())
		}
	})
}
