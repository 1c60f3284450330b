package layout

import "github.com/matzehuels/orgtree/pkg/forest"

// Depths assigns each visible node its edge-distance from its visible
// root via a topological traversal (Kahn's algorithm) over the visible
// subgraph. Every node at equal distance from a root lands in the same
// vertical band, regardless of the advisory Employee.Level field.
//
// In a single-parent forest this reduces to BFS depth, but the in-degree
// bookkeeping keeps the pass terminating and well-defined even if an
// invariant-violating extra edge is ever present: nodes on a cycle never
// reach zero in-degree and simply stay at depth 0.
func Depths(f *forest.Forest, visible map[string]bool) map[string]int {
	inDegree := make(map[string]int, len(visible))
	depths := make(map[string]int, len(visible))
	queue := make([]string, 0, len(visible))

	for id := range visible {
		deg := 0
		if p, ok := f.Parent(id); ok && visible[p] {
			deg = 1
		}
		inDegree[id] = deg
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range f.Children(curr) {
			if !visible[child] {
				continue
			}
			if d := depths[curr] + 1; d > depths[child] {
				depths[child] = d
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return depths
}
