package forest

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Forest.Insert] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Forest.Insert] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownParentNode is returned by [Forest.Insert] and
	// [Forest.AddEdge] when the parent endpoint does not exist.
	ErrUnknownParentNode = errors.New("unknown parent node")

	// ErrUnknownChildNode is returned by [Forest.AddEdge] when the child
	// endpoint does not exist.
	ErrUnknownChildNode = errors.New("unknown child node")

	// ErrNodeHasParent is returned by [Forest.AddEdge] when the child
	// already has an incoming edge. The layout algorithm assumes a
	// single-parent forest; a second parent would double-count the
	// child's subtree width, so the edge is rejected outright.
	ErrNodeHasParent = errors.New("node already has a parent")

	// ErrWouldCycle is returned by [Forest.AddEdge] when the edge would
	// make a node its own ancestor.
	ErrWouldCycle = errors.New("edge would create a cycle")
)

// Position is a 2D coordinate assigned by the layout engine. Positions
// are owned exclusively by layout; mutations never touch them.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a slot in the org chart: a stable ID, the employee payload
// currently occupying it, and its layout-assigned position.
type Node struct {
	ID       string
	Employee Employee
	Position Position
}

// Edge is a directed parent→child connection. Its ID is derived
// deterministically from the endpoints, so equal endpoints always
// produce the same edge identity.
type Edge struct {
	ID     string
	Source string // parent
	Target string // child
}

// EdgeID derives the deterministic edge identifier for a parent→child pair.
func EdgeID(source, target string) string {
	return fmt.Sprintf("e-%s-%s", source, target)
}

// Forest is the shared org chart state: the node pool, the single-parent
// edge set, and the collapse set. The zero value is not usable - use New.
//
// Forest is not safe for concurrent use without external synchronization.
type Forest struct {
	nodes     map[string]*Node
	order     []string // node insertion order, drives roots and serialization
	edges     []Edge
	children  map[string][]string // parent ID -> child IDs, edge insertion order
	parent    map[string]string   // child ID -> parent ID
	collapsed map[string]bool
	observers []Observer
}

// New creates an empty forest.
func New() *Forest {
	return &Forest{
		nodes:     make(map[string]*Node),
		children:  make(map[string][]string),
		parent:    make(map[string]string),
		collapsed: make(map[string]bool),
	}
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the live node; payload modifications
// should go through [Forest.Update] so observers are notified.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (f *Forest) Nodes() []*Node {
	out := make([]*Node, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.nodes[id])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (f *Forest) Edges() []Edge { return slices.Clone(f.edges) }

// NodeCount returns the number of nodes.
func (f *Forest) NodeCount() int { return len(f.nodes) }

// EdgeCount returns the number of edges.
func (f *Forest) EdgeCount() int { return len(f.edges) }

// Children returns the IDs of the node's direct reports in edge insertion
// order. The returned slice is a read-only view.
func (f *Forest) Children(id string) []string { return f.children[id] }

// Parent returns the node's parent ID and true, or "" and false for roots
// and unknown IDs.
func (f *Forest) Parent(id string) (string, bool) {
	p, ok := f.parent[id]
	return p, ok
}

// Roots returns the IDs of nodes with no incoming edge, in node insertion
// order. Insertion order keeps repeated layout passes deterministic.
func (f *Forest) Roots() []string {
	var roots []string
	for _, id := range f.order {
		if _, ok := f.parent[id]; !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

// Descendants returns the transitive closure of the node's children.
// The node itself is not included. Traversal is bounded by a visited set
// so it terminates even if an invariant-violating cycle ever appears.
func (f *Forest) Descendants(id string) map[string]bool {
	out := make(map[string]bool)
	f.collectDescendants(id, out)
	return out
}

func (f *Forest) collectDescendants(id string, seen map[string]bool) {
	for _, c := range f.children[id] {
		if seen[c] {
			continue
		}
		seen[c] = true
		f.collectDescendants(c, seen)
	}
}

// isAncestor reports whether anc is an ancestor of id, walking the parent
// chain with a step bound as defense against corrupted state.
func (f *Forest) isAncestor(anc, id string) bool {
	cur := id
	for range len(f.nodes) + 1 {
		p, ok := f.parent[cur]
		if !ok {
			return false
		}
		if p == anc {
			return true
		}
		cur = p
	}
	return false
}

// Depth returns the node's edge-distance from its root, or -1 for
// unknown IDs. This is the structural depth the layout engine uses,
// independent of the advisory Employee.Level field.
func (f *Forest) Depth(id string) int {
	if _, ok := f.nodes[id]; !ok {
		return -1
	}
	depth := 0
	cur := id
	for range len(f.nodes) + 1 {
		p, ok := f.parent[cur]
		if !ok {
			return depth
		}
		depth++
		cur = p
	}
	return depth
}

// Collapsed returns the IDs currently marked collapsed, sorted. Orphaned
// entries (IDs of since-deleted nodes) are filtered out of the view but
// deliberately kept in the set, where they are harmless.
func (f *Forest) Collapsed() []string {
	var ids []string
	for id := range f.collapsed {
		if _, ok := f.nodes[id]; ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// IsCollapsed reports whether the node is marked collapsed.
func (f *Forest) IsCollapsed(id string) bool { return f.collapsed[id] }

// SetPosition writes a layout-computed position onto a node. Unknown IDs
// are ignored. Position changes are not mutations and emit no events.
func (f *Forest) SetPosition(id string, p Position) {
	if n, ok := f.nodes[id]; ok {
		n.Position = p
	}
}
