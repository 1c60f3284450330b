package forest

import "slices"

// Op identifies a mutation operation in emitted events.
type Op string

// Mutation operations.
const (
	OpInsert   Op = "insert"
	OpAddEdge  Op = "add_edge"
	OpDelete   Op = "delete"
	OpUpdate   Op = "update"
	OpCollapse Op = "collapse"
	OpReplace  Op = "replace"
	OpSwap     Op = "swap"
)

// Event describes a completed mutation. Structural is true when the
// change can invalidate layout (node/edge/visibility changes) and false
// for payload-only edits.
type Event struct {
	Op         Op
	IDs        []string
	Structural bool
}

// Observer receives mutation events. Observers run synchronously on the
// mutating goroutine, immediately after the forest reaches its new state;
// this replaces the original design's timer-deferred relayout with a
// deterministic callback.
type Observer func(Event)

// Subscribe registers an observer. Intended to be called once per
// consumer at construction time.
func (f *Forest) Subscribe(fn Observer) {
	if fn != nil {
		f.observers = append(f.observers, fn)
	}
}

func (f *Forest) emit(e Event) {
	for _, fn := range f.observers {
		fn(e)
	}
}

// Insert adds a node, optionally under a parent. An empty parentID
// creates a new root. Returns ErrInvalidNodeID, ErrDuplicateNodeID, or
// ErrUnknownParentNode; on any error the forest is unchanged.
//
// Insert does not recompute layout - observers receive a structural
// event and the caller decides when to run a layout pass.
func (f *Forest) Insert(n Node, parentID string) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := f.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if parentID != "" {
		if _, ok := f.nodes[parentID]; !ok {
			return ErrUnknownParentNode
		}
	}

	node := n
	f.nodes[node.ID] = &node
	f.order = append(f.order, node.ID)
	if parentID != "" {
		f.link(parentID, node.ID)
	}
	f.emit(Event{Op: OpInsert, IDs: []string{node.ID}, Structural: true})
	return nil
}

// AddEdge connects an existing parent to an existing child. The child
// must not already have a parent (single-parent forest) and the edge must
// not make a node its own ancestor; violating edges are rejected rather
// than silently corrupting the layout.
func (f *Forest) AddEdge(parentID, childID string) error {
	if _, ok := f.nodes[parentID]; !ok {
		return ErrUnknownParentNode
	}
	if _, ok := f.nodes[childID]; !ok {
		return ErrUnknownChildNode
	}
	if _, ok := f.parent[childID]; ok {
		return ErrNodeHasParent
	}
	if parentID == childID || f.isAncestor(childID, parentID) {
		return ErrWouldCycle
	}

	f.link(parentID, childID)
	f.emit(Event{Op: OpAddEdge, IDs: []string{parentID, childID}, Structural: true})
	return nil
}

func (f *Forest) link(parentID, childID string) {
	f.edges = append(f.edges, Edge{
		ID:     EdgeID(parentID, childID),
		Source: parentID,
		Target: childID,
	})
	f.children[parentID] = append(f.children[parentID], childID)
	f.parent[childID] = parentID
}

// Delete removes the node and its entire subtree, plus every edge
// touching any removed node. There is no orphan re-parenting. Unknown
// IDs are a silent no-op. Returns the number of nodes removed.
func (f *Forest) Delete(id string) int {
	if _, ok := f.nodes[id]; !ok {
		return 0
	}

	doomed := f.Descendants(id)
	doomed[id] = true

	for nid := range doomed {
		delete(f.nodes, nid)
		delete(f.children, nid)
		delete(f.parent, nid)
		// Collapse entries for deleted nodes stay behind; the visible-set
		// computation never sees them again, so they are harmless.
	}
	f.order = slices.DeleteFunc(f.order, func(nid string) bool { return doomed[nid] })
	f.edges = slices.DeleteFunc(f.edges, func(e Edge) bool {
		return doomed[e.Source] || doomed[e.Target]
	})
	for pid, kids := range f.children {
		f.children[pid] = slices.DeleteFunc(kids, func(c string) bool { return doomed[c] })
	}

	ids := make([]string, 0, len(doomed))
	for nid := range doomed {
		ids = append(ids, nid)
	}
	slices.Sort(ids)
	f.emit(Event{Op: OpDelete, IDs: ids, Structural: true})
	return len(doomed)
}

// Update merges partial payload fields into an existing node. The node's
// ID and position are never altered. Unknown IDs are a silent no-op.
func (f *Forest) Update(id string, p Partial) {
	n, ok := f.nodes[id]
	if !ok {
		return
	}
	p.apply(&n.Employee)
	f.emit(Event{Op: OpUpdate, IDs: []string{id}, Structural: false})
}

// ToggleCollapse flips the node's membership in the collapse set and
// returns the new state. Pure visibility toggle: the forest structure is
// untouched, but the event is structural so previously hidden siblings
// re-pack on the next layout pass. Unknown IDs are a silent no-op.
func (f *Forest) ToggleCollapse(id string) bool {
	if _, ok := f.nodes[id]; !ok {
		return false
	}
	if f.collapsed[id] {
		delete(f.collapsed, id)
	} else {
		f.collapsed[id] = true
	}
	f.emit(Event{Op: OpCollapse, IDs: []string{id}, Structural: true})
	return f.collapsed[id]
}

// ReplaceData moves the source payload onto the target slot: the target's
// payload becomes a copy of the source's (keeping the target slot's own
// Level) and the source is reset to the vacant sentinel (keeping its own
// Level). No edges change - the org slot now holds that employee. Silent
// no-op if either ID is missing.
func (f *Forest) ReplaceData(sourceID, targetID string) {
	src, ok := f.nodes[sourceID]
	if !ok {
		return
	}
	dst, ok := f.nodes[targetID]
	if !ok || sourceID == targetID {
		return
	}

	dstLevel := dst.Employee.Level
	dst.Employee = src.Employee.Clone()
	dst.Employee.Level = dstLevel
	src.Employee = Vacant(src.Employee.Level)

	f.emit(Event{Op: OpReplace, IDs: []string{sourceID, targetID}, Structural: false})
}

// SwapData exchanges two nodes' payloads in place. Levels stay with the
// slot, not the payload, so applying SwapData twice restores both nodes
// exactly. Silent no-op if either ID is missing.
func (f *Forest) SwapData(idA, idB string) {
	a, ok := f.nodes[idA]
	if !ok {
		return
	}
	b, ok := f.nodes[idB]
	if !ok || idA == idB {
		return
	}

	levelA, levelB := a.Employee.Level, b.Employee.Level
	a.Employee, b.Employee = b.Employee, a.Employee
	a.Employee.Level = levelA
	b.Employee.Level = levelB

	f.emit(Event{Op: OpSwap, IDs: []string{idA, idB}, Structural: false})
}
