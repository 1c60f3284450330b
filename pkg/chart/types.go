// Package chart is the canonical serialization format for org charts.
// Used for import/export files, API responses, and cross-tool exchange.
//
// The format is human-readable and designed for round-trip fidelity:
// import → mutate → export → re-import produces an equivalent forest.
// Import validates the whole document before any of it is applied;
// malformed input is rejected wholesale, never partially imported.
package chart

import (
	"github.com/matzehuels/orgtree/pkg/forest"

	apperrors "github.com/matzehuels/orgtree/pkg/errors"
)

// Chart is the exchange document: the full node and edge sets.
type Chart struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is the serialized form of a chart slot and its payload.
type Node struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Title      string            `json:"title,omitempty"`
	Department string            `json:"department,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Level      int               `json:"level,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
	Position   forest.Position   `json:"position"`
}

// Edge is the serialized form of a parent→child connection. The ID is
// derived from the endpoints; on import it is recomputed rather than
// trusted.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// FromForest converts a forest to its serialization format. Nodes and
// edges appear in insertion order, so output is deterministic.
func FromForest(f *forest.Forest) Chart {
	nodes := f.Nodes()
	edges := f.Edges()

	out := Chart{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = Node{
			ID:         n.ID,
			Name:       n.Employee.Name,
			Title:      n.Employee.Title,
			Department: n.Employee.Department,
			Email:      n.Employee.Email,
			Phone:      n.Employee.Phone,
			Level:      n.Employee.Level,
			Extra:      n.Employee.Extra,
			Position:   n.Position,
		}
	}
	for i, e := range edges {
		out.Edges[i] = Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}
	return out
}

// ToForest converts a chart document to a forest, validating the whole
// document first. Returns an INVALID_CHART error (with the offending
// node or edge named) for duplicate IDs, dangling edges, second parents,
// or cycles; on error no forest is returned, so a failed import can
// never leave partial state behind.
func ToForest(c Chart) (*forest.Forest, error) {
	f := forest.New()

	for _, n := range c.Nodes {
		if err := apperrors.ValidateNodeID(n.ID); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidChart, err, "node %q", n.ID)
		}
		node := forest.Node{
			ID: n.ID,
			Employee: forest.Employee{
				Name:       n.Name,
				Title:      n.Title,
				Department: n.Department,
				Email:      n.Email,
				Phone:      n.Phone,
				Level:      n.Level,
				Extra:      n.Extra,
			},
			Position: n.Position,
		}
		if err := f.Insert(node, ""); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidChart, err, "node %q", n.ID)
		}
	}

	for _, e := range c.Edges {
		if err := f.AddEdge(e.Source, e.Target); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidChart, err, "edge %s→%s", e.Source, e.Target)
		}
	}

	return f, nil
}
