// Package analysis serializes the visible org chart into a compact
// snapshot and sends it, together with a natural-language instruction,
// to an external text-generation service.
//
// The service is treated as opaque, fallible, and slow: every call is
// context-bounded, transient failures are retried with backoff, and any
// error surfaces as an EXTERNAL_* application error. Analysis never
// reads back into the forest - a failed or garbage response cannot
// corrupt chart state.
package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/forest"
)

// Snapshot is the serialized view of the visible chart handed to the
// text-generation service: aggregate distributions plus the hierarchy
// rendered as indented text.
type Snapshot struct {
	NodeCount   int            `json:"node_count"`
	EdgeCount   int            `json:"edge_count"`
	Departments map[string]int `json:"departments"`
	Levels      map[string]int `json:"levels"` // keyed by decimal level for stable JSON
	Hierarchy   string         `json:"hierarchy"`
}

// Take builds a snapshot of the nodes visible under the filter.
func Take(f *forest.Forest, flt forest.Filter) Snapshot {
	nodes := f.VisibleNodes(flt)
	edges := f.VisibleEdges(flt)

	snap := Snapshot{
		NodeCount:   len(nodes),
		EdgeCount:   len(edges),
		Departments: make(map[string]int),
		Levels:      make(map[string]int),
	}
	visible := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		visible[n.ID] = true
		dept := n.Employee.Department
		if dept == "" {
			dept = forest.VacantDepartment
		}
		snap.Departments[dept]++
		snap.Levels[strconv.Itoa(n.Employee.Level)]++
	}
	snap.Hierarchy = renderHierarchy(f, visible)
	return snap
}

// Hash returns the content hash of the snapshot's canonical JSON form,
// used as the cache key component for analysis responses.
func (s Snapshot) Hash() string {
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}

// Prompt renders the snapshot and instruction into the text sent to the
// generation service.
func (s Snapshot) Prompt(instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Org chart: %d employees, %d reporting lines.\n\n", s.NodeCount, s.EdgeCount)

	b.WriteString("Departments:\n")
	for _, dept := range sortedKeys(s.Departments) {
		fmt.Fprintf(&b, "  %s: %d\n", dept, s.Departments[dept])
	}

	b.WriteString("\nLevels:\n")
	for _, lvl := range sortedKeys(s.Levels) {
		fmt.Fprintf(&b, "  level %s: %d\n", lvl, s.Levels[lvl])
	}

	b.WriteString("\nHierarchy:\n")
	b.WriteString(s.Hierarchy)
	b.WriteString("\n")
	b.WriteString(instruction)
	return b.String()
}

// renderHierarchy renders the visible forest as indented text, one node
// per line, children indented under parents. Traversal is bounded by a
// visited set.
func renderHierarchy(f *forest.Forest, visible map[string]bool) string {
	var b strings.Builder
	seen := make(map[string]bool)

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, ok := f.Node(id)
		if !ok {
			return
		}
		name := n.Employee.Name
		if name == "" {
			name = "(vacant)"
		}
		fmt.Fprintf(&b, "%s%s - %s, %s\n", strings.Repeat("  ", depth), name, n.Employee.Title, n.Employee.Department)
		for _, c := range f.Children(id) {
			if visible[c] {
				walk(c, depth+1)
			}
		}
	}

	for _, n := range f.Nodes() {
		if !visible[n.ID] {
			continue
		}
		if p, ok := f.Parent(n.ID); !ok || !visible[p] {
			walk(n.ID, 0)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
