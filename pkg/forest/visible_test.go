package forest

import (
	"testing"
)

func TestSearchMatchesAllFields(t *testing.T) {
	f := buildTree(t)
	f.Update("eng1", Partial{Email: strPtr("edsger@example.com"), Phone: strPtr("+31 40 123")})

	tests := []struct {
		query string
		want  []string
	}{
		{"CTO", []string{"cto"}},
		{"grace", []string{"cto"}},
		{"engineer", []string{"eng1", "eng2"}},
		{"engineering", []string{"cto", "eng1", "eng2"}},
		{"edsger@", []string{"eng1"}},
		{"40 123", []string{"eng1"}},
		{"nobody", nil},
		{"", nil}, // empty query matches nothing, not everything
	}
	for _, tt := range tests {
		got := f.Search(tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for _, id := range tt.want {
			if !got[id] {
				t.Errorf("Search(%q) missing %s", tt.query, id)
			}
		}
	}
}

func TestFilterEmptySemanticsAsymmetry(t *testing.T) {
	f := buildTree(t)

	// Empty filter: everything is visible.
	if got := len(f.VisibleIDs(Filter{})); got != 5 {
		t.Errorf("empty filter: %d visible, want 5", got)
	}

	// Empty department slice means no filter; a non-empty slice narrows.
	if got := len(f.VisibleIDs(Filter{Departments: nil})); got != 5 {
		t.Errorf("nil departments: %d visible, want 5", got)
	}
	got := f.VisibleIDs(Filter{Departments: []string{"Engineering"}})
	if len(got) != 3 || !got["cto"] || !got["eng1"] || !got["eng2"] {
		t.Errorf("Engineering filter = %v", got)
	}

	// An empty query is inactive as a filter even though Search("")
	// returns the empty set.
	if got := len(f.VisibleIDs(Filter{Query: ""})); got != 5 {
		t.Errorf("empty query filter: %d visible, want 5", got)
	}
	if got := len(f.VisibleIDs(Filter{Query: "zzz"})); got != 0 {
		t.Errorf("non-matching query: %d visible, want 0", got)
	}
}

func TestCollapseHidesDescendantsOnly(t *testing.T) {
	f := buildTree(t)
	f.ToggleCollapse("cto")

	visible := f.VisibleIDs(Filter{})
	if !visible["cto"] {
		t.Error("collapsed node itself stays visible")
	}
	for _, id := range []string{"eng1", "eng2"} {
		if visible[id] {
			t.Errorf("%s should be hidden under collapsed cto", id)
		}
	}
	if !visible["cfo"] {
		t.Error("sibling subtree must stay visible")
	}

	// Toggle back restores everything.
	f.ToggleCollapse("cto")
	if got := len(f.VisibleIDs(Filter{})); got != 5 {
		t.Errorf("after expand: %d visible, want 5", got)
	}
}

func TestFiltersIntersect(t *testing.T) {
	f := buildTree(t)
	f.ToggleCollapse("cto")

	// eng1 matches the query but is hidden by collapse.
	visible := f.VisibleIDs(Filter{Query: "Edsger"})
	if len(visible) != 0 {
		t.Errorf("collapse ∩ search = %v, want empty", visible)
	}

	// Query and departments intersect too.
	visible = f.VisibleIDs(Filter{Query: "Grace", Departments: []string{"Finance"}})
	if len(visible) != 0 {
		t.Errorf("disjoint query/department = %v, want empty", visible)
	}
}

func TestVisibleNodesInsertionOrder(t *testing.T) {
	f := buildTree(t)
	nodes := f.VisibleNodes(Filter{})
	want := []string{"ceo", "cto", "cfo", "eng1", "eng2"}
	if len(nodes) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(want))
	}
	for i, id := range want {
		if nodes[i].ID != id {
			t.Errorf("nodes[%d] = %s, want %s", i, nodes[i].ID, id)
		}
	}
}

func TestVisibleEdgesRequireBothEndpoints(t *testing.T) {
	f := buildTree(t)
	f.ToggleCollapse("cto")

	edges := f.VisibleEdges(Filter{})
	// ceo→cto and ceo→cfo survive; cto→eng* lose their targets.
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2: %+v", len(edges), edges)
	}
	for _, e := range edges {
		if e.Source != "ceo" {
			t.Errorf("unexpected edge %s→%s", e.Source, e.Target)
		}
	}
}
