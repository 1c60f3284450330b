package forest

import (
	"errors"
	"slices"
	"testing"
)

// buildTree inserts a small org:
//
//	ceo
//	├── cto
//	│   ├── eng1
//	│   └── eng2
//	└── cfo
func buildTree(t *testing.T) *Forest {
	t.Helper()
	f := New()
	nodes := []struct {
		id, parent string
		emp        Employee
	}{
		{"ceo", "", Employee{Name: "Ada", Title: "CEO", Department: "Executive", Level: 1}},
		{"cto", "ceo", Employee{Name: "Grace", Title: "CTO", Department: "Engineering", Level: 2}},
		{"cfo", "ceo", Employee{Name: "Alan", Title: "CFO", Department: "Finance", Level: 2}},
		{"eng1", "cto", Employee{Name: "Edsger", Title: "Engineer", Department: "Engineering", Level: 3}},
		{"eng2", "cto", Employee{Name: "Barbara", Title: "Engineer", Department: "Engineering", Level: 3}},
	}
	for _, n := range nodes {
		if err := f.Insert(Node{ID: n.id, Employee: n.emp}, n.parent); err != nil {
			t.Fatalf("Insert(%s): %v", n.id, err)
		}
	}
	return f
}

func TestInsertAndStructure(t *testing.T) {
	f := buildTree(t)

	if got := f.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
	if got := f.EdgeCount(); got != 4 {
		t.Errorf("EdgeCount = %d, want 4", got)
	}
	if got := f.Roots(); !slices.Equal(got, []string{"ceo"}) {
		t.Errorf("Roots = %v, want [ceo]", got)
	}
	if got := f.Children("cto"); !slices.Equal(got, []string{"eng1", "eng2"}) {
		t.Errorf("Children(cto) = %v, want [eng1 eng2]", got)
	}
	if p, ok := f.Parent("eng1"); !ok || p != "cto" {
		t.Errorf("Parent(eng1) = %q, %v", p, ok)
	}
	if _, ok := f.Parent("ceo"); ok {
		t.Error("root should have no parent")
	}
}

func TestInsertValidation(t *testing.T) {
	f := buildTree(t)

	if err := f.Insert(Node{ID: ""}, ""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want ErrInvalidNodeID", err)
	}
	if err := f.Insert(Node{ID: "ceo"}, ""); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate ID: got %v, want ErrDuplicateNodeID", err)
	}
	if err := f.Insert(Node{ID: "x"}, "nope"); !errors.Is(err, ErrUnknownParentNode) {
		t.Errorf("unknown parent: got %v, want ErrUnknownParentNode", err)
	}
	if got := f.NodeCount(); got != 5 {
		t.Errorf("failed inserts must not change the forest, NodeCount = %d", got)
	}
}

func TestAddEdgeRejectsSecondParent(t *testing.T) {
	f := buildTree(t)

	if err := f.AddEdge("cfo", "eng1"); !errors.Is(err, ErrNodeHasParent) {
		t.Errorf("second parent: got %v, want ErrNodeHasParent", err)
	}
	if got := f.EdgeCount(); got != 4 {
		t.Errorf("rejected edge must not be stored, EdgeCount = %d", got)
	}
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	f := buildTree(t)

	// eng1 -> ceo would make ceo its own ancestor.
	if err := f.AddEdge("eng1", "ceo"); !errors.Is(err, ErrWouldCycle) {
		t.Errorf("cycle: got %v, want ErrWouldCycle", err)
	}
	if err := f.AddEdge("ceo", "ceo"); !errors.Is(err, ErrWouldCycle) {
		t.Errorf("self edge: got %v, want ErrWouldCycle", err)
	}
}

func TestAddEdgeUnknownEndpoints(t *testing.T) {
	f := buildTree(t)

	if err := f.AddEdge("nope", "eng1"); !errors.Is(err, ErrUnknownParentNode) {
		t.Errorf("unknown parent: got %v", err)
	}
	if err := f.AddEdge("ceo", "nope"); !errors.Is(err, ErrUnknownChildNode) {
		t.Errorf("unknown child: got %v", err)
	}
}

func TestDescendants(t *testing.T) {
	f := buildTree(t)

	got := f.Descendants("cto")
	want := map[string]bool{"eng1": true, "eng2": true}
	if len(got) != len(want) {
		t.Fatalf("Descendants(cto) = %v, want %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("Descendants(cto) missing %s", id)
		}
	}
	if got["cto"] {
		t.Error("node must not be its own descendant")
	}
}

func TestDepth(t *testing.T) {
	f := buildTree(t)

	tests := []struct {
		id   string
		want int
	}{
		{"ceo", 0},
		{"cto", 1},
		{"eng1", 2},
		{"nope", -1},
	}
	for _, tt := range tests {
		if got := f.Depth(tt.id); got != tt.want {
			t.Errorf("Depth(%s) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestMultipleRootsInsertionOrder(t *testing.T) {
	f := New()
	for _, id := range []string{"b-root", "a-root", "c-root"} {
		if err := f.Insert(Node{ID: id}, ""); err != nil {
			t.Fatal(err)
		}
	}
	// Insertion order, not lexical order.
	if got := f.Roots(); !slices.Equal(got, []string{"b-root", "a-root", "c-root"}) {
		t.Errorf("Roots = %v, want insertion order", got)
	}
}

func TestCollapsedFiltersOrphans(t *testing.T) {
	f := buildTree(t)
	f.ToggleCollapse("cto")
	f.Delete("cto")

	if got := f.Collapsed(); len(got) != 0 {
		t.Errorf("Collapsed after delete = %v, want empty view", got)
	}
	// The stale entry survives internally: a reused ID starts out
	// collapsed again.
	if err := f.Insert(Node{ID: "cto"}, "ceo"); err != nil {
		t.Fatal(err)
	}
	if !f.IsCollapsed("cto") {
		t.Error("reused ID should pick up the surviving collapse entry")
	}
}
