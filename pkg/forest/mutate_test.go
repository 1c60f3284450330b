package forest

import (
	"slices"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDeleteCascades(t *testing.T) {
	f := buildTree(t)

	removed := f.Delete("cto")
	if removed != 3 {
		t.Errorf("Delete(cto) removed %d nodes, want 3", removed)
	}
	if got := f.NodeCount(); got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
	if got := f.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1 (ceo→cfo)", got)
	}
	for _, id := range []string{"cto", "eng1", "eng2"} {
		if _, ok := f.Node(id); ok {
			t.Errorf("node %s should be gone", id)
		}
	}
	if got := f.Children("ceo"); !slices.Equal(got, []string{"cfo"}) {
		t.Errorf("Children(ceo) = %v, want [cfo]", got)
	}
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	f := buildTree(t)
	if removed := f.Delete("nope"); removed != 0 {
		t.Errorf("Delete(nope) = %d, want 0", removed)
	}
	if got := f.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	f := buildTree(t)

	f.Update("eng1", Partial{
		Title: strPtr("Senior Engineer"),
		Level: intPtr(4),
		Extra: map[string]string{"office": "Eindhoven"},
	})

	n, _ := f.Node("eng1")
	if n.Employee.Title != "Senior Engineer" {
		t.Errorf("Title = %q", n.Employee.Title)
	}
	if n.Employee.Level != 4 {
		t.Errorf("Level = %d", n.Employee.Level)
	}
	if n.Employee.Name != "Edsger" {
		t.Errorf("untouched field changed: Name = %q", n.Employee.Name)
	}
	if n.Employee.Extra["office"] != "Eindhoven" {
		t.Errorf("Extra = %v", n.Employee.Extra)
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	f := buildTree(t)
	f.Update("nope", Partial{Name: strPtr("Ghost")})
	if got := f.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
}

func TestReplaceDataLeavesVacantSlot(t *testing.T) {
	f := buildTree(t)

	f.ReplaceData("eng1", "cfo")

	dst, _ := f.Node("cfo")
	if dst.Employee.Name != "Edsger" {
		t.Errorf("target name = %q, want Edsger", dst.Employee.Name)
	}
	if dst.Employee.Level != 2 {
		t.Errorf("target level = %d, want slot level 2", dst.Employee.Level)
	}

	src, _ := f.Node("eng1")
	if !src.Employee.IsVacant() {
		t.Errorf("source should be vacant, got %+v", src.Employee)
	}
	if src.Employee.Level != 3 {
		t.Errorf("vacant slot level = %d, want 3", src.Employee.Level)
	}

	// Structure untouched.
	if p, _ := f.Parent("eng1"); p != "cto" {
		t.Errorf("eng1 parent = %q, structure must not change", p)
	}
}

func TestSwapDataIsSelfInverse(t *testing.T) {
	f := buildTree(t)
	before1, _ := f.Node("eng1")
	before2, _ := f.Node("cfo")
	emp1, emp2 := before1.Employee, before2.Employee

	f.SwapData("eng1", "cfo")

	after1, _ := f.Node("eng1")
	if after1.Employee.Name != "Alan" {
		t.Errorf("eng1 name after swap = %q, want Alan", after1.Employee.Name)
	}
	if after1.Employee.Level != 3 {
		t.Errorf("eng1 level after swap = %d, levels stay with the slot", after1.Employee.Level)
	}

	f.SwapData("eng1", "cfo")

	restored1, _ := f.Node("eng1")
	restored2, _ := f.Node("cfo")
	if restored1.Employee.Name != emp1.Name || restored1.Employee.Level != emp1.Level {
		t.Errorf("double swap did not restore eng1: %+v", restored1.Employee)
	}
	if restored2.Employee.Name != emp2.Name || restored2.Employee.Level != emp2.Level {
		t.Errorf("double swap did not restore cfo: %+v", restored2.Employee)
	}
}

func TestReplaceAndSwapMissingIDsAreNoops(t *testing.T) {
	f := buildTree(t)

	f.ReplaceData("nope", "cfo")
	f.ReplaceData("cfo", "nope")
	f.SwapData("nope", "cfo")
	f.SwapData("cfo", "cfo")

	n, _ := f.Node("cfo")
	if n.Employee.Name != "Alan" {
		t.Errorf("cfo changed by no-op operations: %+v", n.Employee)
	}
}

func TestObserverEvents(t *testing.T) {
	f := New()
	var events []Event
	f.Subscribe(func(e Event) { events = append(events, e) })

	if err := f.Insert(Node{ID: "a"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := f.Insert(Node{ID: "b"}, "a"); err != nil {
		t.Fatal(err)
	}
	f.Update("b", Partial{Name: strPtr("Bea")})
	f.ToggleCollapse("a")
	f.Delete("a")

	wantOps := []Op{OpInsert, OpInsert, OpUpdate, OpCollapse, OpDelete}
	if len(events) != len(wantOps) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantOps), events)
	}
	for i, want := range wantOps {
		if events[i].Op != want {
			t.Errorf("event %d op = %s, want %s", i, events[i].Op, want)
		}
	}

	if events[2].Structural {
		t.Error("update must be non-structural")
	}
	if !events[3].Structural {
		t.Error("collapse must be structural")
	}
	if got := events[4].IDs; !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("delete event IDs = %v, want sorted [a b]", got)
	}
}

func TestFailedMutationsEmitNothing(t *testing.T) {
	f := buildTree(t)
	var events []Event
	f.Subscribe(func(e Event) { events = append(events, e) })

	_ = f.Insert(Node{ID: "ceo"}, "")
	_ = f.AddEdge("cfo", "eng1")
	f.Delete("nope")
	f.Update("nope", Partial{})
	f.ToggleCollapse("nope")

	if len(events) != 0 {
		t.Errorf("no-ops and failures emitted %d events: %+v", len(events), events)
	}
}

func TestVacantSentinel(t *testing.T) {
	v := Vacant(4)
	if !v.IsVacant() {
		t.Error("Vacant payload should report IsVacant")
	}
	if v.Level != 4 {
		t.Errorf("Level = %d, want 4", v.Level)
	}
	if v.Title != VacantTitle || v.Department != VacantDepartment {
		t.Errorf("sentinel fields = %q/%q", v.Title, v.Department)
	}

	filled := Employee{Name: "Ada", Title: VacantTitle}
	if filled.IsVacant() {
		t.Error("named employee is not vacant even with the placeholder title")
	}
}
