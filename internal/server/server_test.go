package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/forest"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	f := forest.New()
	nodes := []struct {
		id, parent string
		emp        forest.Employee
	}{
		{"ceo", "", forest.Employee{Name: "Ada", Title: "CEO", Department: "Executive", Level: 1}},
		{"cto", "ceo", forest.Employee{Name: "Grace", Title: "CTO", Department: "Engineering", Level: 2}},
		{"eng", "cto", forest.Employee{Name: "Edsger", Title: "Engineer", Department: "Engineering", Level: 3}},
	}
	for _, n := range nodes {
		if err := f.Insert(forest.Node{ID: n.id, Employee: n.emp}, n.parent); err != nil {
			t.Fatalf("Insert(%s): %v", n.id, err)
		}
	}
	s := New(f, Config{Logger: log.NewWithOptions(io.Discard, log.Options{})})
	return s, s.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestGetChart(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/chart", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[chartResponse](t, rec)
	if len(resp.Nodes) != 3 || len(resp.Edges) != 2 {
		t.Errorf("chart = %d nodes / %d edges", len(resp.Nodes), len(resp.Edges))
	}
	// Positions come from the construction-time layout pass.
	if resp.Nodes[0].Position.Y == resp.Nodes[1].Position.Y {
		t.Error("parent and child share a row, relayout missing")
	}
	if resp.Bounds.Width() <= 0 {
		t.Errorf("bounds = %+v", resp.Bounds)
	}
}

func TestGetChartFiltered(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/chart?departments=Engineering", nil)
	resp := decode[chartResponse](t, rec)

	if len(resp.Nodes) != 2 {
		t.Errorf("filtered chart = %d nodes, want 2", len(resp.Nodes))
	}
	for _, n := range resp.Nodes {
		if n.Department != "Engineering" {
			t.Errorf("leaked node %s (%s)", n.ID, n.Department)
		}
	}
}

func TestInsertNode(t *testing.T) {
	s, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"id":        "cfo",
		"parent_id": "ceo",
		"employee":  map[string]any{"name": "Alan", "title": "CFO", "level": 2},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if s.f.NodeCount() != 4 {
		t.Errorf("NodeCount = %d", s.f.NodeCount())
	}
	// Structural mutation relayouts synchronously.
	n, _ := s.f.Node("cfo")
	if n.Position == (forest.Position{}) {
		t.Error("inserted node has no position, observer relayout missing")
	}
}

func TestInsertMintsUUID(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"employee": map[string]any{"name": "Nameless"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		ID    string `json:"id"`
		Level int    `json:"level"`
	}](t, rec)
	if len(created.ID) != 36 {
		t.Errorf("minted ID = %q, want a UUID", created.ID)
	}
	if created.Level != 1 {
		t.Errorf("defaulted level = %d, want 1", created.Level)
	}
}

func TestInsertDuplicateConflict(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"id":       "ceo",
		"employee": map[string]any{"name": "Clone"},
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	body := decode[errorBody](t, rec)
	if body.Error.Code != "DUPLICATE_NODE" {
		t.Errorf("error code = %q", body.Error.Code)
	}
	if body.Error.Message == "" {
		t.Error("error envelope missing message")
	}
}

func TestInsertUnknownParent(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"id":        "x",
		"parent_id": "ghost",
		"employee":  map[string]any{"name": "X"},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "NODE_NOT_FOUND" {
		t.Errorf("error code = %q", body.Error.Code)
	}
}

func TestInsertInvalidLevel(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"id":       "x",
		"employee": map[string]any{"name": "X", "level": -2},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateNode(t *testing.T) {
	s, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPatch, "/nodes/eng", map[string]any{
		"title": "Staff Engineer",
	})

	resp := decode[appliedResponse](t, rec)
	if !resp.Applied {
		t.Error("existing node update should report applied")
	}
	n, _ := s.f.Node("eng")
	if n.Employee.Title != "Staff Engineer" {
		t.Errorf("Title = %q", n.Employee.Title)
	}
	if n.Employee.Name != "Edsger" {
		t.Error("partial update clobbered an untouched field")
	}
}

func TestUpdateMissingIsNoop(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPatch, "/nodes/ghost", map[string]any{"title": "X"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decode[appliedResponse](t, rec); resp.Applied {
		t.Error("missing node must report applied=false")
	}
}

func TestDeleteCascades(t *testing.T) {
	s, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodDelete, "/nodes/cto", nil)

	resp := decode[appliedResponse](t, rec)
	if !resp.Applied || resp.Removed != 2 {
		t.Errorf("delete = %+v, want applied with 2 removed", resp)
	}
	if s.f.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", s.f.NodeCount())
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodDelete, "/nodes/ghost", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[appliedResponse](t, rec)
	if resp.Applied || resp.Removed != 0 {
		t.Errorf("delete ghost = %+v", resp)
	}
}

func TestCollapseToggle(t *testing.T) {
	s, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/nodes/cto/collapse", nil)
	resp := decode[collapseResponse](t, rec)
	if !resp.Applied || !resp.Collapsed {
		t.Errorf("first toggle = %+v", resp)
	}
	if !s.f.IsCollapsed("cto") {
		t.Error("collapse not applied")
	}

	rec = doJSON(t, h, http.MethodPost, "/nodes/cto/collapse", nil)
	if resp = decode[collapseResponse](t, rec); resp.Collapsed {
		t.Error("second toggle should expand")
	}

	rec = doJSON(t, h, http.MethodPost, "/nodes/ghost/collapse", nil)
	if resp = decode[collapseResponse](t, rec); resp.Applied {
		t.Error("toggling a missing node must report applied=false")
	}
}

func TestReplaceAndSwap(t *testing.T) {
	s, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/ops/replace", map[string]string{
		"source_id": "eng", "target_id": "cto",
	})
	if resp := decode[appliedResponse](t, rec); !resp.Applied {
		t.Error("replace with valid IDs should apply")
	}
	n, _ := s.f.Node("cto")
	if n.Employee.Name != "Edsger" {
		t.Errorf("target payload = %q", n.Employee.Name)
	}
	src, _ := s.f.Node("eng")
	if !src.Employee.IsVacant() {
		t.Error("source should be left vacant")
	}

	rec = doJSON(t, h, http.MethodPost, "/ops/swap", map[string]string{"a": "ceo", "b": "cto"})
	if resp := decode[appliedResponse](t, rec); !resp.Applied {
		t.Error("swap with valid IDs should apply")
	}

	rec = doJSON(t, h, http.MethodPost, "/ops/swap", map[string]string{"a": "ceo", "b": "ghost"})
	if resp := decode[appliedResponse](t, rec); resp.Applied {
		t.Error("swap with a missing ID must report applied=false")
	}
}

func TestLayoutEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/layout", map[string]float64{
		"h_spacing": 100, "v_spacing": 50, "top_margin": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[layoutResponse](t, rec)
	if len(resp.Positions) != 3 {
		t.Errorf("positions = %v", resp.Positions)
	}
	if resp.Positions["ceo"].Y != 10 {
		t.Errorf("override ignored: ceo.Y = %v", resp.Positions["ceo"].Y)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/search?q=engineering", nil)
	resp := decode[searchResponse](t, rec)
	if len(resp.IDs) != 2 {
		t.Errorf("search ids = %v", resp.IDs)
	}

	rec = doJSON(t, h, http.MethodGet, "/search", nil)
	if resp = decode[searchResponse](t, rec); len(resp.IDs) != 0 {
		t.Errorf("empty query ids = %v, want none", resp.IDs)
	}
}

func TestExportFormats(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/export", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("default export Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"Grace"`) {
		t.Error("json export missing node payload")
	}

	rec = doJSON(t, h, http.MethodGet, "/export?format=dot", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("dot export Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"ceo" -> "cto"`) {
		t.Errorf("dot export:\n%s", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/export?format=gif", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestImportReplacesChart(t *testing.T) {
	s, h := newTestServer(t)
	doc := `{"nodes": [{"id": "solo", "name": "Solo", "level": 1}], "edges": []}`

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[importResponse](t, rec)
	if resp.Nodes != 1 || resp.Edges != 0 {
		t.Errorf("import counts = %+v", resp)
	}
	if s.f.NodeCount() != 1 {
		t.Errorf("NodeCount after import = %d", s.f.NodeCount())
	}

	// The new forest is wired into the relayout observer.
	rec = doJSON(t, h, http.MethodPost, "/nodes", map[string]any{
		"id": "second", "parent_id": "solo",
		"employee": map[string]any{"name": "Second"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert after import = %d", rec.Code)
	}
	n, _ := s.f.Node("second")
	if n.Position == (forest.Position{}) {
		t.Error("imported forest lost the relayout observer")
	}
}

func TestImportRejectsMalformedWholesale(t *testing.T) {
	s, h := newTestServer(t)
	bad := `{"nodes": [{"id": "a"}, {"id": "a"}], "edges": []}`

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(bad))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "INVALID_CHART" {
		t.Errorf("error code = %q", body.Error.Code)
	}
	if s.f.NodeCount() != 3 {
		t.Error("failed import must leave the chart untouched")
	}
}

func TestAnalyzeUnconfigured(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/analyze", map[string]string{"instruction": "summarize"})

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "UNSUPPORTED" {
		t.Errorf("error code = %q", body.Error.Code)
	}
}
