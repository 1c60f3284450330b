package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/orgtree/pkg/analysis"
	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
	"github.com/matzehuels/orgtree/pkg/render"

	apperrors "github.com/matzehuels/orgtree/pkg/errors"
)

// filterFromQuery builds the visibility filter from request parameters.
// "departments" is a comma-separated list; an absent parameter means no
// department filtering.
func filterFromQuery(r *http.Request) forest.Filter {
	flt := forest.Filter{Query: r.URL.Query().Get("q")}
	if deps := r.URL.Query().Get("departments"); deps != "" {
		for _, d := range strings.Split(deps, ",") {
			if d = strings.TrimSpace(d); d != "" {
				flt.Departments = append(flt.Departments, d)
			}
		}
	}
	return flt
}

func toChartNode(n *forest.Node) chart.Node {
	return chart.Node{
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

type chartResponse struct {
	Nodes     []chart.Node `json:"nodes"`
	Edges     []chart.Edge `json:"edges"`
	Collapsed []string     `json:"collapsed"`
	Bounds    layout.Rect  `json:"bounds"`
}

// handleChart returns the visible view of the chart: nodes, edges,
// collapse state, and the bounding box of the current positions.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	flt := filterFromQuery(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.f.VisibleNodes(flt)
	edges := s.f.VisibleEdges(flt)

	resp := chartResponse{
		Nodes:     make([]chart.Node, len(nodes)),
		Edges:     make([]chart.Edge, len(edges)),
		Collapsed: s.f.Collapsed(),
	}
	positions := make(map[string]forest.Position, len(nodes))
	for i, n := range nodes {
		resp.Nodes[i] = toChartNode(n)
		positions[n.ID] = n.Position
	}
	for i, e := range edges {
		resp.Edges[i] = chart.Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}
	resp.Bounds = layout.Bounds(positions, s.layout)

	writeJSON(w, http.StatusOK, resp)
}

type insertRequest struct {
	ID       string          `json:"id,omitempty"`
	ParentID string          `json:"parent_id,omitempty"`
	Employee forest.Employee `json:"employee"`
}

// handleInsert creates a node, minting a UUID when no ID is supplied.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := apperrors.ValidateNodeID(req.ID); err != nil {
		writeError(w, err)
		return
	}
	if req.Employee.Level == 0 {
		req.Employee.Level = 1
	}
	if err := apperrors.ValidateLevel(req.Employee.Level); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := forest.Node{ID: req.ID, Employee: req.Employee}
	if err := s.f.Insert(node, req.ParentID); err != nil {
		writeError(w, mutationError(err))
		return
	}
	n, _ := s.f.Node(req.ID)
	writeJSON(w, http.StatusCreated, toChartNode(n))
}

type appliedResponse struct {
	Applied bool `json:"applied"`
	Removed int  `json:"removed,omitempty"`
}

// handleUpdate merges a partial payload into a node. A missing ID is a
// no-op, reported as applied=false rather than an error.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p forest.Partial
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if p.Level != nil {
		if err := apperrors.ValidateLevel(*p.Level); err != nil {
			writeError(w, err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.f.Node(id)
	s.f.Update(id, p)
	writeJSON(w, http.StatusOK, appliedResponse{Applied: exists})
}

// handleDelete removes a node and its subtree. A missing ID is a no-op.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.f.Delete(id)
	writeJSON(w, http.StatusOK, appliedResponse{Applied: removed > 0, Removed: removed})
}

type collapseResponse struct {
	Applied   bool `json:"applied"`
	Collapsed bool `json:"collapsed"`
}

// handleCollapse toggles a node's collapse state.
func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.f.Node(id)
	collapsed := s.f.ToggleCollapse(id)
	writeJSON(w, http.StatusOK, collapseResponse{Applied: exists, Collapsed: collapsed})
}

type replaceRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// handleReplace moves the source payload onto the target slot and leaves
// the source vacant. Missing IDs are a no-op.
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, srcOK := s.f.Node(req.SourceID)
	_, dstOK := s.f.Node(req.TargetID)
	s.f.ReplaceData(req.SourceID, req.TargetID)
	writeJSON(w, http.StatusOK, appliedResponse{
		Applied: srcOK && dstOK && req.SourceID != req.TargetID,
	})
}

type swapRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// handleSwap exchanges two nodes' payloads. Missing IDs are a no-op.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, aOK := s.f.Node(req.A)
	_, bOK := s.f.Node(req.B)
	s.f.SwapData(req.A, req.B)
	writeJSON(w, http.StatusOK, appliedResponse{
		Applied: aOK && bOK && req.A != req.B,
	})
}

type layoutRequest struct {
	HSpacing  float64 `json:"h_spacing,omitempty"`
	VSpacing  float64 `json:"v_spacing,omitempty"`
	TopMargin float64 `json:"top_margin,omitempty"`
}

type layoutResponse struct {
	Positions map[string]forest.Position `json:"positions"`
	Bounds    layout.Rect                `json:"bounds"`
}

// handleLayout runs an explicit layout pass, optionally with spacing
// overrides, and returns the computed positions.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	cfg := s.layout
	if r.ContentLength != 0 {
		var req layoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
			return
		}
		if req.HSpacing > 0 {
			cfg.HSpacing = req.HSpacing
		}
		if req.VSpacing > 0 {
			cfg.VSpacing = req.VSpacing
		}
		if req.TopMargin > 0 {
			cfg.TopMargin = req.TopMargin
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positions := layout.Compute(s.f, forest.Filter{}, cfg)
	layout.Apply(s.f, positions)
	writeJSON(w, http.StatusOK, layoutResponse{
		Positions: positions,
		Bounds:    layout.Bounds(positions, cfg),
	})
}

type searchResponse struct {
	IDs   []string     `json:"ids"`
	Nodes []chart.Node `json:"nodes"`
}

// handleSearch returns the nodes matching the query, independent of
// collapse state. An empty query matches nothing.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := s.f.Search(q)
	resp := searchResponse{IDs: make([]string, 0, len(matches))}
	for _, n := range s.f.Nodes() {
		if matches[n.ID] {
			resp.IDs = append(resp.IDs, n.ID)
			resp.Nodes = append(resp.Nodes, toChartNode(n))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport writes the chart in the requested format: json (default),
// dot, or svg. The dot and svg exports honor the same visibility
// parameters as GET /chart.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	flt := filterFromQuery(r)
	detailed := r.URL.Query().Get("detailed") == "true"

	s.mu.Lock()
	switch format {
	case "json":
		data, err := chart.Marshal(s.f)
		s.mu.Unlock()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case "dot":
		dot := render.ToDOT(s.f, flt, render.Options{Detailed: detailed})
		s.mu.Unlock()
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "svg":
		dot := render.ToDOT(s.f, flt, render.Options{Detailed: detailed})
		s.mu.Unlock()
		svg, err := render.RenderSVG(dot)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.mu.Unlock()
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg)", format))
	}
}

type importResponse struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// handleImport replaces the entire chart with the posted document. The
// document is validated wholesale before the swap, so a malformed import
// leaves the current chart untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := chart.Read(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.f = f
	s.watch(f)
	s.relayout()
	writeJSON(w, http.StatusOK, importResponse{
		Nodes: f.NodeCount(),
		Edges: f.EdgeCount(),
	})
}

type analyzeRequest struct {
	Instruction string   `json:"instruction"`
	Query       string   `json:"query,omitempty"`
	Departments []string `json:"departments,omitempty"`
}

type analyzeResponse struct {
	Text string `json:"text"`
}

// handleAnalyze snapshots the visible chart and asks the external
// text-generation service about it. The forest lock is released before
// the outbound call so slow analysis never blocks mutations.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "analysis is not configured"))
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	s.mu.Lock()
	snap := analysis.Take(s.f, forest.Filter{Query: req.Query, Departments: req.Departments})
	s.mu.Unlock()

	text, err := s.analyzer.Analyze(r.Context(), snap, req.Instruction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Text: text})
}
