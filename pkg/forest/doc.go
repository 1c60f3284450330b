// Package forest implements the in-memory org chart: a single-parent
// forest of employee nodes with ordered parent→child edges, the structural
// mutation operations that edit it, and the derived visibility index
// (collapse state, free-text search, department filters).
//
// # Structure
//
// A Forest holds nodes in a map keyed by ID plus an insertion-order slice
// for deterministic iteration, and edges as adjacency lists (children in
// edge insertion order, at most one parent per node). Multiple roots are
// allowed; multiple parents and cycles are rejected at mutation time.
//
// # Mutations
//
// All edits go through the Forest's operation set. Mutations referencing
// unknown IDs are silent no-ops; invariant violations (duplicate ID,
// second parent, cycle) return sentinel errors. Every successful mutation
// emits an Event synchronously to subscribers registered with Subscribe,
// so callers can trigger a relayout without timers or polling.
//
// # Visibility
//
// Visible node and edge sets are derived on demand, never stored: all
// nodes minus the descendants of every collapsed node, intersected with
// any active search query or department filter. An edge is visible only
// when both endpoints are.
//
// The Forest is not safe for concurrent use; callers that share one
// across goroutines (e.g. an HTTP server) must serialize access.
package forest
