// Package layout computes non-overlapping 2D positions for the visible
// nodes of an org chart forest using a tidy-tree pass: a bottom-up width
// pass measured in slot units, then a top-down position pass that centers
// each parent over its subtree span.
//
// The computation is global and idempotent - positions are a pure
// function of forest structure, collapse state, and the active filter.
// Running it twice without a structural change yields identical output.
//
// Spacing constants are sized so rendered cards (about 240 units wide)
// never collide at any fan-out, and the vertical gap is large enough that
// orthogonal down-across-down connectors never double back.
package layout
