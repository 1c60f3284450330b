// Package render turns an org chart into visual outputs.
//
// The pipeline is DOT first, pixels second: [ToDOT] serializes the
// visible forest as a Graphviz digraph, [RenderSVG] rasterizes it with
// the embedded Graphviz engine, and [ToPDF]/[ToPNG] convert the SVG
// using the external rsvg-convert tool (from librsvg).
//
//	dot := render.ToDOT(f, flt, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(dot)
//	png, err := render.ToPNG(svg, 2.0) // 2x scale
//
// Rendering consumes the forest read-only; positions computed by the
// layout engine are not used here because Graphviz does its own
// hierarchical placement for static exports.
package render
