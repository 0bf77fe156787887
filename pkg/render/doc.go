// Package render draws operator graphs as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] converts a graph to DOT source. Operator nodes are drawn as
// rounded boxes labelled with the node ID and operator type; graph inputs
// and outputs are drawn as ellipses. Edges run from producer to consumer and
// may be labelled with the tensor name.
//
//	dot := render.ToDOT(g, render.Options{Tensors: true})
//	svg, err := render.RenderSVG(dot)
//
// [RenderSVG] uses the embedded Graphviz from go-graphviz and needs no
// external tools. [ToPDF] and [ToPNG] convert SVG with rsvg-convert (from
// librsvg), which must be installed separately.
//
// # Determinism
//
// DOT output depends only on the graph: nodes appear in graph order,
// attributes are sorted by key, and edges follow node inputs in operand
// order. Rendering the same graph twice yields identical text.
package render
