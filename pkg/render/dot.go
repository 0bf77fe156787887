package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds operator attributes to node labels.
	Detailed bool

	// Tensors labels edges with the tensor names they carry.
	Tensors bool

	// Highlight lists operator types to fill with a highlight colour,
	// for example the ops an optimizer run changed.
	Highlight []string
}

// maxAttrLen caps the length of a rendered attribute value; const tensors
// can carry thousands of numbers.
const maxAttrLen = 40

// ToDOT converts g to Graphviz DOT source for a top-to-bottom data-flow
// diagram. The result can be rendered with [RenderSVG].
func ToDOT(g *ir.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, in := range g.Inputs() {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=lightblue];\n", inputID(in), in)
	}
	for _, n := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
		if slices.Contains(opts.Highlight, n.Op) {
			attrs = append(attrs, "fillcolor=gold")
		}
		if n.Op == "Const" {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	for _, out := range g.Outputs() {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=palegreen];\n", outputID(out), out)
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, in := range n.Inputs {
			if in == "" {
				continue
			}
			if from := source(g, in); from != "" {
				writeEdge(&buf, from, n.ID, in, opts.Tensors)
			}
		}
	}
	for _, out := range g.Outputs() {
		if from := source(g, out); from != "" {
			writeEdge(&buf, from, outputID(out), out, opts.Tensors)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inputID(name string) string  { return "input:" + name }
func outputID(name string) string { return "output:" + name }

// source returns the DOT node feeding tensor, or "" if nothing does.
func source(g *ir.Graph, tensor string) string {
	if p := g.Producer(tensor); p != nil {
		return p.ID
	}
	if g.IsInput(tensor) {
		return inputID(tensor)
	}
	return ""
}

func writeEdge(buf *bytes.Buffer, from, to, tensor string, label bool) {
	if label {
		fmt.Fprintf(buf, "  %q -> %q [label=%q];\n", from, to, tensor)
		return
	}
	fmt.Fprintf(buf, "  %q -> %q;\n", from, to)
}

func fmtLabel(n *ir.Node, detailed bool) string {
	label := n.ID + "\n" + n.Op
	if n.ID == n.Op {
		label = n.Op
	}
	if !detailed || len(n.Attrs) == 0 {
		return label
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprintf("%v", n.Attrs[k])
		if len(v) > maxAttrLen {
			v = v[:maxAttrLen-3] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return label + "\n" + strings.Join(parts, "\n")
}
