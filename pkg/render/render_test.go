package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/matzehuels/graphopt/pkg/ir"
)

func sampleGraph(t *testing.T) *ir.Graph {
	t.Helper()
	g := ir.New("model")
	if err := g.AddInput("x"); err != nil {
		t.Fatal(err)
	}
	for _, n := range []ir.Node{
		{ID: "t1", Op: "Transpose", Inputs: []string{"x"}, Outputs: []string{"a"}, Attrs: ir.Attrs{"perm": []int64{1, 0}}},
		{ID: "relu", Op: "Relu", Inputs: []string{"a"}, Outputs: []string{"b"}},
		{ID: "add", Op: "Add", Inputs: []string{"b", "x"}, Outputs: []string{"y"}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	g.SetOutputs("y")
	return g
}

func TestToDOTGolden(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Detailed: true, Tensors: true, Highlight: []string{"Transpose"}})

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "detailed", []byte(dot))
}

func TestToDOTPlain(t *testing.T) {
	g := sampleGraph(t)
	if err := g.AddNode(ir.Node{ID: "k", Op: "Const", Outputs: []string{"k"},
		Attrs: ir.Attrs{"value": make([]float64, 100)}}); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, Options{})

	if strings.Contains(dot, "[label=\"a\"]") {
		t.Error("edges should not be labelled without Tensors")
	}
	if strings.Contains(dot, "perm") {
		t.Error("attributes should not appear without Detailed")
	}
	if !strings.Contains(dot, `"k" [label="k\nConst", style="rounded,filled,dashed", fillcolor=lightgrey];`) {
		t.Errorf("const node not styled:\n%s", dot)
	}
	if ToDOT(g, Options{}) != dot {
		t.Error("ToDOT() is not deterministic")
	}
}

func TestFmtLabelTruncates(t *testing.T) {
	n := &ir.Node{ID: "k", Op: "Const", Attrs: ir.Attrs{"value": make([]float64, 100)}}
	label := fmtLabel(n, true)
	line := label[strings.LastIndex(label, "\n")+1:]
	if len(line) > len("value: ")+maxAttrLen || !strings.HasSuffix(line, "...") {
		t.Errorf("attribute line = %q, want truncated", line)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleGraph(t), Options{Tensors: true}))
	if err != nil {
		t.Fatalf("RenderSVG() = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Transpose")) {
		t.Errorf("RenderSVG() output is not the expected SVG:\n%.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := normalizeViewBox(in)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if string(out) != want {
		t.Errorf("normalizeViewBox() = %s, want %s", out, want)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}
