package transform

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// OpConst is the operator type of constant nodes. A Const node carries its
// value in the "value" attribute (flat, row-major) and its dimensions in the
// "shape" attribute. A missing shape means a scalar.
const OpConst = "Const"

type tensor struct {
	shape []int64
	data  []float64
}

func (t tensor) size() int64 { return numel(t.shape) }

func numel(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

func constTensor(n *ir.Node) (tensor, error) {
	data, err := n.Attrs.Floats("value")
	if err != nil {
		return tensor{}, fmt.Errorf("const %s: %w", n.ID, err)
	}
	var shape []int64
	if n.Attrs.Has("shape") {
		if shape, err = n.Attrs.Ints("shape"); err != nil {
			return tensor{}, fmt.Errorf("const %s: %w", n.ID, err)
		}
	}
	for _, d := range shape {
		if d < 0 {
			return tensor{}, fmt.Errorf("const %s: negative dimension in shape %v: %w", n.ID, shape, ErrMalformedNode)
		}
	}
	t := tensor{shape: shape, data: data}
	if t.size() != int64(len(data)) {
		return tensor{}, fmt.Errorf("const %s: shape %v holds %d values, got %d: %w",
			n.ID, shape, t.size(), len(data), ErrMalformedNode)
	}
	return t, nil
}

// folder computes a node's output from constant inputs. ok is false when the
// node cannot be folded (for example, unsupported broadcasting); that is not
// an error.
type folder func(n *ir.Node, in []tensor) (out tensor, ok bool, err error)

var folders = map[string]folder{
	"Identity":  foldIdentity,
	"Cast":      foldCast,
	"Transpose": foldTranspose,
	"Unsqueeze": foldUnsqueeze,
	"Squeeze":   foldSqueeze,
	"Reshape":   foldReshape,
	"Add":       foldBinary(func(a, b float64) float64 { return a + b }),
	"Mul":       foldBinary(func(a, b float64) float64 { return a * b }),
}

// ConstFoldOptimizer evaluates nodes whose inputs are all constants and
// replaces each with a Const node producing the same tensor. Constants that
// end up without consumers are removed unless they are graph outputs.
type ConstFoldOptimizer struct {
	folded  int
	dropped int
}

// NewConstFoldOptimizer returns a fresh optimizer.
func NewConstFoldOptimizer() *ConstFoldOptimizer { return &ConstFoldOptimizer{} }

// Folded returns the number of nodes replaced by constants.
func (o *ConstFoldOptimizer) Folded() int { return o.folded }

// Dropped returns the number of unused constants removed.
func (o *ConstFoldOptimizer) Dropped() int { return o.dropped }

// Optimize folds constants in g and returns g.
func (o *ConstFoldOptimizer) Optimize(g *ir.Graph) (*ir.Graph, error) {
	if err := g.Sort(); err != nil {
		return nil, err
	}
	for _, n := range g.Nodes() {
		if n.Op == OpConst || len(n.Outputs) != 1 {
			continue
		}
		fold, ok := folders[n.Op]
		if !ok {
			continue
		}
		ins, ok, err := constInputs(g, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out, ok, err := fold(n, ins)
		if err != nil {
			return nil, fmt.Errorf("fold %s %s: %w", n.Op, n.ID, err)
		}
		if !ok || !finite(out.data) {
			continue
		}
		if err := replaceWithConst(g, n, out); err != nil {
			return nil, err
		}
		o.folded++
	}
	o.dropUnused(g)
	return g, nil
}

func constInputs(g *ir.Graph, n *ir.Node) ([]tensor, bool, error) {
	if len(n.Inputs) == 0 {
		return nil, false, nil
	}
	ins := make([]tensor, 0, len(n.Inputs))
	for _, name := range n.Inputs {
		p := g.Producer(name)
		if p == nil || p.Op != OpConst {
			return nil, false, nil
		}
		t, err := constTensor(p)
		if err != nil {
			return nil, false, err
		}
		ins = append(ins, t)
	}
	return ins, true, nil
}

func replaceWithConst(g *ir.Graph, n *ir.Node, t tensor) error {
	id, out := n.ID, n.Output()
	if err := g.RemoveNode(id); err != nil {
		return err
	}
	return g.AddNode(ir.Node{
		ID:      id,
		Op:      OpConst,
		Outputs: []string{out},
		Attrs:   ir.Attrs{"value": t.data, "shape": t.shape},
	})
}

func (o *ConstFoldOptimizer) dropUnused(g *ir.Graph) {
	for {
		removed := false
		for _, n := range g.Nodes() {
			if n.Op != OpConst {
				continue
			}
			out := n.Output()
			if g.IsOutput(out) || len(g.Consumers(out)) > 0 {
				continue
			}
			if g.RemoveNode(n.ID) == nil {
				o.dropped++
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}

func foldIdentity(_ *ir.Node, in []tensor) (tensor, bool, error) {
	return tensor{shape: slices.Clone(in[0].shape), data: slices.Clone(in[0].data)}, true, nil
}

func foldCast(n *ir.Node, in []tensor) (tensor, bool, error) {
	out, _, _ := foldIdentity(n, in)
	to, err := n.Attrs.String("to")
	if err != nil {
		// Numeric type codes are not interpreted; leave the node in place.
		return tensor{}, false, nil
	}
	switch to {
	case "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64":
		for i, v := range out.data {
			out.data[i] = math.Trunc(v)
		}
	case "bool":
		for i, v := range out.data {
			if v != 0 {
				out.data[i] = 1
			}
		}
	case "float", "float16", "float32", "float64", "double":
	default:
		return tensor{}, false, nil
	}
	return out, true, nil
}

func foldTranspose(n *ir.Node, in []tensor) (tensor, bool, error) {
	src := in[0]
	rank := len(src.shape)
	p := make([]int64, rank)
	for i := range p {
		p[i] = int64(rank - 1 - i)
	}
	if n.Attrs.Has("perm") {
		var err error
		if p, err = n.Attrs.Ints("perm"); err != nil {
			return tensor{}, false, err
		}
	}
	if len(p) != rank || !isPermutation(p) {
		return tensor{}, false, fmt.Errorf("perm %v does not match rank %d: %w", p, rank, ErrMalformedNode)
	}

	shape := make([]int64, rank)
	for i, axis := range p {
		shape[i] = src.shape[axis]
	}
	srcStrides := strides(src.shape)
	data := make([]float64, len(src.data))
	idx := make([]int64, rank)
	for lin := range data {
		// idx is the multi-index of lin in the output shape.
		rem := int64(lin)
		for i := rank - 1; i >= 0; i-- {
			idx[i] = rem % shape[i]
			rem /= shape[i]
		}
		off := int64(0)
		for i, axis := range p {
			off += idx[i] * srcStrides[axis]
		}
		data[lin] = src.data[off]
	}
	return tensor{shape: shape, data: data}, true, nil
}

func strides(shape []int64) []int64 {
	s := make([]int64, len(shape))
	acc := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func foldUnsqueeze(n *ir.Node, in []tensor) (tensor, bool, error) {
	axes, err := n.Attrs.Ints("axes")
	if err != nil {
		return tensor{}, false, err
	}
	rank := int64(len(in[0].shape) + len(axes))
	insert := make(map[int64]bool, len(axes))
	for _, a := range axes {
		if a < 0 {
			a += rank
		}
		if a < 0 || a >= rank || insert[a] {
			return tensor{}, false, fmt.Errorf("axes %v out of range for rank %d: %w", axes, rank, ErrMalformedNode)
		}
		insert[a] = true
	}
	shape := make([]int64, 0, rank)
	rest := in[0].shape
	for i := int64(0); i < rank; i++ {
		if insert[i] {
			shape = append(shape, 1)
			continue
		}
		shape = append(shape, rest[0])
		rest = rest[1:]
	}
	return tensor{shape: shape, data: slices.Clone(in[0].data)}, true, nil
}

func foldSqueeze(n *ir.Node, in []tensor) (tensor, bool, error) {
	src := in[0]
	rank := int64(len(src.shape))
	drop := make(map[int64]bool)
	if n.Attrs.Has("axes") {
		axes, err := n.Attrs.Ints("axes")
		if err != nil {
			return tensor{}, false, err
		}
		for _, a := range axes {
			if a < 0 {
				a += rank
			}
			if a < 0 || a >= rank || src.shape[a] != 1 {
				return tensor{}, false, fmt.Errorf("cannot squeeze axis %d of shape %v: %w", a, src.shape, ErrMalformedNode)
			}
			drop[a] = true
		}
	} else {
		for i, d := range src.shape {
			if d == 1 {
				drop[int64(i)] = true
			}
		}
	}
	var shape []int64
	for i, d := range src.shape {
		if !drop[int64(i)] {
			shape = append(shape, d)
		}
	}
	return tensor{shape: shape, data: slices.Clone(src.data)}, true, nil
}

func foldReshape(_ *ir.Node, in []tensor) (tensor, bool, error) {
	if len(in) != 2 {
		return tensor{}, false, fmt.Errorf("reshape wants 2 inputs, got %d: %w", len(in), ErrMalformedNode)
	}
	src, spec := in[0], in[1]
	shape := make([]int64, len(spec.data))
	infer := -1
	known := int64(1)
	for i, v := range spec.data {
		d := int64(v)
		switch {
		case d == 0 && i < len(src.shape):
			d = src.shape[i]
		case d == -1 && infer < 0:
			infer = i
			continue
		case d <= 0:
			return tensor{}, false, fmt.Errorf("invalid target shape %v: %w", spec.data, ErrMalformedNode)
		}
		shape[i] = d
		known *= d
	}
	if infer >= 0 {
		if known == 0 || src.size()%known != 0 {
			return tensor{}, false, fmt.Errorf("cannot infer dimension of %v for %d values: %w", spec.data, src.size(), ErrMalformedNode)
		}
		shape[infer] = src.size() / known
	}
	if numel(shape) != src.size() {
		return tensor{}, false, fmt.Errorf("cannot reshape %v to %v: %w", src.shape, shape, ErrMalformedNode)
	}
	return tensor{shape: shape, data: slices.Clone(src.data)}, true, nil
}

// foldBinary folds elementwise ops over equal shapes or a single-element
// operand whose rank does not exceed the other's. Other broadcasting patterns
// are left to the runtime.
func foldBinary(f func(a, b float64) float64) folder {
	return func(_ *ir.Node, in []tensor) (tensor, bool, error) {
		if len(in) != 2 {
			return tensor{}, false, nil
		}
		a, b := in[0], in[1]
		switch {
		case slices.Equal(a.shape, b.shape):
		case len(b.data) == 1 && len(b.shape) <= len(a.shape):
			b = tensor{shape: a.shape, data: repeat(b.data[0], len(a.data))}
		case len(a.data) == 1 && len(a.shape) <= len(b.shape):
			a = tensor{shape: b.shape, data: repeat(a.data[0], len(b.data))}
		default:
			return tensor{}, false, nil
		}
		data := make([]float64, len(a.data))
		for i := range data {
			data[i] = f(a.data[i], b.data[i])
		}
		return tensor{shape: slices.Clone(a.shape), data: data}, true, nil
	}
}

// finite reports whether every value is a real number. NaN and ±Inf have no
// JSON encoding, so such results stay unfolded.
func finite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
