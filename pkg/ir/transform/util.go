package transform

import (
	"errors"
	"fmt"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// ErrMalformedNode is returned when a node's structure or attributes make no
// sense for its operator.
var ErrMalformedNode = errors.New("malformed node")

// bypass removes a single-input, single-output node and connects its
// consumers to its input. If the node's output is a graph output the output
// name survives and the input tensor is renamed instead; when that is not
// possible (the input is itself a graph input or output) bypass leaves the
// graph alone and reports false.
func bypass(g *ir.Graph, n *ir.Node) (bool, error) {
	if len(n.Inputs) == 0 || n.Inputs[0] == "" || len(n.Outputs) != 1 {
		return false, fmt.Errorf("%s %s: want one input and one output, got %d and %d: %w",
			n.Op, n.ID, len(n.Inputs), len(n.Outputs), ErrMalformedNode)
	}
	in, out := n.Inputs[0], n.Outputs[0]

	if !g.IsOutput(out) {
		if err := g.RemoveNode(n.ID); err != nil {
			return false, err
		}
		g.ReplaceInput(out, in)
		return true, nil
	}

	if g.IsInput(in) || g.IsOutput(in) || g.Producer(in) == nil {
		return false, nil
	}
	if err := g.RemoveNode(n.ID); err != nil {
		return false, err
	}
	return true, g.RenameTensor(in, out)
}

// perm reads a Transpose node's permutation. Without a perm attribute the
// permutation depends on the input rank, which the IR does not track, so ok
// is false.
func perm(n *ir.Node) (p []int64, ok bool, err error) {
	if !n.Attrs.Has("perm") {
		return nil, false, nil
	}
	p, err = n.Attrs.Ints("perm")
	if err != nil {
		return nil, false, fmt.Errorf("transpose %s: %w", n.ID, err)
	}
	if !isPermutation(p) {
		return nil, false, fmt.Errorf("transpose %s: invalid perm %v: %w", n.ID, p, ErrMalformedNode)
	}
	return p, true, nil
}

func isPermutation(p []int64) bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= int64(len(p)) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func isIdentityPerm(p []int64) bool {
	for i, v := range p {
		if v != int64(i) {
			return false
		}
	}
	return true
}

// composePerm returns the permutation equivalent to transposing by first and
// then by second.
func composePerm(first, second []int64) []int64 {
	out := make([]int64, len(second))
	for i, v := range second {
		out[i] = first[v]
	}
	return out
}
