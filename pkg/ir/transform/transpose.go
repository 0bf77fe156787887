package transform

import (
	"fmt"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// TransposeOptimizer removes redundant Transpose nodes.
//
// It repeatedly applies two rewrites until neither matches:
//
//   - A transpose whose perm is the identity is removed.
//   - A transpose whose only consumer is another transpose is folded into
//     that consumer, whose perm becomes the composition of both.
//
// A cancelling pair therefore first becomes one identity transpose and then
// disappears. Transposes without a perm attribute are left alone.
type TransposeOptimizer struct {
	removed int
	folded  int
}

// NewTransposeOptimizer returns a fresh optimizer.
func NewTransposeOptimizer() *TransposeOptimizer { return &TransposeOptimizer{} }

// Removed returns the number of identity transposes removed.
func (o *TransposeOptimizer) Removed() int { return o.removed }

// Folded returns the number of transposes folded into their consumer.
func (o *TransposeOptimizer) Folded() int { return o.folded }

// Optimize applies the rewrites to g in place and returns g.
func (o *TransposeOptimizer) Optimize(g *ir.Graph) (*ir.Graph, error) {
	for {
		changed, err := o.step(g)
		if err != nil {
			return nil, err
		}
		if !changed {
			return g, nil
		}
	}
}

func (o *TransposeOptimizer) step(g *ir.Graph) (bool, error) {
	changed := false
	for _, n := range g.Nodes() {
		if n.Op != "Transpose" {
			continue
		}
		if _, ok := g.Node(n.ID); !ok {
			continue
		}
		p, ok, err := perm(n)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		if isIdentityPerm(p) {
			done, err := bypass(g, n)
			if err != nil {
				return false, err
			}
			if done {
				o.removed++
				changed = true
			}
			continue
		}

		folded, err := o.foldIntoConsumer(g, n, p)
		if err != nil {
			return false, err
		}
		changed = changed || folded
	}
	return changed, nil
}

func (o *TransposeOptimizer) foldIntoConsumer(g *ir.Graph, n *ir.Node, p []int64) (bool, error) {
	out := n.Output()
	if out == "" || g.IsOutput(out) || len(n.Inputs) == 0 {
		return false, nil
	}
	consumers := g.Consumers(out)
	if len(consumers) != 1 || consumers[0].Op != "Transpose" {
		return false, nil
	}
	next := consumers[0]
	q, ok, err := perm(next)
	if err != nil || !ok {
		return false, err
	}
	if len(p) != len(q) {
		return false, fmt.Errorf("transpose %s feeds %s with rank %d perm, got %d: %w",
			n.ID, next.ID, len(p), len(q), ErrMalformedNode)
	}

	next.Attrs["perm"] = composePerm(p, q)
	for i, in := range next.Inputs {
		if in == out {
			next.Inputs[i] = n.Inputs[0]
		}
	}
	if err := g.RemoveNode(n.ID); err != nil {
		return false, err
	}
	o.folded++
	return true, nil
}
