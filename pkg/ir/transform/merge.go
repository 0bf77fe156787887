package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// nondeterministic lists ops whose duplicates must not be merged because
// each evaluation yields a different value.
var nondeterministic = map[string]bool{
	"RandomNormal":      true,
	"RandomNormalLike":  true,
	"RandomUniform":     true,
	"RandomUniformLike": true,
	"Multinomial":       true,
	"Dropout":           true,
}

// MergeDuplicatedNodesOptimizer merges nodes that have the same op, the same
// inputs in the same order, and equal attributes. Consumers of a duplicate
// are rewired to the first occurrence. Merging repeats until no duplicates
// remain, since merging one layer can make the next layer identical.
//
// Duplicates producing a graph output are kept so that output names survive.
type MergeDuplicatedNodesOptimizer struct {
	merged int
}

// NewMergeDuplicatedNodesOptimizer returns a fresh optimizer.
func NewMergeDuplicatedNodesOptimizer() *MergeDuplicatedNodesOptimizer {
	return &MergeDuplicatedNodesOptimizer{}
}

// Merged returns the number of nodes removed as duplicates.
func (o *MergeDuplicatedNodesOptimizer) Merged() int { return o.merged }

// Optimize merges duplicates in g and returns g.
func (o *MergeDuplicatedNodesOptimizer) Optimize(g *ir.Graph) (*ir.Graph, error) {
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

func (o *MergeDuplicatedNodesOptimizer) step(g *ir.Graph) (bool, error) {
	seen := make(map[string]*ir.Node)
	changed := false
	for _, n := range g.Nodes() {
		if len(n.Outputs) == 0 || nondeterministic[n.Op] {
			continue
		}
		key, err := signature(n)
		if err != nil {
			return false, err
		}
		first, ok := seen[key]
		if !ok {
			seen[key] = n
			continue
		}
		if producesGraphOutput(g, n) {
			continue
		}
		if err := g.RemoveNode(n.ID); err != nil {
			return false, err
		}
		for i, out := range n.Outputs {
			g.ReplaceInput(out, first.Outputs[i])
		}
		o.merged++
		changed = true
	}
	return changed, nil
}

// signature identifies what a node computes. Attributes are encoded as JSON,
// which sorts map keys and prints equal numbers identically whatever their
// Go type.
func signature(n *ir.Node) (string, error) {
	attrs, err := json.Marshal(n.Attrs)
	if err != nil {
		return "", fmt.Errorf("%s %s: encode attributes: %w", n.Op, n.ID, err)
	}
	return fmt.Sprintf("%s|%d|%s|%s", n.Op, len(n.Outputs), strings.Join(n.Inputs, ","), attrs), nil
}

func producesGraphOutput(g *ir.Graph, n *ir.Node) bool {
	for _, out := range n.Outputs {
		if g.IsOutput(out) {
			return true
		}
	}
	return false
}
