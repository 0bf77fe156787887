package transform

import "github.com/matzehuels/graphopt/pkg/ir"

// IdentityOptimizer removes Identity nodes.
type IdentityOptimizer struct {
	removed int
}

// NewIdentityOptimizer returns a fresh optimizer.
func NewIdentityOptimizer() *IdentityOptimizer { return &IdentityOptimizer{} }

// Removed returns the number of Identity nodes removed.
func (o *IdentityOptimizer) Removed() int { return o.removed }

// Optimize removes every Identity node that can be bypassed and returns g.
// An Identity copying a graph input straight to a graph output is kept,
// since removing it would merge two names the caller can see.
func (o *IdentityOptimizer) Optimize(g *ir.Graph) (*ir.Graph, error) {
	for _, n := range g.Nodes() {
		if n.Op != "Identity" {
			continue
		}
		done, err := bypass(g, n)
		if err != nil {
			return nil, err
		}
		if done {
			o.removed++
		}
	}
	return g, nil
}
