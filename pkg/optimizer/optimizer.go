package optimizer

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/ir/transform"
)

// Names of the default passes.
const (
	PassReduceTranspose  = "reduce_transpose"
	PassFoldConstants    = "fold_constants"
	PassMergeDuplication = "merge_duplication"
	PassReduceIdentity   = "reduce_identity"
)

// DefaultRegistry returns the default pass sequence. The order matters:
// merge_duplication runs after reduce_transpose because transpose reduction
// can leave identical transposes behind for merging.
func DefaultRegistry() Registry {
	return Registry{
		{Name: PassReduceTranspose, New: func() Pass { return transform.NewTransposeOptimizer() }},
		{Name: PassFoldConstants, New: func() Pass { return transform.NewConstFoldOptimizer() }},
		{Name: PassMergeDuplication, New: func() Pass { return transform.NewMergeDuplicatedNodesOptimizer() }},
		{Name: PassReduceIdentity, New: func() Pass { return transform.NewIdentityOptimizer() }},
	}
}

// OptimizeGraph runs the default pipeline over g and returns the optimized
// graph. It never fails; if every pass fails the result is statistically
// identical to g.
func OptimizeGraph(ctx context.Context, g *ir.Graph, logger *log.Logger) *ir.Graph {
	return NewManager(DefaultRegistry(), logger).Run(ctx, g)
}
