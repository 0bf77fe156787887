// Package optimizer runs an ordered sequence of graph rewriting passes over an
// [ir.Graph].
//
// # Overview
//
// A [Registry] is an ordered list of named pass factories. The order is part
// of the configuration: some passes only pay off after others have run (for
// example, merging duplicated nodes works best once transposes have been
// reduced, because reduction leaves identical transposes behind).
//
// A [Manager] applies every registered pass in order. Before each attempt it
// clones the current graph and hands the clone to a freshly constructed pass.
// If the pass succeeds its output becomes the current graph; if it returns an
// error, returns no graph, or panics, the clone is discarded, a warning is
// logged, and the next pass sees exactly the graph the failed pass was given.
// A run therefore never fails as a whole.
//
// # Reporting
//
// The manager records node statistics before and after the run and logs the
// difference with [Diff] and [FormatDeltas]:
//
//	After optimization: Transpose -3(5->2), Identity +1(0->1)
//
// [Manager.Execute] also returns a [Report] with per-pass outcomes.
//
// # Usage
//
// For the default pipeline:
//
//	g = optimizer.OptimizeGraph(ctx, g, logger)
//
// For a custom sequence:
//
//	reg := optimizer.Registry{
//	    {Name: "reduce_identity", New: func() optimizer.Pass { return transform.NewIdentityOptimizer() }},
//	}
//	g = optimizer.NewManager(reg, logger).Run(ctx, g)
//
// # Limitations
//
// Passes run sequentially and are not interrupted. A pass that never returns
// blocks the manager; the context is used for hooks only.
package optimizer
