// Package ir provides the computation-graph intermediate representation that
// the optimizer rewrites.
//
// # Overview
//
// A [Graph] is a set of operator nodes connected through named tensors, in
// the style of ONNX: every [Node] consumes the tensors listed in
// [Node.Inputs] and produces the tensors listed in [Node.Outputs]. There are
// no explicit edge objects; an edge exists wherever one node's output name
// appears in another node's inputs. Graph inputs are tensors fed from outside
// and graph outputs are the tensors the caller reads back.
//
// # Basic Usage
//
//	g := ir.New("model")
//	g.AddInput("x")
//	g.AddNode(ir.Node{ID: "t0", Op: "Transpose", Inputs: []string{"x"}, Outputs: []string{"y"},
//	    Attrs: ir.Attrs{"perm": []int64{1, 0}}})
//	g.SetOutputs("y")
//
// Query structure with [Graph.Producer], [Graph.Consumers] and
// [Graph.IsOutput], and rewire with [Graph.ReplaceInput]. Use
// [Graph.Validate] before handing a graph to the optimizer.
//
// # Snapshots
//
// [Graph.Clone] returns a deep copy that shares no mutable state with the
// original. The optimizer clones the current graph before every pass so that
// a pass failing halfway through its rewrite cannot corrupt the last good
// state.
//
// # Statistics
//
// [Graph.NodeStatistics] counts nodes by operator type. The optimizer diffs
// these counts before and after a run to report what changed.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Clones are independent and may be
// used from different goroutines.
package ir
