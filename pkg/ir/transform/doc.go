// Package transform provides the graph rewrites applied by the default
// optimizer pipeline.
//
// # Overview
//
// Each optimizer type implements the optimizer's pass contract: it receives a
// graph it may mutate and returns the optimized graph, or an error when it
// meets something it cannot handle (for example, a malformed perm
// attribute). The optimizer discards all changes from a pass that errors.
//
// Instances keep counters of what they changed and must not be reused; the
// optimizer builds a fresh one for every attempt.
//
// # Transpose Reduction
//
// [TransposeOptimizer] removes transposes whose permutation is the identity
// and folds chains of transposes into one:
//
//	Before: x → Transpose(perm=[1,0]) → Transpose(perm=[1,0]) → y
//	After:  x → y
//
// # Constant Folding
//
// [ConstFoldOptimizer] evaluates nodes whose inputs are all constants and
// replaces them with a single Const node. Constants left without consumers
// are removed.
//
// # Duplicate Merging
//
// [MergeDuplicatedNodesOptimizer] merges nodes that compute the same thing
// (same op, inputs and attributes). Transpose reduction tends to leave such
// duplicates behind, so the default pipeline runs merging after it.
//
// # Identity Removal
//
// [IdentityOptimizer] removes Identity nodes, rewiring their consumers to the
// original tensor. When an Identity feeds a graph output, the output name is
// kept and the upstream tensor is renamed instead.
package transform
