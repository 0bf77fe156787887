// Package pkg provides the libraries behind graphopt, a pass manager that
// rewrites computation graphs.
//
// # Overview
//
// The pkg directory is organized into these areas:
//
//  1. [ir] - The graph model: nodes, tensors, attributes, statistics
//  2. [ir/transform] - The optimization passes
//  3. [optimizer] - Pass registry and the failure-tolerant manager
//  4. [io] and [render] - JSON/YAML serialization and Graphviz drawing
//  5. [pipeline] - Orchestration (decode → optimize → encode) with caching
//  6. [cache], [config], [server] - Infrastructure
//
// # Architecture
//
// The typical data flow through graphopt:
//
//	JSON/YAML document
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [optimizer] package (run each pass on a clone, keep successes)
//	         ↓
//	    [io] / [render] packages
//	         ↓
//	JSON/YAML, DOT, SVG, PNG or PDF output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/graphopt/pkg/io"
//	    "github.com/matzehuels/graphopt/pkg/optimizer"
//	)
//
//	g, err := io.Import("model.json")
//	if err != nil {
//	    return err
//	}
//	out := optimizer.OptimizeGraph(context.Background(), g, logger)
//	err = io.Export(out, "model.opt.json")
//
// A pass that errors or panics never fails the run: the manager logs a
// warning, discards the pass's changes and moves on.
//
// [ir]: github.com/matzehuels/graphopt/pkg/ir
// [ir/transform]: github.com/matzehuels/graphopt/pkg/ir/transform
// [optimizer]: github.com/matzehuels/graphopt/pkg/optimizer
// [io]: github.com/matzehuels/graphopt/pkg/io
// [render]: github.com/matzehuels/graphopt/pkg/render
// [pipeline]: github.com/matzehuels/graphopt/pkg/pipeline
// [cache]: github.com/matzehuels/graphopt/pkg/cache
// [config]: github.com/matzehuels/graphopt/pkg/config
// [server]: github.com/matzehuels/graphopt/pkg/server
package pkg
