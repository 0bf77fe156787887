// Package pipeline runs the decode → optimize → encode flow shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// A [Runner] executes three stages:
//
//  1. Decode: parse the input document and validate the graph
//  2. Optimize: run the pass manager over the graph
//  3. Encode: serialize the optimized graph
//
// Stage 2 never fails; pass failures are recorded in the [optimizer.Report].
// Stages 1 and 3 return errors carrying a [errors.Code], so callers can map
// them to exit codes or HTTP statuses.
//
// Results are cached under [cache.GraphKey], built from a canonical hash of
// the input graph, the ordered pass names and the output format. Equivalent
// JSON and YAML inputs therefore share entries.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, optimizer.DefaultRegistry(), logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{Format: "yaml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Output)
//
// [errors.Code]: github.com/matzehuels/graphopt/pkg/errors.Code
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/optimizer"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFormat is the graph format used when none is given.
	DefaultFormat = graphio.FormatJSON

	// DefaultTTL is how long optimized graphs stay cached.
	DefaultTTL = 24 * time.Hour

	// MaxInputSize bounds the size of an input document.
	MaxInputSize = 64 << 20
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Format is the input format: "json" (default) or "yaml".
	Format string `json:"format,omitempty"`

	// OutputFormat is the output format. Defaults to Format.
	OutputFormat string `json:"output_format,omitempty"`

	// Disable names passes to skip. The remaining passes keep their order.
	Disable []string `json:"disable,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives the optimizer's log lines. Defaults to the runner's.
	Logger *log.Logger `json:"-"`

	input, output graphio.Format
	validated     bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	in, err := graphio.ParseFormat(o.Format)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "input format")
	}
	if o.OutputFormat == "" {
		o.OutputFormat = string(in)
	}
	out, err := graphio.ParseFormat(o.OutputFormat)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "output format")
	}
	o.Format, o.OutputFormat = string(in), string(out)
	o.input, o.output = in, out

	for _, name := range o.Disable {
		if err := errs.ValidatePassName(name); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Passes returns base without the disabled passes. Disabling an unknown pass
// is an INVALID_CONFIG error.
func (o *Options) Passes(base optimizer.Registry) (optimizer.Registry, error) {
	names := base.Names()
	for _, name := range o.Disable {
		if !slices.Contains(names, name) {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown pass %q", name)
		}
	}
	return base.Without(o.Disable...), nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the optimized graph.
	Graph *ir.Graph

	// Output is Graph encoded in the output format.
	Output []byte

	// GraphHash is the canonical content hash of the input graph.
	GraphHash string

	// Report describes the optimizer run. On a cache hit it is the report
	// of the run that produced the cached entry.
	Report *optimizer.Report

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether Output came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodesBefore  int
	NodesAfter   int
	DecodeTime   time.Duration
	OptimizeTime time.Duration
}
