package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphopt/pkg/cache"
	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/optimizer"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent requests as long as each passes its own
// Options.Logger or the shared logger tolerates interleaving.
type Runner struct {
	Cache    cache.Cache
	Registry optimizer.Registry
	Logger   *log.Logger

	// TTL is the expiry of cached results. Defaults to DefaultTTL.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil registry
// means the default passes and a nil logger discards output.
func NewRunner(c cache.Cache, reg optimizer.Registry, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if reg == nil {
		reg = optimizer.DefaultRegistry()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Registry: reg, Logger: logger, TTL: DefaultTTL}
}

// cachedResult is what the runner stores per key.
type cachedResult struct {
	Output []byte            `json:"output"`
	Report *optimizer.Report `json:"report"`
}

// Execute decodes data, optimizes the graph and encodes the result.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	reg, err := opts.Passes(r.Registry)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	decodeStart := time.Now()
	g, err := Decode(data, opts.input)
	if err != nil {
		return nil, err
	}
	result.Stats.DecodeTime = time.Since(decodeStart)
	result.Stats.NodesBefore = g.NodeCount()

	result.GraphHash, err = CanonicalHash(g)
	if err != nil {
		return nil, err
	}
	key := cache.GraphKey(result.GraphHash, reg.Names(), string(opts.output))

	if !opts.Refresh {
		if hit, ok := r.lookup(ctx, key, opts.output); ok {
			hit.GraphHash = result.GraphHash
			hit.Stats.DecodeTime = result.Stats.DecodeTime
			hit.Stats.NodesBefore = result.Stats.NodesBefore
			r.Logger.Debug("cache hit", "graph", g.Name(), "hash", result.GraphHash[:12])
			return hit, nil
		}
	}

	optStart := time.Now()
	out, report := optimizer.NewManager(reg, opts.Logger).Execute(ctx, g)
	result.Stats.OptimizeTime = time.Since(optStart)
	result.Graph = out
	result.Report = report
	result.Stats.NodesAfter = out.NodeCount()

	result.Output, err = graphio.Encode(out, opts.output)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode optimized graph")
	}

	if entry, err := json.Marshal(cachedResult{Output: result.Output, Report: report}); err == nil {
		if err := r.Cache.Set(ctx, key, entry, r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		}
	}
	return result, nil
}

// lookup returns the cached result for key. Unreadable entries are misses.
func (r *Runner) lookup(ctx context.Context, key string, f graphio.Format) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var entry cachedResult
	if err := json.Unmarshal(data, &entry); err != nil || entry.Report == nil {
		return nil, false
	}
	g, err := graphio.Decode(entry.Output, f)
	if err != nil {
		return nil, false
	}
	return &Result{
		Graph:    g,
		Output:   entry.Output,
		Report:   entry.Report,
		Stats:    Stats{NodesAfter: g.NodeCount()},
		CacheHit: true,
	}, true
}

// Decode parses and validates an input document. Malformed documents are
// INVALID_FORMAT errors; well-formed documents describing a broken graph are
// INVALID_GRAPH errors.
func Decode(data []byte, f graphio.Format) (*ir.Graph, error) {
	if len(data) > MaxInputSize {
		return nil, errs.New(errs.ErrCodeInvalidInput, "input is %d bytes, limit is %d", len(data), MaxInputSize)
	}
	g, err := graphio.Decode(data, f)
	if err == nil {
		return g, nil
	}
	for _, sentinel := range graphErrors {
		if errors.Is(err, sentinel) {
			return nil, errs.Wrap(errs.ErrCodeInvalidGraph, err, "invalid graph")
		}
	}
	return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "cannot decode %s", f)
}

var graphErrors = []error{
	ir.ErrInvalidNodeID,
	ir.ErrMissingOp,
	ir.ErrDuplicateNodeID,
	ir.ErrDuplicateOutput,
	ir.ErrUnknownTensor,
	ir.ErrDanglingInput,
	ir.ErrGraphHasCycle,
}

// CanonicalHash hashes g's JSON encoding, so the same graph read from JSON
// or YAML hashes identically.
func CanonicalHash(g *ir.Graph) (string, error) {
	data, err := graphio.Encode(g, graphio.FormatJSON)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "hash graph")
	}
	return cache.Hash(data), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
