package optimizer

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/observability"
)

// Report summarizes one optimizer run.
type Report struct {
	RunID    string        `json:"run_id"`
	Graph    string        `json:"graph"`
	Before   ir.Statistics `json:"before"`
	After    ir.Statistics `json:"after"`
	Passes   []Result      `json:"passes"`
	Deltas   []Delta       `json:"deltas"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the names of the passes that failed, in run order.
func (r *Report) Failed() []string {
	var names []string
	for _, p := range r.Passes {
		if !p.OK() {
			names = append(names, p.Name)
		}
	}
	return names
}

// Summary returns the same text the manager logs at the end of a run.
func (r *Report) Summary() string {
	return "After optimization: " + FormatDeltas(r.Deltas)
}

// Manager applies a fixed registry of passes to graphs.
// A Manager holds no per-run state and may be reused; it is not meant to be
// shared by concurrent runs because its logger output would interleave.
type Manager struct {
	registry Registry
	logger   *log.Logger
}

// NewManager creates a manager for reg. The registry is copied, so later
// changes to reg do not affect the manager. A nil logger discards output.
func NewManager(reg Registry, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Manager{registry: slices.Clone(reg), logger: logger}
}

// Registry returns a copy of the manager's registry.
func (m *Manager) Registry() Registry { return slices.Clone(m.registry) }

// Run applies every pass to g and returns the resulting graph. It never
// fails: a pass that errors or panics is logged and skipped, and the graph
// it was given carries on to the next pass.
func (m *Manager) Run(ctx context.Context, g *ir.Graph) *ir.Graph {
	out, _ := m.Execute(ctx, g)
	return out
}

// Execute is Run plus a report of what each pass did.
// A nil g is treated as an empty graph.
func (m *Manager) Execute(ctx context.Context, g *ir.Graph) (*ir.Graph, *Report) {
	if g == nil {
		g = ir.New("")
	}
	start := time.Now()
	hooks := observability.Pass()
	report := &Report{
		RunID:  uuid.NewString(),
		Graph:  g.Name(),
		Before: g.NodeStatistics(),
		Passes: make([]Result, 0, len(m.registry)),
	}

	m.logger.Info("Optimizing graph", "graph", g.Name(), "nodes", g.NodeCount())
	hooks.OnRunStart(ctx, report.RunID, g.NodeCount())

	current := g
	for _, d := range m.registry {
		m.logger.Debugf("Apply %s", d.Name)
		hooks.OnPassStart(ctx, report.RunID, d.Name)

		res := apply(d, current)
		hooks.OnPassComplete(ctx, report.RunID, d.Name, res.Duration, res.Err)

		if res.OK() {
			res.Deltas = Diff(current.NodeStatistics(), res.Graph.NodeStatistics())
			current = res.Graph
		} else {
			m.logger.Warn("Failed to apply "+d.Name, "err", res.Err)
		}
		res.Graph = nil
		report.Passes = append(report.Passes, res)
	}

	report.After = current.NodeStatistics()
	report.Deltas = Diff(report.Before, report.After)
	report.Duration = time.Since(start)

	m.logger.Info(report.Summary())
	hooks.OnRunComplete(ctx, report.RunID, report.Duration, len(report.Failed()))
	return current, report
}
