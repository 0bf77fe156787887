package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphopt/pkg/cache"
	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/optimizer"
)

const modelJSON = `{
  "name": "model",
  "inputs": ["x"],
  "outputs": ["y"],
  "nodes": [
    {"id": "t1", "op": "Transpose", "inputs": ["x"], "outputs": ["a"], "attrs": {"perm": [1, 0]}},
    {"id": "t2", "op": "Transpose", "inputs": ["a"], "outputs": ["b"], "attrs": {"perm": [1, 0]}},
    {"id": "id", "op": "Identity", "inputs": ["b"], "outputs": ["c"]},
    {"id": "relu", "op": "Relu", "inputs": ["c"], "outputs": ["y"]}
  ]
}`

const modelYAML = `
name: model
inputs: [x]
outputs: [y]
nodes:
  - {id: t1, op: Transpose, inputs: [x], outputs: [a], attrs: {perm: [1, 0]}}
  - {id: t2, op: Transpose, inputs: [a], outputs: [b], attrs: {perm: [1, 0]}}
  - {id: id, op: Identity, inputs: [b], outputs: [c]}
  - {id: relu, op: Relu, inputs: [c], outputs: [y]}
`

// memCache is an in-memory cache.Cache for tests.
type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if opts.Format != "json" || opts.OutputFormat != "json" {
		t.Errorf("formats = %q, %q; want json, json", opts.Format, opts.OutputFormat)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	opts = Options{Format: "yml"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %q, want yaml", opts.OutputFormat)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"bad input format", Options{Format: "xml"}, errs.ErrCodeInvalidFormat},
		{"bad output format", Options{OutputFormat: "toml"}, errs.ErrCodeInvalidFormat},
		{"bad pass name", Options{Disable: []string{"Nope!"}}, errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errs.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Format: "yaml", OutputFormat: "json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	logger := opts.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Logger != logger || opts.Format != "yaml" || opts.OutputFormat != "json" {
		t.Errorf("second call changed options: %+v", opts)
	}
}

func TestExecute(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte(modelJSON), Options{
		Logger: log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel}),
	})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Stats.NodesBefore != 4 || res.Stats.NodesAfter != 1 {
		t.Errorf("Stats = %+v, want 4 -> 1", res.Stats)
	}
	if res.CacheHit {
		t.Error("CacheHit should be false with a null cache")
	}
	if got := res.Report.Summary(); got != "After optimization: Transpose -2(2->0), Identity -1(1->0)" {
		t.Errorf("Summary() = %q", got)
	}
	if !bytes.Contains(res.Output, []byte(`"op": "Relu"`)) {
		t.Errorf("Output is not the optimized JSON graph:\n%s", res.Output)
	}
	if !strings.Contains(logs.String(), "Apply reduce_transpose") {
		t.Errorf("optimizer logs not routed to Options.Logger:\n%s", logs.String())
	}
}

func TestExecuteDisable(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte(modelJSON), Options{
		Disable: []string{optimizer.PassReduceIdentity},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Graph.NodeStatistics()["Identity"]; got != 1 {
		t.Errorf("Identity count = %d, want 1 with reduce_identity disabled", got)
	}
	if len(res.Report.Passes) != 3 {
		t.Errorf("ran %d passes, want 3", len(res.Report.Passes))
	}

	_, err = r.Execute(context.Background(), []byte(modelJSON), Options{Disable: []string{"unknown_pass"}})
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("Execute(unknown pass) = %v, want INVALID_CONFIG", err)
	}
}

func TestExecuteCache(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	r := NewRunner(c, nil, nil)

	first, err := r.Execute(ctx, []byte(modelJSON), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || c.sets != 1 {
		t.Fatalf("first run: CacheHit = %v, sets = %d", first.CacheHit, c.sets)
	}

	second, err := r.Execute(ctx, []byte(modelYAML), Options{Format: "yaml", OutputFormat: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("equivalent YAML input should hit the JSON entry")
	}
	if !bytes.Equal(second.Output, first.Output) || second.GraphHash != first.GraphHash {
		t.Error("cached result differs from the original")
	}
	if second.Report == nil || second.Report.Summary() != first.Report.Summary() {
		t.Error("cached report missing or different")
	}

	refreshed, err := r.Execute(ctx, []byte(modelJSON), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit || c.sets != 2 {
		t.Errorf("refresh: CacheHit = %v, sets = %d", refreshed.CacheHit, c.sets)
	}

	if _, err := r.Execute(ctx, []byte(modelJSON), Options{Disable: []string{optimizer.PassFoldConstants}}); err != nil {
		t.Fatal(err)
	}
	if c.sets != 3 {
		t.Errorf("different pass list should miss: sets = %d", c.sets)
	}
}

func TestExecuteCacheKeepsFailures(t *testing.T) {
	ctx := context.Background()
	broken := optimizer.Descriptor{Name: "broken", New: func() optimizer.Pass {
		return optimizer.PassFunc(func(*ir.Graph) (*ir.Graph, error) { return nil, errors.New("boom") })
	}}
	reg := append(optimizer.Registry{broken}, optimizer.DefaultRegistry()...)
	r := NewRunner(newMemCache(), reg, nil)

	for _, want := range []bool{false, true} {
		res, err := r.Execute(ctx, []byte(modelJSON), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheHit != want {
			t.Fatalf("CacheHit = %v, want %v", res.CacheHit, want)
		}
		if got := res.Report.Failed(); !slices.Equal(got, []string{"broken"}) {
			t.Errorf("CacheHit=%v: Failed() = %v, want [broken]", res.CacheHit, got)
		}
	}
}

func TestExecuteOverflowingConstants(t *testing.T) {
	doc := `{
  "inputs": ["x"],
  "outputs": ["y"],
  "nodes": [
    {"id": "c", "op": "Const", "outputs": ["a"], "attrs": {"value": [1e200]}},
    {"id": "mul", "op": "Mul", "inputs": ["a", "a"], "outputs": ["b"]},
    {"id": "relu", "op": "Relu", "inputs": ["b"], "outputs": ["y"]}
  ]
}`
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), []byte(doc), Options{})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got := res.Graph.NodeStatistics()["Mul"]; got != 1 {
		t.Errorf("Mul count = %d, want 1: an infinite product must not be folded", got)
	}
	if failed := res.Report.Failed(); len(failed) != 0 {
		t.Errorf("Failed() = %v, want none", failed)
	}
}

func TestExecuteDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errs.Code
	}{
		{"malformed", `{"nodes": [`, errs.ErrCodeInvalidFormat},
		{"dangling input", `{"inputs":[],"outputs":[],"nodes":[{"id":"a","op":"Relu","inputs":["z"],"outputs":["y"]}]}`, errs.ErrCodeInvalidGraph},
		{"cycle", `{"inputs":[],"outputs":[],"nodes":[{"id":"a","op":"Relu","inputs":["q"],"outputs":["p"]},{"id":"b","op":"Relu","inputs":["p"],"outputs":["q"]}]}`, errs.ErrCodeInvalidGraph},
	}
	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), []byte(tt.data), Options{})
			if !errs.Is(err, tt.code) {
				t.Errorf("Execute() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteYAMLOutput(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte(modelJSON), Options{OutputFormat: "yaml"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(res.Output, []byte("op: Relu")) {
		t.Errorf("Output is not YAML:\n%s", res.Output)
	}
}

func TestRenderDOT(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte(modelJSON), Options{})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Render(context.Background(), res.Graph, RenderOptions{
		Formats:   []string{FormatDOT},
		Highlight: ChangedOps(res.Report),
	})
	if err != nil {
		t.Fatal(err)
	}
	dot := string(artifacts[FormatDOT])
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"relu"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestValidateRenderFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"SVG", true},
		{"json", true},
		{"", true},
	}
	for _, tt := range tests {
		if err := ValidateRenderFormat(tt.format); (err != nil) != tt.wantErr {
			t.Errorf("ValidateRenderFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	opts := RenderOptions{Formats: []string{"gif"}}
	if err := opts.SetDefaults(); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("SetDefaults() = %v, want INVALID_FORMAT", err)
	}
}

func TestChangedOps(t *testing.T) {
	report := &optimizer.Report{Deltas: []optimizer.Delta{
		{Op: "Transpose", Before: 2, After: 0},
		{Op: "Const", Before: 1, After: 3},
	}}
	got := ChangedOps(report)
	if len(got) != 1 || got[0] != "Const" {
		t.Errorf("ChangedOps() = %v, want [Const]", got)
	}
	if ChangedOps(nil) != nil {
		t.Error("ChangedOps(nil) should be nil")
	}
}
