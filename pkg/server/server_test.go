package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/httputil"
	"github.com/matzehuels/graphopt/pkg/observability"
	"github.com/matzehuels/graphopt/pkg/optimizer"
	"github.com/matzehuels/graphopt/pkg/pipeline"
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

func newTestServer(t *testing.T, logs *bytes.Buffer) *httptest.Server {
	t.Helper()
	var logger *log.Logger
	if logs != nil {
		logger = log.NewWithOptions(logs, log.Options{Level: log.DebugLevel})
	}
	srv := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /healthz = %d %v", resp.StatusCode, body)
	}
}

func TestPasses(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/passes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct{ Passes []string }
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	want := optimizer.DefaultRegistry().Names()
	if strings.Join(body.Passes, ",") != strings.Join(want, ",") {
		t.Errorf("passes = %v, want %v", body.Passes, want)
	}
}

func TestOptimize(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, &logs)
	resp := post(t, srv.URL+"/v1/optimize", modelJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body: %+v", resp.StatusCode, decodeError(t, resp))
	}

	var body struct {
		Graph struct {
			Nodes []struct{ Op string }
		}
		Report struct {
			Deltas []optimizer.Delta
			Passes []struct{ Name string }
		}
		Hash string
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Graph.Nodes) != 1 || body.Graph.Nodes[0].Op != "Relu" {
		t.Errorf("graph nodes = %+v, want a single Relu", body.Graph.Nodes)
	}
	if got := optimizer.FormatDeltas(body.Report.Deltas); got != "Transpose -2(2->0), Identity -1(1->0)" {
		t.Errorf("deltas = %q", got)
	}
	if len(body.Report.Passes) != 4 || len(body.Hash) != 64 {
		t.Errorf("passes = %d, hash = %q", len(body.Report.Passes), body.Hash)
	}
	if !strings.Contains(logs.String(), "After optimization") {
		t.Errorf("server logger should receive optimizer logs:\n%s", logs.String())
	}
}

func TestOptimizeYAMLOutputAndDisable(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/v1/optimize?output=yaml&disable=reduce_identity,%20fold_constants", modelJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Graph  string
		Report struct{ Passes []struct{ Name string } }
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Graph, "op: Identity") {
		t.Errorf("YAML graph should keep Identity:\n%s", body.Graph)
	}
	if len(body.Report.Passes) != 2 {
		t.Errorf("ran %d passes, want 2", len(body.Report.Passes))
	}
}

func TestOptimizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errs.Code
	}{
		{"empty body", "", "", http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"malformed", "", "{", http.StatusBadRequest, errs.ErrCodeInvalidFormat},
		{"bad format", "?format=xml", modelJSON, http.StatusBadRequest, errs.ErrCodeInvalidFormat},
		{"unknown pass", "?disable=nope", modelJSON, http.StatusBadRequest, errs.ErrCodeInvalidConfig},
		{"bad refresh", "?refresh=maybe", modelJSON, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"cycle", "", `{"inputs":[],"outputs":[],"nodes":[{"id":"a","op":"Relu","inputs":["q"],"outputs":["p"]},{"id":"b","op":"Relu","inputs":["p"],"outputs":["q"]}]}`,
			http.StatusUnprocessableEntity, errs.ErrCodeInvalidGraph},
	}
	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/optimize"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeError(t, resp); body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/v1/stats", modelJSON)
	var body StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Nodes != 4 || body.Statistics["Transpose"] != 2 || body.Graph != "model" {
		t.Errorf("stats = %+v", body)
	}
}

func TestRenderDOT(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/v1/render?as=dot&tensors=true", modelJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `"t1" -> "t2" [label="a"];`) {
		t.Errorf("unexpected DOT:\n%s", buf.String())
	}

	bad := post(t, srv.URL+"/v1/render?as=gif", modelJSON)
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("as=gif status = %d, want 400", bad.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes []string
	errors int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, method+" "+route)
}

func (h *recordingHTTPHooks) OnError(context.Context, string, string, error) { h.errors++ }

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := newTestServer(t, nil)
	post(t, srv.URL+"/v1/stats", modelJSON)
	post(t, srv.URL+"/v1/stats", "{")

	if strings.Join(hooks.routes, ",") != "POST /v1/stats,POST /v1/stats" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(pipeline.NewRunner(nil, nil, nil), nil)
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
