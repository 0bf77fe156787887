package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphopt/pkg/buildinfo"
	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/httputil"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/observability"
	"github.com/matzehuels/graphopt/pkg/optimizer"
	"github.com/matzehuels/graphopt/pkg/pipeline"
)

// OptimizeResponse is the body of a successful POST /v1/optimize.
type OptimizeResponse struct {
	// Graph is the optimized graph: a JSON object for json output, or a
	// YAML document string for yaml output.
	Graph    json.RawMessage   `json:"graph"`
	Report   *optimizer.Report `json:"report"`
	Hash     string            `json:"hash"`
	CacheHit bool              `json:"cache_hit"`
}

// StatsResponse is the body of a successful POST /v1/stats.
type StatsResponse struct {
	Graph      string        `json:"graph"`
	Nodes      int           `json:"nodes"`
	Statistics ir.Statistics `json:"statistics"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	route := r.URL.Path
	observability.HTTP().OnError(r.Context(), r.Method, route, err)
	if status := httputil.WriteError(w, err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "route", route, "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{
		"passes": s.runner.Registry.Names(),
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	data, err := httputil.ReadBody(w, r, MaxBodySize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := optionsFromQuery(r, s.logger)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), data, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	graph := json.RawMessage(res.Output)
	if opts.OutputFormat == string(graphio.FormatYAML) {
		if graph, err = json.Marshal(string(res.Output)); err != nil {
			s.fail(w, r, errs.Wrap(errs.ErrCodeInternal, err, "encode response"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, OptimizeResponse{
		Graph:    graph,
		Report:   res.Report,
		Hash:     res.GraphHash,
		CacheHit: res.CacheHit,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	g, ok := s.decode(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{
		Graph:      g.Name(),
		Nodes:      g.NodeCount(),
		Statistics: g.NodeStatistics(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	g, ok := s.decode(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("as")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if format != pipeline.FormatSVG && format != pipeline.FormatDOT {
		s.fail(w, r, errs.New(errs.ErrCodeInvalidFormat, "render format %q: want svg or dot", format))
		return
	}
	tensors, _ := strconv.ParseBool(r.URL.Query().Get("tensors"))
	artifacts, err := pipeline.Render(r.Context(), g, pipeline.RenderOptions{
		Formats: []string{format},
		Tensors: tensors,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	contentType := "image/svg+xml"
	if format == pipeline.FormatDOT {
		contentType = "text/vnd.graphviz"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(artifacts[format])
}

// decode reads and validates the graph in the request body, writing an error
// response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*ir.Graph, bool) {
	data, err := httputil.ReadBody(w, r, MaxBodySize)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	f, err := graphio.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrCodeInvalidFormat, err, "format"))
		return nil, false
	}
	g, err := pipeline.Decode(data, f)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return g, true
}

func optionsFromQuery(r *http.Request, logger *log.Logger) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Format:       q.Get("format"),
		OutputFormat: q.Get("output"),
		Logger:       logger,
	}
	if v := q.Get("disable"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Disable = append(opts.Disable, name)
			}
		}
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "refresh: %q is not a boolean", v)
		}
		opts.Refresh = refresh
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}
