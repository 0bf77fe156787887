package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/graphopt/pkg/ir"
)

type document struct {
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Inputs  []string       `json:"inputs" yaml:"inputs"`
	Outputs []string       `json:"outputs" yaml:"outputs"`
	Nodes   []node         `json:"nodes" yaml:"nodes"`
	Meta    map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

type node struct {
	ID      string         `json:"id" yaml:"id"`
	Op      string         `json:"op" yaml:"op"`
	Inputs  []string       `json:"inputs,omitempty" yaml:"inputs,omitempty,flow"`
	Outputs []string       `json:"outputs,omitempty" yaml:"outputs,omitempty,flow"`
	Attrs   map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

func newDocument(g *ir.Graph) document {
	doc := document{
		Name:    g.Name(),
		Inputs:  g.Inputs(),
		Outputs: g.Outputs(),
		Nodes:   make([]node, 0, g.NodeCount()),
		Meta:    g.Meta(),
	}
	if doc.Inputs == nil {
		doc.Inputs = []string{}
	}
	if doc.Outputs == nil {
		doc.Outputs = []string{}
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, node{
			ID:      n.ID,
			Op:      n.Op,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
			Attrs:   n.Attrs,
		})
	}
	return doc
}

// WriteJSON encodes g as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(g *ir.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes g as YAML and writes it to w.
// The output can be re-imported with [ReadYAML].
func WriteYAML(g *ir.Graph, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Export writes g to a file at path, choosing the format from its extension.
func Export(g *ir.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f, FormatFromPath(path))
}
