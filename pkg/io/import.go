package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// ReadJSON decodes a JSON graph from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - A node has a duplicate ID or a duplicate output tensor
//   - A node input or graph output refers to a tensor nothing produces
//   - The graph contains a cycle
//
// Errors wrap the ir sentinel errors; use errors.Is to check for them.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*ir.Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.graph()
}

// ReadYAML decodes a YAML graph from r. It accepts the same document
// structure as [ReadJSON] and returns the same errors.
func ReadYAML(r io.Reader) (*ir.Graph, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode: empty document")
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.graph()
}

// Import reads a graph file at path, choosing the format from its extension.
func Import(path string) (*ir.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (doc *document) graph() (*ir.Graph, error) {
	g := ir.New(doc.Name)
	for k, v := range doc.Meta {
		g.Meta()[k] = v
	}
	if err := g.AddInput(doc.Inputs...); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	for _, n := range doc.Nodes {
		if err := g.AddNode(ir.Node{
			ID:      n.ID,
			Op:      n.Op,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
			Attrs:   ir.Attrs(n.Attrs),
		}); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	g.SetOutputs(doc.Outputs...)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
