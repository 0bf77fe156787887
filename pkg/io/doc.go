// Package io provides JSON and YAML import and export for operator graphs.
//
// # Overview
//
// Graphs are exchanged as a single document describing the graph's inputs,
// outputs, nodes and metadata. The same structure is used for JSON and YAML:
//
//	{
//	  "name": "model",
//	  "inputs": ["x"],
//	  "outputs": ["y"],
//	  "nodes": [
//	    {"id": "t1", "op": "Transpose", "inputs": ["x"], "outputs": ["a"],
//	     "attrs": {"perm": [0, 2, 3, 1]}},
//	    {"id": "relu", "op": "Relu", "inputs": ["a"], "outputs": ["y"]}
//	  ]
//	}
//
// Nodes must be listed with unique IDs and unique output tensor names.
// They need not be in topological order.
//
// # Node Fields
//
// Required:
//   - id: Unique node name
//   - op: Operator type
//
// Optional:
//   - inputs: Consumed tensor names in operand order ("" for an omitted input)
//   - outputs: Produced tensor names
//   - attrs: Operator attributes (numbers, strings, lists, nested objects)
//
// Constant tensors use op "Const" with a flat "value" list and a "shape" list.
//
// # Import
//
// Use [Import] to read a file (the format follows the extension), or
// [ReadJSON] and [ReadYAML] to read from any io.Reader:
//
//	g, err := io.Import("model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Imported graphs are validated: dangling inputs, unknown outputs and cycles
// are rejected. Errors name the node that caused the problem.
//
// # Export
//
// Use [Export] to write a file, or [WriteJSON] and [WriteYAML] to write to
// any io.Writer. Nodes are written in the graph's current order, so an
// exported graph re-imports to the same node sequence.
package io
