package ir

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrMissingOp is returned by [Graph.AddNode] when the node has no
	// operator type.
	ErrMissingOp = errors.New("node op must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateOutput is returned when a tensor name would get a second
	// producer. Every tensor is produced by exactly one node or is a graph input.
	ErrDuplicateOutput = errors.New("tensor already has a producer")

	// ErrUnknownNode is returned by [Graph.RemoveNode] when the ID is not found.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownTensor is returned when a tensor name has no producer and is
	// not a graph input.
	ErrUnknownTensor = errors.New("unknown tensor")

	// ErrDanglingInput is returned by [Graph.Validate] when a node consumes a
	// tensor that nothing produces.
	ErrDanglingInput = errors.New("dangling node input")

	// ErrGraphHasCycle is returned by [Graph.Validate] and [Graph.TopoSort]
	// when the data-flow graph contains a cycle.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores graph-level key-value pairs such as the producer name or
// opset version. Values must be plain data so that [Graph.Clone] can copy them.
type Metadata map[string]any

// Node is a single operator in the graph.
//
// Inputs and Outputs hold tensor names. An empty input name marks an omitted
// optional input. Outputs must be unique across the whole graph.
type Node struct {
	ID      string   // Unique node name
	Op      string   // Operator type, e.g. "Transpose" or "Const"
	Inputs  []string // Consumed tensor names, in operand order
	Outputs []string // Produced tensor names
	Attrs   Attrs    // Operator attributes (never nil after AddNode)
}

// Output returns the node's first output tensor, or "" if it has none.
// Most operators produce exactly one tensor.
func (n *Node) Output() string {
	if len(n.Outputs) == 0 {
		return ""
	}
	return n.Outputs[0]
}

// Graph is a mutable data-flow graph of operator nodes.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	name     string
	nodes    map[string]*Node
	order    []string          // node IDs in insertion order
	producer map[string]string // tensor -> producing node ID
	inputs   []string
	outputs  []string
	meta     Metadata
}

// New creates an empty graph with the given name.
func New(name string) *Graph {
	return &Graph{
		name:     name,
		nodes:    make(map[string]*Node),
		producer: make(map[string]string),
		meta:     Metadata{},
	}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Meta returns the graph-level metadata map. It is never nil.
func (g *Graph) Meta() Metadata { return g.meta }

// AddInput declares tensor names fed into the graph from outside.
// Returns ErrDuplicateOutput if a name is already an input or is produced by
// a node.
func (g *Graph) AddInput(names ...string) error {
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("input: %w", ErrUnknownTensor)
		}
		if g.IsInput(name) {
			return fmt.Errorf("input %q: %w", name, ErrDuplicateOutput)
		}
		if _, ok := g.producer[name]; ok {
			return fmt.Errorf("input %q: %w", name, ErrDuplicateOutput)
		}
		g.inputs = append(g.inputs, name)
	}
	return nil
}

// Inputs returns a copy of the graph input names.
func (g *Graph) Inputs() []string { return slices.Clone(g.inputs) }

// IsInput reports whether name is a graph input.
func (g *Graph) IsInput(name string) bool { return slices.Contains(g.inputs, name) }

// SetOutputs replaces the list of graph output tensors.
// Outputs are not checked here; use Validate once the graph is complete.
func (g *Graph) SetOutputs(names ...string) { g.outputs = slices.Clone(names) }

// Outputs returns a copy of the graph output names.
func (g *Graph) Outputs() []string { return slices.Clone(g.outputs) }

// IsOutput reports whether name is a graph output.
func (g *Graph) IsOutput(name string) bool { return slices.Contains(g.outputs, name) }

// AddNode adds a node to the graph. The node's slices are copied, and Attrs
// is initialized to an empty map if nil.
//
// Returns ErrInvalidNodeID, ErrMissingOp, ErrDuplicateNodeID, or
// ErrDuplicateOutput if one of the node's outputs already has a producer.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Op == "" {
		return fmt.Errorf("node %s: %w", n.ID, ErrMissingOp)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
	}
	for _, out := range n.Outputs {
		if _, ok := g.producer[out]; ok || g.IsInput(out) {
			return fmt.Errorf("node %s output %q: %w", n.ID, out, ErrDuplicateOutput)
		}
	}
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)

	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	for _, out := range node.Outputs {
		g.producer[out] = node.ID
	}
	return nil
}

// RemoveNode deletes a node and forgets the tensors it produced.
// Consumers of those tensors are left untouched; rewire them first with
// ReplaceInput. Returns ErrUnknownNode if the ID is not found.
func (g *Graph) RemoveNode(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, ErrUnknownNode)
	}
	for _, out := range n.Outputs {
		delete(g.producer, out)
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the node in the graph. Do not modify its
// Outputs directly; use RenameTensor.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The slice is fresh, the nodes
// are the graph's own.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Producer returns the node producing tensor, or nil if the tensor is a graph
// input or unknown.
func (g *Graph) Producer(tensor string) *Node {
	id, ok := g.producer[tensor]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// Consumers returns the nodes that read tensor, in insertion order.
// A node that reads the same tensor twice appears once.
func (g *Graph) Consumers(tensor string) []*Node {
	var out []*Node
	for _, id := range g.order {
		n := g.nodes[id]
		if slices.Contains(n.Inputs, tensor) {
			out = append(out, n)
		}
	}
	return out
}

// ReplaceInput rewires every node input reading old to read replacement
// instead, and returns the number of inputs changed. Graph outputs are not
// touched.
func (g *Graph) ReplaceInput(old, replacement string) int {
	changed := 0
	for _, id := range g.order {
		n := g.nodes[id]
		for i, in := range n.Inputs {
			if in == old {
				n.Inputs[i] = replacement
				changed++
			}
		}
	}
	return changed
}

// RenameTensor renames a tensor everywhere: on its producer (or the graph
// input list), on every consumer, and in the graph outputs.
//
// Returns ErrUnknownTensor if old is neither produced nor a graph input, and
// ErrDuplicateOutput if replacement is already in use.
func (g *Graph) RenameTensor(old, replacement string) error {
	if old == replacement {
		return nil
	}
	if _, ok := g.producer[replacement]; ok || g.IsInput(replacement) {
		return fmt.Errorf("rename %q to %q: %w", old, replacement, ErrDuplicateOutput)
	}
	switch id, ok := g.producer[old]; {
	case ok:
		n := g.nodes[id]
		for i, out := range n.Outputs {
			if out == old {
				n.Outputs[i] = replacement
			}
		}
		delete(g.producer, old)
		g.producer[replacement] = id
	case g.IsInput(old):
		for i, in := range g.inputs {
			if in == old {
				g.inputs[i] = replacement
			}
		}
	default:
		return fmt.Errorf("rename %q: %w", old, ErrUnknownTensor)
	}

	g.ReplaceInput(old, replacement)
	for i, out := range g.outputs {
		if out == old {
			g.outputs[i] = replacement
		}
	}
	return nil
}

// FreshID returns a node ID derived from base that is not used in the graph.
func (g *Graph) FreshID(base string) string {
	if _, ok := g.nodes[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s_%d", base, i)
		if _, ok := g.nodes[id]; !ok {
			return id
		}
	}
}

// FreshTensor returns a tensor name derived from base that has no producer
// and is not a graph input.
func (g *Graph) FreshTensor(base string) string {
	used := func(s string) bool {
		_, ok := g.producer[s]
		return ok || g.IsInput(s)
	}
	if !used(base) {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if !used(name) {
			return name
		}
	}
}

// Validate checks graph integrity and returns nil if valid:
//
//  1. Every non-empty node input is a graph input or produced by a node
//  2. Every graph output is a graph input or produced by a node
//  3. The data-flow graph is acyclic
//
// Errors wrap ErrDanglingInput, ErrUnknownTensor or ErrGraphHasCycle.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		n := g.nodes[id]
		for _, in := range n.Inputs {
			if in == "" || g.IsInput(in) {
				continue
			}
			if _, ok := g.producer[in]; !ok {
				return fmt.Errorf("node %s input %q: %w", n.ID, in, ErrDanglingInput)
			}
		}
	}
	for _, out := range g.outputs {
		if _, ok := g.producer[out]; !ok && !g.IsInput(out) {
			return fmt.Errorf("graph output %q: %w", out, ErrUnknownTensor)
		}
	}
	_, err := g.TopoSort()
	return err
}

// TopoSort returns the nodes in a topological order, breaking ties by
// insertion order. Returns ErrGraphHasCycle if no such order exists.
func (g *Graph) TopoSort() ([]*Node, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		for _, in := range g.nodes[id].Inputs {
			if p, ok := g.producer[in]; ok && p != id {
				indegree[id]++
			} else if ok && p == id {
				return nil, ErrGraphHasCycle
			}
		}
	}

	sorted := make([]*Node, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	for len(sorted) < len(g.nodes) {
		progressed := false
		for _, id := range g.order {
			if done[id] || indegree[id] > 0 {
				continue
			}
			n := g.nodes[id]
			done[id] = true
			sorted = append(sorted, n)
			progressed = true
			for _, out := range n.Outputs {
				for _, c := range g.order {
					for _, in := range g.nodes[c].Inputs {
						if in == out {
							indegree[c]--
						}
					}
				}
			}
		}
		if !progressed {
			return nil, ErrGraphHasCycle
		}
	}
	return sorted, nil
}

// Sort reorders the graph's node list topologically so that Nodes returns
// producers before consumers.
func (g *Graph) Sort() error {
	sorted, err := g.TopoSort()
	if err != nil {
		return err
	}
	for i, n := range sorted {
		g.order[i] = n.ID
	}
	return nil
}
