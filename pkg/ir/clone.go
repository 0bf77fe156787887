package ir

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the graph. The copy shares no mutable state
// with g: nodes, tensor lists, attributes and metadata are all duplicated.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		name:     g.name,
		nodes:    make(map[string]*Node, len(g.nodes)),
		order:    slices.Clone(g.order),
		producer: maps.Clone(g.producer),
		inputs:   slices.Clone(g.inputs),
		outputs:  slices.Clone(g.outputs),
		meta:     Metadata(cloneMap(g.meta)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	return c
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	return &Node{
		ID:      n.ID,
		Op:      n.Op,
		Inputs:  slices.Clone(n.Inputs),
		Outputs: slices.Clone(n.Outputs),
		Attrs:   n.Attrs.Clone(),
	}
}

// Clone returns a deep copy of the attributes. A nil map clones to an empty one.
func (a Attrs) Clone() Attrs {
	return Attrs(cloneMap(a))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return cloneMap(x)
	case Attrs:
		return x.Clone()
	case Metadata:
		return Metadata(cloneMap(x))
	case []int64:
		return slices.Clone(x)
	case []int:
		return slices.Clone(x)
	case []float64:
		return slices.Clone(x)
	case []float32:
		return slices.Clone(x)
	case []string:
		return slices.Clone(x)
	case []bool:
		return slices.Clone(x)
	case []byte:
		return slices.Clone(x)
	}
	return v
}
