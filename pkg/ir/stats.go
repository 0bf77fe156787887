package ir

import (
	"maps"
	"slices"
)

// Statistics maps an operator type to the number of nodes of that type.
type Statistics map[string]int

// NodeStatistics counts the graph's nodes by operator type.
func (g *Graph) NodeStatistics() Statistics {
	s := make(Statistics)
	for _, n := range g.nodes {
		s[n.Op]++
	}
	return s
}

// Total returns the number of nodes counted.
func (s Statistics) Total() int {
	total := 0
	for _, c := range s {
		total += c
	}
	return total
}

// Clone returns an independent copy.
func (s Statistics) Clone() Statistics {
	if s == nil {
		return Statistics{}
	}
	return maps.Clone(s)
}

// Ops returns the operator types in sorted order.
func (s Statistics) Ops() []string {
	return slices.Sorted(maps.Keys(s))
}
