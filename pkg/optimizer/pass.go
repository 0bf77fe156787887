package optimizer

import (
	"fmt"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
)

// Pass is a single graph transformation.
//
// Optimize receives a graph it may mutate freely and returns the optimized
// graph, which may be the same object. Returning an error discards every
// change the pass made.
type Pass interface {
	Optimize(g *ir.Graph) (*ir.Graph, error)
}

// PassFunc adapts a function to the Pass interface.
type PassFunc func(g *ir.Graph) (*ir.Graph, error)

// Optimize calls f(g).
func (f PassFunc) Optimize(g *ir.Graph) (*ir.Graph, error) { return f(g) }

// Factory constructs a new pass instance. The manager calls it once per
// attempt so that no state leaks between runs or between passes.
type Factory func() Pass

// Descriptor names a pass and tells the manager how to build it.
type Descriptor struct {
	Name string
	New  Factory
}

// Registry is the ordered list of passes a manager applies.
// Order is significant and is never changed by this package.
type Registry []Descriptor

// Names returns the pass names in registry order.
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, d := range r {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the descriptor with the given name.
func (r Registry) Lookup(name string) (Descriptor, bool) {
	for _, d := range r {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Without returns a new registry with the named passes removed.
// The relative order of the remaining passes is preserved.
func (r Registry) Without(names ...string) Registry {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := make(Registry, 0, len(r))
	for _, d := range r {
		if !skip[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// Validate checks that every descriptor has a valid, unique name and a
// factory. The manager does not call it: a broken descriptor is handled like
// any other pass failure at run time. Configuration loaders use it to reject
// bad setups early.
func (r Registry) Validate() error {
	seen := make(map[string]bool, len(r))
	for i, d := range r {
		if err := errs.ValidatePassName(d.Name); err != nil {
			return fmt.Errorf("registry entry %d: %w", i, err)
		}
		if seen[d.Name] {
			return errs.New(errs.ErrCodeInvalidConfig, "duplicate pass %q", d.Name)
		}
		seen[d.Name] = true
		if d.New == nil {
			return errs.New(errs.ErrCodeInvalidConfig, "pass %q has no factory", d.Name)
		}
	}
	return nil
}
