package optimizer

import (
	"time"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
)

// Result is the outcome of one pass attempt: either a graph or an error.
type Result struct {
	Name     string        `json:"name"`
	Graph    *ir.Graph     `json:"-"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`

	// Deltas is the node population change this pass caused. Empty for
	// failed passes and for passes that changed nothing.
	Deltas []Delta `json:"deltas,omitempty"`
}

// OK reports whether the pass succeeded. Results read back from a cached
// report carry only the error text.
func (r Result) OK() bool { return r.Err == nil && r.Error == "" }

// apply runs one pass on a clone of current. The clone is taken before the
// pass is constructed, so neither a failing factory nor a failing Optimize
// can touch current. Panics are converted to errors.
func apply(d Descriptor, current *ir.Graph) (res Result) {
	res.Name = d.Name
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			res.Graph = nil
			res.Err = errs.Wrap(errs.ErrCodePassPanic, &errs.PanicError{Value: v}, "pass %s", d.Name)
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		res.Duration = time.Since(start)
	}()

	working := current.Clone()

	if d.New == nil {
		res.Err = errs.New(errs.ErrCodePassFailed, "pass %s has no factory", d.Name)
		return res
	}
	p := d.New()
	if p == nil {
		res.Err = errs.New(errs.ErrCodePassFailed, "pass %s: factory returned nil", d.Name)
		return res
	}

	out, err := p.Optimize(working)
	if err != nil {
		res.Err = errs.Wrap(errs.ErrCodePassFailed, err, "pass %s", d.Name)
		return res
	}
	if out == nil {
		res.Err = errs.New(errs.ErrCodePassFailed, "pass %s returned no graph", d.Name)
		return res
	}
	res.Graph = out
	return res
}
