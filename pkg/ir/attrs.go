package ir

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingAttr is returned by the Attrs accessors when the key is absent.
	ErrMissingAttr = errors.New("missing attribute")

	// ErrAttrType is returned by the Attrs accessors when the value cannot be
	// converted to the requested type.
	ErrAttrType = errors.New("attribute has wrong type")
)

// Attrs holds operator attributes keyed by name.
//
// Values are plain data: numbers, strings, bools, and slices or maps of those.
// The typed accessors accept both native Go slices ([]int64, []float64) and
// the []any of float64 that encoding/json produces.
type Attrs map[string]any

// Has reports whether the attribute is set.
func (a Attrs) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Int returns an integer attribute.
func (a Attrs) Int(key string) (int64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrMissingAttr)
	}
	i, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("%s: %w: %T", key, ErrAttrType, v)
	}
	return i, nil
}

// String returns a string attribute.
func (a Attrs) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrMissingAttr)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w: %T", key, ErrAttrType, v)
	}
	return s, nil
}

// Ints returns an integer-list attribute as a fresh slice.
func (a Attrs) Ints(key string) ([]int64, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrMissingAttr)
	}
	switch s := v.(type) {
	case nil:
		return nil, nil
	case []int64:
		return append([]int64(nil), s...), nil
	case []int:
		out := make([]int64, len(s))
		for i, x := range s {
			out[i] = int64(x)
		}
		return out, nil
	case []any:
		out := make([]int64, len(s))
		for i, x := range s {
			n, ok := toInt64(x)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: %w: %T", key, i, ErrAttrType, x)
			}
			out[i] = n
		}
		return out, nil
	case []float64:
		out := make([]int64, len(s))
		for i, x := range s {
			n, ok := toInt64(x)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: %w: %v", key, i, ErrAttrType, x)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: %w: %T", key, ErrAttrType, v)
}

// Floats returns a float-list attribute as a fresh slice.
func (a Attrs) Floats(key string) ([]float64, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrMissingAttr)
	}
	switch s := v.(type) {
	case nil:
		return nil, nil
	case float64, int, int64:
		f, _ := toFloat64(s)
		return []float64{f}, nil
	case []float64:
		return append([]float64(nil), s...), nil
	case []float32:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []int:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(s))
		for i, x := range s {
			f, ok := toFloat64(x)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: %w: %T", key, i, ErrAttrType, x)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: %w: %T", key, ErrAttrType, v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		// -2^63 is exact in float64; 2^63 is the first value out of range.
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
