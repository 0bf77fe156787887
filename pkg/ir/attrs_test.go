package ir

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestAttrsInts(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []int64
		wantErr error
	}{
		{"Int64Slice", []int64{0, 2, 1}, []int64{0, 2, 1}, nil},
		{"IntSlice", []int{3, 4}, []int64{3, 4}, nil},
		{"JSONDecoded", []any{1.0, 0.0}, []int64{1, 0}, nil},
		{"FloatSlice", []float64{2, 5}, []int64{2, 5}, nil},
		{"Fractional", []any{1.5}, nil, ErrAttrType},
		{"MinInt64Float", []any{-9223372036854775808.0}, []int64{math.MinInt64}, nil},
		{"FloatOverflow", []any{9223372036854775808.0}, nil, ErrAttrType},
		{"FloatUnderflow", []float64{-1e19}, nil, ErrAttrType},
		{"Infinity", []float64{math.Inf(1)}, nil, ErrAttrType},
		{"NaN", []float64{math.NaN()}, nil, ErrAttrType},
		{"Uint64", []any{uint64(7)}, []int64{7}, nil},
		{"Uint64Overflow", []any{uint64(math.MaxUint64)}, nil, ErrAttrType},
		{"WrongType", "perm", nil, ErrAttrType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Attrs{"perm": tt.value}
			got, err := a.Ints("perm")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Ints() error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Ints() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (Attrs{}).Ints("perm"); !errors.Is(err, ErrMissingAttr) {
		t.Errorf("missing Ints() error = %v, want ErrMissingAttr", err)
	}
}

func TestAttrsIntsReturnsCopy(t *testing.T) {
	orig := []int64{1, 0}
	a := Attrs{"perm": orig}
	got, _ := a.Ints("perm")
	got[0] = 5
	if orig[0] != 1 {
		t.Error("Ints() should not alias the stored slice")
	}
}

func TestAttrsScalars(t *testing.T) {
	a := Attrs{"axis": 2.0, "to": "float", "bad": 1.25}

	if v, err := a.Int("axis"); err != nil || v != 2 {
		t.Errorf("Int(axis) = %d, %v; want 2, nil", v, err)
	}
	if _, err := a.Int("bad"); !errors.Is(err, ErrAttrType) {
		t.Errorf("Int(bad) error = %v, want ErrAttrType", err)
	}
	if s, err := a.String("to"); err != nil || s != "float" {
		t.Errorf("String(to) = %q, %v", s, err)
	}
	if _, err := a.String("axis"); !errors.Is(err, ErrAttrType) {
		t.Errorf("String(axis) error = %v, want ErrAttrType", err)
	}
	if !a.Has("to") || a.Has("missing") {
		t.Error("Has() mismatch")
	}
}

func TestAttrsFloats(t *testing.T) {
	a := Attrs{"v": []any{1.0, 2.5}, "i": []int64{3}}
	if got, err := a.Floats("v"); err != nil || !slices.Equal(got, []float64{1, 2.5}) {
		t.Errorf("Floats(v) = %v, %v", got, err)
	}
	if got, err := a.Floats("i"); err != nil || !slices.Equal(got, []float64{3}) {
		t.Errorf("Floats(i) = %v, %v", got, err)
	}
}
