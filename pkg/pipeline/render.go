package pipeline

import (
	"context"
	"fmt"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/optimizer"
	"github.com/matzehuels/graphopt/pkg/render"
)

// Render formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidRenderFormats is the set of supported render formats.
var ValidRenderFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// ValidateRenderFormat checks that a render format is valid.
func ValidateRenderFormat(format string) error {
	if !ValidRenderFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// RenderOptions configures [Render].
type RenderOptions struct {
	// Formats lists the artifacts to produce. Defaults to svg.
	Formats []string

	// Detailed, Tensors and Highlight are passed to [render.Options].
	Detailed  bool
	Tensors   bool
	Highlight []string

	// Scale is the PNG resolution factor. Defaults to 2.
	Scale float64
}

// SetDefaults applies defaults and validates the formats.
func (o *RenderOptions) SetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = 2.0
	}
	for _, f := range o.Formats {
		if err := ValidateRenderFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Render draws g in every requested format.
func Render(ctx context.Context, g *ir.Graph, opts RenderOptions) (map[string][]byte, error) {
	if err := opts.SetDefaults(); err != nil {
		return nil, err
	}
	dot := render.ToDOT(g, render.Options{
		Detailed:  opts.Detailed,
		Tensors:   opts.Tensors,
		Highlight: opts.Highlight,
	})

	artifacts := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	for _, format := range opts.Formats {
		if format == FormatDOT {
			artifacts[format] = []byte(dot)
			continue
		}
		if svg == nil {
			var err error
			if svg, err = render.RenderSVG(ctx, dot); err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
		}

		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg, opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// ChangedOps returns the operator types whose counts changed in report,
// suitable for [RenderOptions.Highlight].
func ChangedOps(report *optimizer.Report) []string {
	if report == nil {
		return nil
	}
	ops := make([]string, 0, len(report.Deltas))
	for _, d := range report.Deltas {
		if d.After > 0 {
			ops = append(ops, d.Op)
		}
	}
	return ops
}
