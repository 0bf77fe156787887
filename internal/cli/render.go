package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	format   string   // input format
	formats  []string // output formats: "dot", "svg", "png", "pdf"
	detailed bool     // show node attributes
	tensors  bool     // label edges with tensor names
	optimize bool     // optimize before drawing and highlight what changed
	disable  string   // passes to skip when optimizing
	scale    float64  // PNG resolution factor
	noCache  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 2.0}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Draw a graph as DOT, SVG, PNG or PDF",
		Long: `Render draws the graph with Graphviz. With --optimize the graph is
optimized first and node types whose count changed are highlighted.

PNG and PDF output requires rsvg-convert (librsvg) on PATH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if err := pipeline.ValidateRenderFormat(f); err != nil {
					return err
				}
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&opts.format, "input-format", "", "input format: json, yaml (default from extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node attributes")
	cmd.Flags().BoolVar(&opts.tensors, "tensors", false, "label edges with tensor names")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "optimize the graph before drawing")
	cmd.Flags().StringVar(&opts.disable, "disable", "", "passes to skip with --optimize (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if formats := splitList(s); len(formats) > 0 {
		return formats
	}
	return []string{pipeline.FormatSVG}
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a render format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "graph"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidRenderFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads the graph, optionally optimizes it, and writes one file
// per requested format.
func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	data, format, err := readInput(cmd, input, opts.format)
	if err != nil {
		return err
	}

	g, highlight, err := c.loadForRender(cmd, data, format, opts)
	if err != nil {
		return err
	}
	c.Logger.Infof("Rendering %s: %d nodes", graphLabel(g.Name()), g.NodeCount())

	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), "Rendering...")
	spinner.Start()
	artifacts, err := pipeline.Render(ctx, g, pipeline.RenderOptions{
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Tensors:   opts.tensors,
		Highlight: highlight,
		Scale:     opts.scale,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %d file(s)", len(opts.formats)))

	w := cmd.ErrOrStderr()
	base := basePath(opts.output, input)
	for _, f := range opts.formats {
		path := base + "." + f
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeOutput(cmd.OutOrStdout(), path, artifacts[f]); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
		c.Logger.Debugf("Generated %s: %d bytes", f, len(artifacts[f]))
		printFile(w, path)
	}
	return nil
}

// loadForRender decodes the graph, or optimizes it when requested and
// returns the op types to highlight.
func (c *CLI) loadForRender(cmd *cobra.Command, data []byte, format string, opts *renderOpts) (*ir.Graph, []string, error) {
	if !opts.optimize {
		f, err := graphio.ParseFormat(format)
		if err != nil {
			return nil, nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "input format")
		}
		g, err := pipeline.Decode(data, f)
		return g, nil, err
	}

	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return nil, nil, err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, data, pipeline.Options{
		Format:  format,
		Disable: c.disable(splitList(opts.disable)),
		Logger:  c.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	printInfo(cmd.ErrOrStderr(), "%s", formatDeltas(result.Report.Deltas))
	return result.Graph, pipeline.ChangedOps(result.Report), nil
}
