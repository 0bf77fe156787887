package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphopt/pkg/pipeline"
)

// optimizeOpts holds the command-line flags for the optimize command.
type optimizeOpts struct {
	output       string // output file; stdout when empty
	format       string // input format, default from the file extension
	outputFormat string // output format, default the input format
	disable      string // comma-separated passes to skip
	report       bool   // print the per-pass report
	reportJSON   string // write the report as JSON to this file
	noCache      bool
	refresh      bool
}

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "optimize [file]",
		Short: "Optimize a graph",
		Long: `Optimize runs every enabled pass over the graph in order and writes the
optimized graph. Passes that fail are skipped; the command still succeeds.

Examples:
  graphopt optimize model.json -o model.opt.json
  graphopt optimize model.yaml --disable merge_duplication --report
  cat model.json | graphopt optimize --output-format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return c.runOptimize(cmd, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "input format: json, yaml (default from extension)")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "", "output format: json, yaml (default input format)")
	cmd.Flags().StringVar(&opts.disable, "disable", "", "passes to skip (comma-separated)")
	cmd.Flags().BoolVar(&opts.report, "report", false, "print what each pass changed")
	cmd.Flags().StringVar(&opts.reportJSON, "report-json", "", "write the run report as JSON to this file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and recompute")

	return cmd
}

func (c *CLI) runOptimize(cmd *cobra.Command, path string, opts optimizeOpts) error {
	ctx := cmd.Context()
	data, format, err := readInput(cmd, path, opts.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, data, pipeline.Options{
		Format:       format,
		OutputFormat: opts.outputFormat,
		Disable:      c.disable(splitList(opts.disable)),
		Refresh:      opts.refresh,
		Logger:       c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done("Optimized " + graphLabel(result.Report.Graph))

	if err := writeOutput(cmd.OutOrStdout(), opts.output, result.Output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if opts.reportJSON != "" {
		report, err := json.MarshalIndent(result.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := writeOutput(cmd.OutOrStdout(), opts.reportJSON, append(report, '\n')); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	w := cmd.ErrOrStderr()
	if opts.report {
		printReport(w, result.Report)
	}
	if failed := result.Report.Failed(); len(failed) > 0 {
		printWarning(w, "%d of %d passes failed and were skipped", len(failed), len(result.Report.Passes))
	}
	printRunStats(w, result.Stats.NodesBefore, result.Stats.NodesAfter, result.CacheHit)
	if opts.output != "" && opts.output != "-" {
		printFile(w, opts.output)
		printNextStep(w, "Render the result", "graphopt render "+opts.output)
	}
	return nil
}

func graphLabel(name string) string {
	if name == "" {
		return "graph"
	}
	return name
}
