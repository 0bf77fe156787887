package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/optimizer"
	"github.com/matzehuels/graphopt/pkg/pipeline"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var inputFormat string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print node statistics of a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			data, format, err := readInput(cmd, path, inputFormat)
			if err != nil {
				return err
			}
			f, err := graphio.ParseFormat(format)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidFormat, err, "input format")
			}
			g, err := pipeline.Decode(data, f)
			if err != nil {
				return err
			}

			stats := g.NodeStatistics()
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"graph":      g.Name(),
					"nodes":      g.NodeCount(),
					"statistics": stats,
				})
			}

			fmt.Fprintln(w, StyleTitle.Render(graphLabel(g.Name())))
			printKeyValue(w, "nodes", StyleNumber.Render(fmt.Sprint(g.NodeCount())))
			printKeyValue(w, "inputs", fmt.Sprint(len(g.Inputs())))
			printKeyValue(w, "outputs", fmt.Sprint(len(g.Outputs())))
			if len(stats) > 0 {
				fmt.Fprintln(w)
				printStatistics(w, stats)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "input format: json, yaml (default from extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")

	return cmd
}

// passesCommand creates the passes command.
func (c *CLI) passesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List optimization passes in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := c.registry()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, name := range optimizer.DefaultRegistry().Names() {
				if slices.Contains(enabled.Names(), name) {
					fmt.Fprintf(w, "%d. %s\n", i+1, name)
					continue
				}
				fmt.Fprintf(w, "%d. %s %s\n", i+1, name, StyleDim.Render("(disabled)"))
			}
			return nil
		},
	}
}
