package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphopt/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the optimizer over HTTP",
		Long: `Serve starts the HTTP API:

  GET  /healthz
  GET  /v1/passes
  POST /v1/optimize?format=json|yaml&output=json|yaml&disable=a,b&refresh=true
  POST /v1/stats
  POST /v1/render?as=svg|dot

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			c.Logger.Info("Starting server", "addr", addr, "passes", runner.Registry.Names())
			return server.New(runner, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}
