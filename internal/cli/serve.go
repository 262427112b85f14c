package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the jobs and models HTTP API until interrupted.

Examples:
  scaffold serve
  scaffold serve --addr 127.0.0.1:9000 --db /var/lib/scaffold/jobs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				rootOpts.Config.Server.Addr = addr
			}
			if !rootOpts.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			h := api.NewHandler(a.models, a.store, api.Options{
				Logger:            rootOpts.Logger,
				DefaultBayLengthM: rootOpts.Config.DefaultBayLengthM,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := api.Serve(ctx, rootOpts.Config.Server.Addr, api.NewRouter(h), rootOpts.Logger); err != nil {
				return WrapExitError(ExitCommandError, "server failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config server.addr)")

	return cmd
}
