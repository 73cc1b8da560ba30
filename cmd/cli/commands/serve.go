package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakechorley/relief-allocator/pkg/api"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(api.Options{
				Engine:                app.Engine,
				Store:                 app.Store,
				Runs:                  app.Runs,
				Logger:                app.Logger,
				DefaultFairnessWeight: app.Cfg.DefaultFairnessWeight,
				BudgetOverrides:       app.Cfg.BudgetOverrides,
			})
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to listenAddr from config")
	return cmd
}
