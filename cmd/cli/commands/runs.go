package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/relief-allocator/pkg/core/services"
)

// RunsCmd creates the runs command
func RunsCmd(app *AppContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recently served allocations",
		Long: `List recently served allocations, newest first.

Run history is stored in the database when databaseURL is configured. Without a
database each CLI invocation keeps its own in-memory log, so this command only
sees history inside a long-running process such as serve (GET /runs).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Database == nil {
				app.Logger.Debug("Listing in-memory run history")
				fmt.Fprintln(cmd.ErrOrStderr(), "Note: databaseURL is not configured, so only runs served by this process are listed. Use GET /runs on a running server or configure a database.")
			}

			runs, err := services.ViewRuns(app.Ctx, app.Runs, app.Logger, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			return renderRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the runs as JSON")
	return cmd
}
