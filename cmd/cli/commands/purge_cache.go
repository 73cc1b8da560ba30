package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PurgeCacheCmd creates the purgeCache command
func PurgeCacheCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purgeCache",
		Short: "Remove every cached allocation from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Database == nil {
				return errors.New("databaseURL is not configured, the in-memory cache lives only for one process")
			}

			removed, err := app.Database.PurgeCache(app.Ctx)
			if err != nil {
				return err
			}

			app.Logger.Info("Allocation cache purged", zap.Int64("removed", removed))
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d cached allocations\n", removed)
			return nil
		},
	}
}
