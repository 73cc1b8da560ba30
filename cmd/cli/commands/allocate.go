package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/core/services"
	"github.com/jakechorley/relief-allocator/pkg/scenarios"
)

// parseRunDate parses a YYYY-MM-DD flag value, defaulting to today
func parseRunDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got: %s", value)
	}
	return date, nil
}

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	var (
		date           string
		fairnessWeight float64
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "allocate <request.yaml>",
		Short: "Allocate volunteers across the zones in a request file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := scenarios.LoadRequestFile(args[0], app.Cfg.DefaultFairnessWeight)
			if err != nil {
				return err
			}

			runDate, err := parseRunDate(date)
			if err != nil {
				return err
			}
			req, _, err = services.ResolveBudget(req, app.Cfg.BudgetOverrides, runDate, app.Logger)
			if err != nil {
				return err
			}

			// An explicit flag beats a dated override
			if cmd.Flags().Changed("fairness-weight") {
				req.FairnessWeight = fairnessWeight
			}

			app.Logger.Debug("allocate command",
				zap.String("file", args[0]),
				zap.Int("zones", len(req.Zones)),
				zap.Int("available_volunteers", req.AvailableVolunteers))

			resp, err := services.AllocateVolunteers(app.Ctx, app.Engine, app.Store, app.Runs, app.Logger, req)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return renderPlan(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Run date (YYYY-MM-DD) used to match budget overrides, defaults to today")
	cmd.Flags().Float64Var(&fairnessWeight, "fairness-weight", 0, "Fairness weight for this run, taking precedence over the request file and budget overrides")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the response as JSON")
	return cmd
}
