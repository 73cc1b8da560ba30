package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/core/services"
	"github.com/jakechorley/relief-allocator/pkg/scenarios"
)

type scenarioResult struct {
	ScenarioID   string                       `json:"scenario_id"`
	ScenarioName string                       `json:"scenario_name,omitempty"`
	Response     *services.AllocationResponse `json:"response,omitempty"`
	Error        string                       `json:"error,omitempty"`
}

// ScenariosCmd creates the scenarios command
func ScenariosCmd(app *AppContext) *cobra.Command {
	var (
		workers int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "scenarios <file.csv>",
		Short: "Allocate every scenario in a CSV batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := scenarios.LoadCSVFile(args[0], app.Cfg.DefaultFairnessWeight)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("workers") {
				workers = app.Cfg.ScenarioWorkers
			}
			if workers < 1 {
				return fmt.Errorf("workers must be a positive integer, got: %d", workers)
			}

			app.Logger.Debug("scenarios command", zap.String("file", args[0]), zap.Int("scenarios", len(batch)))

			outcomes := services.AllocateScenarios(app.Ctx, app.Engine, app.Store, app.Runs, app.Logger, batch, workers)

			if asJSON {
				results := make([]scenarioResult, len(outcomes))
				for i, o := range outcomes {
					results[i] = scenarioResult{ScenarioID: o.Scenario.ID, ScenarioName: o.Scenario.Name, Response: o.Response}
					if o.Err != nil {
						results[i].Error = o.Err.Error()
					}
				}
				return writeJSON(cmd.OutOrStdout(), results)
			}

			return renderScenarios(cmd.OutOrStdout(), outcomes)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Number of scenarios solved concurrently, defaults to scenarioWorkers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results as JSON")
	return cmd
}
