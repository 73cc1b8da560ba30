package commands

import (
	"github.com/spf13/cobra"
)

// ModelInfoCmd creates the modelInfo command
func ModelInfoCmd(app *AppContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modelInfo",
		Short: "Describe the optimization model and solver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.Engine.ModelInfo(app.Cfg.DefaultFairnessWeight)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			renderModelInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the model info as JSON")
	return cmd
}
