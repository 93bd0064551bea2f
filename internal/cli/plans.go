package cli

import (
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/treb-genesis/internal/cli/render"
)

// NewPlansCmd creates the plans command
func NewPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List built-in plans and plan files under plans/",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListPlans.Run(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), result)
			}
			return render.NewStatusRenderer(cmd.OutOrStdout(), true).RenderPlans(result)
		},
	}
}
