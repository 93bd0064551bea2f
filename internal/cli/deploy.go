package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trebuchet-org/treb-genesis/internal/cli/render"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy every contract of the plan through the genesis factory",
		Long: `Deploy every contract of the plan on the primary network and, when
configured, on the companion network.

Each contract is derived, probed and only deployed when no code exists at its
address yet. The first failure on a network halts that network's run; the
other network continues. Re-running the command resumes where it stopped.

Examples:
  # Deploy the configured plan on sepolia
  treb-genesis deploy -n sepolia

  # Mirror the campaign on a companion network, one network after the other
  treb-genesis deploy -n sepolia --companion holesky --sequential

  # Show what would be deployed without signing anything
  treb-genesis deploy -n sepolia --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if app.Config.DryRun {
				result, err := app.PredictAddresses.Run(cmd.Context(), usecase.PredictAddressesParams{})
				if err != nil {
					return err
				}
				if app.Config.JSON {
					return render.PredictJSON(cmd.OutOrStdout(), result)
				}
				return render.NewDeployRenderer(cmd.OutOrStdout(), true).RenderPredict(result)
			}

			result, err := app.RunPlan.Run(cmd.Context(), usecase.RunPlanParams{
				NonInteractive: app.Config.NonInteractive || app.Config.JSON,
				Sequential:     app.Config.Sequential,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				err = render.RunJSON(cmd.OutOrStdout(), result)
			} else {
				err = render.NewDeployRenderer(cmd.OutOrStdout(), true).RenderRun(result)
			}
			if err != nil {
				return err
			}

			if failed := result.Failed(); len(failed) > 0 {
				return fmt.Errorf("plan %s failed on %d network(s)", result.Plan, len(failed))
			}
			return nil
		},
	}

	cmd.Flags().Bool("sequential", false, "Run the companion network after the primary instead of alongside it")
	cmd.Flags().Bool("dry-run", false, "Derive and probe addresses without sending transactions")

	return cmd
}
