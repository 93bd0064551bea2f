package cli

import (
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/treb-genesis/internal/cli/render"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// NewPredictCmd creates the predict command
func NewPredictCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "predict [plan]",
		Short: "Show the addresses the plan's contracts will be deployed at",
		Long: `Derive the CREATE2 address of every contract of a plan. Addresses only
depend on the factory, the salt, the deployer and the artifacts, so they are
identical on every network.

Unless --offline is given, every configured network is probed and contracts
that are already deployed are marked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.PredictAddressesParams{Offline: offline}
			if len(args) > 0 {
				params.Plan = args[0]
			}

			result, err := app.PredictAddresses.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.PredictJSON(cmd.OutOrStdout(), result)
			}
			return render.NewDeployRenderer(cmd.OutOrStdout(), true).RenderPredict(result)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Derive addresses without contacting any network")

	return cmd
}
