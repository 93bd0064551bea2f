package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/treb-genesis/internal/cli/render"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <address>...",
		Short: "Check whether code exists at addresses on the configured networks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			addresses, err := parseAddresses(args)
			if err != nil {
				return err
			}

			result, err := app.ProbeAddresses.Run(cmd.Context(), usecase.ProbeAddressesParams{Addresses: addresses})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.StatusesJSON(cmd.OutOrStdout(), result)
			}
			return render.NewStatusRenderer(cmd.OutOrStdout(), true).RenderStatuses(result)
		},
	}
}

func parseAddresses(args []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(args))
	for _, a := range args {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, a)
		}
		out = append(out, common.HexToAddress(a))
	}
	return out, nil
}
