package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out   io.Writer
	color bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, color bool) *NetworksRenderer {
	return &NetworksRenderer{
		out:   out,
		color: color,
	}
}

// RenderNetworksList renders the list of networks with their campaign role
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in genesis.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		role := ""
		if network.Role != "" {
			role = color.New(color.FgCyan).Sprintf(" [%s]", network.Role)
		}
		if network.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s%s - Error: %v\n", network.Name, role, network.Error)
			continue
		}
		chainID := "any"
		if network.ChainID != 0 {
			chainID = fmt.Sprint(network.ChainID)
		}
		fmt.Fprintf(r.out, "  ✅ %s%s - Chain ID: %s\n", network.Name, role, chainID)
	}

	return nil
}
