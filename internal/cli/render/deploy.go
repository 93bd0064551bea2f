package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// DeployRenderer renders plan runs and address predictions
type DeployRenderer struct {
	out   io.Writer
	color bool
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer, color bool) *DeployRenderer {
	return &DeployRenderer{
		out:   out,
		color: color,
	}
}

// RenderRun renders the outcome of every network run
func (r *DeployRenderer) RenderRun(result *usecase.RunPlanResult) error {
	r.header(result.Plan, result.Salt, result.Factory.Hex())

	for _, n := range result.Networks {
		r.renderNetwork(n, true)
		if n.ReportPath != "" {
			fmt.Fprintf(r.out, "  %s\n", faintStyle.Sprintf("report: %s", n.ReportPath))
		}
		fmt.Fprintln(r.out)
	}

	failed := result.Failed()
	if len(failed) == 0 {
		fmt.Fprintln(r.out, FormatSuccess("Plan completed on every network"))
		return nil
	}
	for _, n := range failed {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%s: %v", n.Network, n.Err)))
	}
	return nil
}

// RenderPredict renders derived addresses and, when probed, their state
func (r *DeployRenderer) RenderPredict(result *usecase.PredictAddressesResult) error {
	r.header(result.Plan, result.Salt, result.Factory.Hex())
	fmt.Fprintf(r.out, "Deployer: %s\n\n", formatAddress(result.Deployer))

	for _, n := range result.Networks {
		r.renderNetwork(n, false)
		if n.Err != nil {
			fmt.Fprintf(r.out, "  %s\n", FormatWarning(n.Err.Error()))
		}
		fmt.Fprintln(r.out)
	}
	return nil
}

func (r *DeployRenderer) header(plan string, salt domain.Salt, factory string) {
	fmt.Fprintln(r.out, headerStyle.Sprintf("Plan %s", plan))
	fmt.Fprintf(r.out, "Salt:     %s\n", salt.Hex())
	fmt.Fprintf(r.out, "Factory:  %s\n", factory)
	fmt.Fprintln(r.out)
}

func (r *DeployRenderer) renderNetwork(n *usecase.NetworkRunResult, withTx bool) {
	title := n.Network
	if n.ChainID != 0 {
		title = fmt.Sprintf("%s (%d)", n.Network, n.ChainID)
	}
	fmt.Fprintln(r.out, networkHeader.Sprintf(" %s ", title))

	header := table.Row{"Contract", "Address", "Status"}
	if withTx {
		header = append(header, "Tx")
	}
	t := newTable(header)
	for _, s := range n.Steps {
		row := table.Row{
			color.New(color.Bold).Sprint(s.Step),
			formatAddress(s.Address),
			FormatStatus(s.Status),
		}
		if withTx {
			row = append(row, formatHash(s.TxHash))
		}
		t.AppendRow(row)
	}
	fmt.Fprintln(r.out, t.Render())
}
