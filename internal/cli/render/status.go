package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// StatusRenderer renders address probes and plan lists
type StatusRenderer struct {
	out   io.Writer
	color bool
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer, color bool) *StatusRenderer {
	return &StatusRenderer{
		out:   out,
		color: color,
	}
}

// RenderStatuses renders whether code exists at each probed address
func (r *StatusRenderer) RenderStatuses(result *usecase.ProbeAddressesResult) error {
	if len(result.Statuses) == 0 {
		fmt.Fprintln(r.out, "No addresses to probe")
		return nil
	}

	t := newTable(table.Row{"Network", "Address", "Status"})
	for _, s := range result.Statuses {
		status := FormatStatus(models.StatusPending)
		switch {
		case s.Error != nil:
			status = FormatError(s.Error.Error())
		case s.Deployed:
			status = FormatStatus(models.StatusAlreadyDeployed)
		}
		t.AppendRow(table.Row{s.Network, formatAddress(s.Address), status})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderPlans renders the available plans, marking the configured one
func (r *StatusRenderer) RenderPlans(result *usecase.ListPlansResult) error {
	if len(result.Plans) == 0 {
		fmt.Fprintln(r.out, "No plans available")
		return nil
	}

	t := newTable(table.Row{"", "Plan", "Source", "Description"})
	for _, p := range result.Plans {
		marker := ""
		if p.Name == result.Default {
			marker = "*"
		}
		t.AppendRow(table.Row{marker, headerStyle.Sprint(p.Name), faintStyle.Sprint(p.Source), p.Description})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
