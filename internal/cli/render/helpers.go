package render

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

var (
	headerStyle   = color.New(color.Bold, color.FgHiWhite)
	networkHeader = color.New(color.BgCyan, color.FgBlack, color.Bold)
	addressStyle  = color.New(color.FgWhite)
	faintStyle    = color.New(color.Faint)
	titleCaser    = cases.Title(language.English)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatStatus colors a step status by outcome
func FormatStatus(status models.StepStatus) string {
	label := titleCaser.String(status.Label())
	switch status {
	case models.StatusDeployed:
		return color.New(color.FgGreen, color.Bold).Sprint(label)
	case models.StatusAlreadyDeployed:
		return color.New(color.FgGreen).Sprint(label)
	case models.StatusFailed:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case models.StatusPending:
		return faintStyle.Sprint(label)
	default:
		return color.New(color.FgYellow).Sprint(label)
	}
}

func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return faintStyle.Sprint("-")
	}
	return addressStyle.Sprint(addr.Hex())
}

func formatHash(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return faintStyle.Sprint(h.Hex())
}

// newTable returns a borderless table in the CLI's list style
func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: " ",
	}
	t.Style().Format.Header = text.FormatDefault
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}
