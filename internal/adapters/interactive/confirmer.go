package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// ConfirmerAdapter shows the campaign summary and asks for approval before
// anything is broadcast
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	out    io.Writer
	prompt func(label string) (bool, error)
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{
		config: cfg,
		out:    os.Stderr,
		prompt: confirmPrompt,
	}
}

// Confirm prints the summary and returns the operator's choice
func (c *ConfirmerAdapter) Confirm(ctx context.Context, summary usecase.CampaignSummary) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	c.printSummary(summary)
	return c.prompt(fmt.Sprintf("Deploy %d contracts on %d network(s)", len(summary.Steps), len(summary.Networks)))
}

func (c *ConfirmerAdapter) printSummary(s usecase.CampaignSummary) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	fmt.Fprintln(c.out)
	bold.Fprintf(c.out, "Plan:     %s\n", s.Plan)
	fmt.Fprintf(c.out, "Salt:     %s\n", s.Salt.Hex())
	fmt.Fprintf(c.out, "Factory:  %s\n", s.Factory.Hex())

	networks := append([]string{}, s.Networks...)
	sort.Strings(networks)
	for _, n := range networks {
		fmt.Fprintf(c.out, "Network:  %s ", color.CyanString(n))
		faint.Fprintf(c.out, "(deployer %s)\n", s.Deployers[n].Hex())
	}

	fmt.Fprintln(c.out, "Contracts:")
	for i, step := range s.Steps {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintln(c.out)
}

// confirmPrompt asks the user a yes/no question. Declining or interrupting
// the prompt is a "no".
func confirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
		return false, nil
	}
	return false, fmt.Errorf("confirmation prompt failed: %w", err)
}

var _ usecase.DeployConfirmer = (*ConfirmerAdapter)(nil)
