package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// SpinnerSink shows a spinner while deployments await confirmation and prints
// one line per settled contract. Events from concurrent networks are serialized.
type SpinnerSink struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	active  map[string]string // network -> message of the pending deployment
}

// NewSpinnerSink creates a new spinner-based progress sink on stderr
func NewSpinnerSink() *SpinnerSink {
	return newSpinnerSink(os.Stderr)
}

func newSpinnerSink(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerSink{
		out:     out,
		spinner: s,
		active:  make(map[string]string),
	}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Stage {
	case usecase.StageDeploying:
		r.active[event.Network] = fmt.Sprintf("[%s %d/%d] deploying %s", event.Network, event.Current, event.Total, event.Message)
	case usecase.StageSettled, usecase.StageFailed:
		delete(r.active, event.Network)
		r.println(eventLine(event))
	}

	r.refresh()
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.println(color.New(color.FgCyan).Sprint(message))
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.println(color.New(color.FgRed).Sprint(message))
}

// Stop halts the spinner
func (r *SpinnerSink) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// println writes a line with the spinner paused. Callers hold mu.
func (r *SpinnerSink) println(line string) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fmt.Fprintln(r.out, line)
	if wasActive {
		r.spinner.Start()
	}
}

// refresh starts, updates or stops the spinner from the pending deployments. Callers hold mu.
func (r *SpinnerSink) refresh() {
	if len(r.active) == 0 {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}

	var suffix string
	for _, msg := range sortedValues(r.active) {
		suffix += " " + msg
	}
	r.spinner.Suffix = suffix
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

func eventLine(event usecase.ProgressEvent) string {
	res, _ := event.Metadata.(*models.StepResult)
	if res == nil {
		return fmt.Sprintf("[%s] %s", event.Network, event.Message)
	}

	var icon string
	var c *color.Color
	switch res.Status {
	case models.StatusDeployed:
		icon, c = "✓", color.New(color.FgGreen)
	case models.StatusAlreadyDeployed:
		icon, c = "=", color.New(color.FgWhite, color.Faint)
	default:
		icon, c = "✗", color.New(color.FgRed)
	}
	return c.Sprintf("%s [%s] %s", icon, event.Network, event.Message)
}

func sortedValues(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) string { return m[k] })
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
