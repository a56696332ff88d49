package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// SpinnerProgressReporter shows per-network progress of check and
// simulate runs with a spinner
type SpinnerProgressReporter struct {
	spinner    *spinner.Spinner
	out        io.Writer
	stage      string
	stageStart time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr)
}

func newSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     out,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Stage != r.stage {
		r.stage = event.Stage
		r.stageStart = time.Now()
	}

	if !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}

	r.spinner.Suffix = " " + r.describe(event)
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// describe renders "● stage [n/total] message (elapsed)"
func (r *SpinnerProgressReporter) describe(event usecase.ProgressEvent) string {
	display := color.New(color.FgYellow).Sprint("● " + event.Stage)
	if event.Total > 0 {
		display += fmt.Sprintf(" [%d/%d]", event.Current, event.Total)
	}
	if event.Message != "" {
		display += " " + event.Message
	}
	if elapsed := time.Since(r.stageStart).Round(time.Second); elapsed > 0 {
		display += fmt.Sprintf(" (%s)", elapsed)
	}
	return display
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

func (r *SpinnerProgressReporter) println(c *color.Color, message string) {
	// Stop spinner temporarily
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	// Restart spinner if it was active
	if wasActive {
		r.spinner.Start()
	}
}

// Stop halts the spinner if it is running
func (r *SpinnerProgressReporter) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
