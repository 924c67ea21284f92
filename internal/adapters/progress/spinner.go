package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// SpinnerSink shows a spinner while transactions wait for confirmation and
// prints one line per finished deployment or call.
type SpinnerSink struct {
	mu        sync.Mutex
	spinner   *spinner.Spinner
	out       io.Writer
	startedAt time.Time
}

// NewSpinnerSink creates a spinner sink writing to stderr
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerSink{
		spinner: s,
		out:     os.Stderr,
	}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Spinner {
		if !r.spinner.Active() {
			r.startedAt = time.Now()
			r.spinner.Start()
		}
		r.spinner.Suffix = " " + event.Message
		return
	}

	elapsed := ""
	if r.spinner.Active() {
		r.spinner.Stop()
		elapsed = fmt.Sprintf(" (%s)", time.Since(r.startedAt).Round(100*time.Millisecond))
	}

	switch event.Stage {
	case "deployed", "confirmed":
		fmt.Fprintf(r.out, "%s %s%s\n", color.GreenString("✓"), event.Message, color.New(color.Faint).Sprint(elapsed))
	case "failed":
		fmt.Fprintf(r.out, "%s %s%s\n", color.RedString("✗"), event.Message, color.New(color.Faint).Sprint(elapsed))
	case "step":
		color.New(color.FgCyan, color.Bold).Fprintln(r.out, event.Message)
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.print(color.New(color.FgRed), message)
}

func (r *SpinnerSink) print(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)

// Stop stops the spinner if it is still running
func (r *SpinnerSink) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}
