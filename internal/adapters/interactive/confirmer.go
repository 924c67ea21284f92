package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// ConfirmerAdapter asks for confirmation before the first broadcast of a run
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	out    io.Writer
}

// NewConfirmerAdapter creates a new confirmer
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg, out: os.Stderr}
}

// ConfirmBroadcast prints the summary and waits for y/N.
// Non-interactive runs are confirmed implicitly.
func (c *ConfirmerAdapter) ConfirmBroadcast(ctx context.Context, summary usecase.BroadcastSummary) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	bold := color.New(color.Bold)
	fmt.Fprintln(c.out)
	bold.Fprintln(c.out, "About to broadcast:")
	fmt.Fprintf(c.out, "  Network: %s", color.CyanString(summary.Network))
	if summary.ChainID != 0 {
		fmt.Fprintf(c.out, " (chain %d)", summary.ChainID)
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  Sender:  %s\n", color.GreenString(summary.Sender.Hex()))
	for _, action := range summary.Actions {
		fmt.Fprintf(c.out, "  - %s\n", action)
	}
	fmt.Fprintln(c.out)

	prompt := promptui.Prompt{
		Label:     "Proceed",
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		// promptui reports "N" as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	return strings.EqualFold(result, "y") || strings.EqualFold(result, "yes"), nil
}

var _ usecase.BroadcastConfirmer = (*ConfirmerAdapter)(nil)
