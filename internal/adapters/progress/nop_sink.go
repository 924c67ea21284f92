package progress

import (
	"context"

	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// NopSink drops all progress output. Used for --json and --non-interactive runs.
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

func (n *NopSink) Info(message string) {}

func (n *NopSink) Error(message string) {}

var _ usecase.ProgressSink = (*NopSink)(nil)
