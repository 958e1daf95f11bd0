package ingest

import (
	"context"
	"log/slog"
	"time"

	"callwire/internal/model"
)

// SendNonBlocking drops the segment rather than stalling a feed when the
// engine channel is full.
func SendNonBlocking(ctx context.Context, out chan<- model.Segment, seg model.Segment, logger *slog.Logger) bool {
	select {
	case out <- seg:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("segment channel full, dropping segment", "call_id", seg.CallID, "source", seg.Source)
		}
		return false
	}
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
