package scraper

import (
	"context"
	"time"
)

// pollUntil evaluates fn every interval until it reports true, the
// timeout elapses, or ctx is cancelled. It returns whether fn ever
// reported true. The wait is a timed yield, never a busy spin.
func pollUntil(ctx context.Context, interval, timeout time.Duration, fn func(context.Context) bool) bool {
	if fn(ctx) {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
			if fn(ctx) {
				return true
			}
		}
	}
}

// sleepCtx pauses for d or until ctx is cancelled, reporting whether
// the full pause elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
