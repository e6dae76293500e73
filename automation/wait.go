package automation

import (
	"context"
	"time"
)

// poll calls cond until it returns true, timeout elapses or ctx is done.
// cond always runs at least once. It reports whether cond succeeded.
func poll(ctx context.Context, timeout, interval time.Duration, cond func() bool) bool {
	if cond() {
		return true
	}
	if timeout <= 0 {
		return false
	}
	if interval <= 0 {
		interval = timeout
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
			// One last look so a condition met right at the bound still counts.
			return cond()
		case <-tick.C:
			if cond() {
				return true
			}
		}
	}
}

// sleep pauses for d or until ctx is done, returning ctx.Err() in that case.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
