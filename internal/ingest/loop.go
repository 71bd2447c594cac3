package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loop runs a cycle immediately and then every interval until ctx is done.
// After consecutive fully-failed cycles the interval is stretched.
func (r *Runner) Loop(ctx context.Context, symbols []string, base time.Duration) {
	if base <= 0 {
		base = time.Minute
	}
	failures := 0
	for {
		report := r.RunCycle(ctx, symbols)
		if report.AllFailed() {
			failures++
		} else {
			failures = 0
		}
		interval := nextInterval(base, failures)
		if interval != base {
			r.log.Warn("ingest backing off",
				zap.Int("consecutive_failures", failures),
				zap.Duration("interval", interval),
			)
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func nextInterval(base time.Duration, failures int) time.Duration {
	if failures >= 6 {
		return base * 4
	}
	if failures >= 3 {
		return base * 2
	}
	return base
}
