package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// NextInterval picks a wait uniformly from [lo, hi]. A hi not above lo
// yields lo.
func NextInterval(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// Watch runs a cycle immediately and then again after a random interval in
// [lo, hi], until ctx is done. The next wait starts only once the previous
// cycle has returned.
func Watch(ctx context.Context, r *Runner, lo, hi time.Duration) {
	for {
		r.RunOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		wait := NextInterval(lo, hi)
		zap.L().Info("pipeline: next cycle scheduled",
			zap.Duration("in", wait),
			zap.Time("at", time.Now().Add(wait)),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			zap.L().Info("pipeline: watch stopped")
			return
		case <-timer.C:
		}
	}
}
