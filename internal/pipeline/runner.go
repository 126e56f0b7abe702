package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// CycleRunner is anything that can run one cycle.
type CycleRunner interface {
	Run(ctx context.Context) *model.CycleReport
}

// Runner wraps a cycle with a hard wall-clock limit and remembers the last
// report. Cycles started through one Runner never overlap.
type Runner struct {
	cycle   CycleRunner
	timeout time.Duration
	grace   time.Duration
	exit    func(code int)

	runMu sync.Mutex

	mu      sync.RWMutex
	last    *model.CycleReport
	running bool
}

// NewRunner creates a Runner. The cycle context is cancelled after timeout;
// if the cycle has still not returned grace later the process exits.
func NewRunner(cycle CycleRunner, timeout, grace time.Duration) *Runner {
	return &Runner{cycle: cycle, timeout: timeout, grace: grace, exit: os.Exit}
}

// RunOnce runs a single cycle under the hard limit.
func (r *Runner) RunOnce(ctx context.Context) *model.CycleReport {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.setRunning(true)
	defer r.setRunning(false)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()

		watchdog := time.AfterFunc(r.timeout+r.grace, func() {
			zap.L().Error("pipeline: cycle exceeded hard timeout, exiting",
				zap.Duration("timeout", r.timeout),
				zap.Duration("grace", r.grace),
			)
			_ = zap.L().Sync()
			r.exit(1)
		})
		defer watchdog.Stop()
	}

	report := r.cycle.Run(ctx)

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
	return report
}

// Last returns the most recent finished cycle report, or nil.
func (r *Runner) Last() *model.CycleReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Running reports whether a cycle is in progress.
func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runner) setRunning(v bool) {
	r.mu.Lock()
	r.running = v
	r.mu.Unlock()
}
