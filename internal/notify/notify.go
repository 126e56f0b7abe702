// Package notify delivers the consolidated per-cycle match report.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// Notifier sends one message covering all matches of a cycle.
type Notifier interface {
	Notify(ctx context.Context, matches []model.Match) error
	Name() string
}

// Multi fans a report out to several notifiers. Each failure is logged on
// its own and does not stop the remaining notifiers.
type Multi []Notifier

// Notify implements Notifier. It returns the joined errors of the notifiers
// that failed.
func (m Multi) Notify(ctx context.Context, matches []model.Match) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, matches); err != nil {
			zap.L().Error("notify: notifier failed",
				zap.String("notifier", n.Name()),
				zap.Int("matches", len(matches)),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		zap.L().Info("notify: sent",
			zap.String("notifier", n.Name()),
			zap.Int("matches", len(matches)),
		)
	}
	return errors.Join(errs...)
}

// Name implements Notifier.
func (m Multi) Name() string { return "multi" }
