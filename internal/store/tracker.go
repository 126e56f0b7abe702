package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// Tracker is the orchestrator's view of a Store. It never returns errors:
// a failed load degrades to "nothing seen before" and a failed save is
// logged.
type Tracker struct {
	store Store
}

// NewTracker wraps s.
func NewTracker(s Store) *Tracker {
	return &Tracker{store: s}
}

// LoadAll returns the stored history, or an empty map if it cannot be read.
func (t *Tracker) LoadAll(ctx context.Context) model.SeenURLs {
	urls, err := t.store.Load(ctx)
	if err != nil {
		zap.L().Error("store: load failed, treating every url as new", zap.Error(err))
		return model.SeenURLs{}
	}
	if urls == nil {
		urls = model.SeenURLs{}
	}
	zap.L().Info("store: loaded seen urls",
		zap.Int("agencies", len(urls)),
		zap.Int("urls", urls.Total()),
	)
	return urls
}

// MergeAndSave adds urls to the stored history. It reports whether the save
// succeeded.
func (t *Tracker) MergeAndSave(ctx context.Context, urls model.SeenURLs) bool {
	if err := t.store.Merge(ctx, urls); err != nil {
		zap.L().Error("store: save failed", zap.Error(err))
		return false
	}
	zap.L().Info("store: saved seen urls",
		zap.Int("agencies", len(urls)),
		zap.Int("urls", urls.Total()),
	)
	return true
}
