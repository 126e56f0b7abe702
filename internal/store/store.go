// Package store persists the per-agency seen-URL history across cycles.
package store

import (
	"context"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// Store is the persistence contract for seen URLs. Merge is additive: the
// stored set for each agency in the input becomes the union of what was
// stored and what was passed. Nothing is ever removed.
type Store interface {
	// Load returns all stored URLs. A store with no state yet returns an
	// empty, non-nil map.
	Load(ctx context.Context) (model.SeenURLs, error)
	Merge(ctx context.Context, urls model.SeenURLs) error

	Migrate(ctx context.Context) error
	Close() error
}
