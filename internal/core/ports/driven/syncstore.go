package driven

import (
	"context"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// SyncStateStore persists tracker state so a restart resumes where it stopped.
// Backing media (watcher file, database row, key-value store) are interchangeable.
type SyncStateStore interface {
	// Load returns the state for a source.
	// A source that was never saved yields domain.NewSyncState.
	Load(ctx context.Context, sourceID string) (*domain.SyncState, error)

	// Save stores or overwrites the state in place.
	Save(ctx context.Context, state *domain.SyncState) error
}
