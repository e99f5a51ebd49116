package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// SyncTracker detects changes in one watched source and keeps its index current.
type SyncTracker interface {
	// InitialScan records every item currently in the source as known
	// without indexing it. Items newer than the last check are still
	// processed by the next cycle. Returns the number of known items.
	InitialScan(ctx context.Context) (int, error)

	// Poll returns items changed since the last check, then advances and
	// persists the check time even when nothing changed.
	Poll(ctx context.Context) ([]domain.WatchedItem, error)

	// DetectDeletions returns known ids the source reports as gone.
	// Transient source errors never mark an id as deleted.
	DetectDeletions(ctx context.Context) ([]string, error)

	// RunCycle polls, detects deletions, and processes every change once.
	RunCycle(ctx context.Context) (*CycleReport, error)

	// Run loops RunCycle every interval until ctx is cancelled.
	// Cancellation is a clean shutdown and returns nil.
	Run(ctx context.Context, interval time.Duration) error
}

// CycleReport summarises one poll cycle.
type CycleReport struct {
	// SourceID identifies the source.
	SourceID string

	// Changed is the number of items the poll returned.
	Changed int

	// Processed is the number of items indexed successfully.
	Processed int

	// Skipped is the number of unsupported items.
	Skipped int

	// Failed is the number of items whose extraction or indexing failed.
	Failed int

	// Deleted is the number of ids removed from the index.
	Deleted int
}
