package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// Connector is a pollable file source.
// Each source type (filesystem, google drive) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() domain.SourceType

	// SourceID returns the identifier state is persisted under.
	SourceID() string

	// Validate checks the connector is configured and reachable.
	// For the filesystem this checks the root exists and is a directory.
	// For cloud sources this makes a lightweight API call.
	Validate(ctx context.Context) error

	// ListChanged returns every item modified or created after since.
	// Sources without a change query also return items absent from known.
	// Trashed items are returned with Trashed set so callers can remove them.
	ListChanged(ctx context.Context, since time.Time, known map[string]time.Time) ([]domain.WatchedItem, error)

	// IsDeleted reports whether a known item is gone or trashed.
	// Any error other than "not found" is returned and must be treated
	// as transient: the item is not deleted.
	IsDeleted(ctx context.Context, id string) (bool, error)

	// Fetch downloads (or exports) the bytes of an item.
	Fetch(ctx context.Context, item domain.WatchedItem) (*domain.RawDocument, error)

	// Close releases resources.
	Close() error
}

// Notifier is implemented by connectors that can push change hints.
// A hint only shortens the poll sleep; it never replaces polling.
type Notifier interface {
	// Watch returns a channel that receives a value whenever the source
	// observed a change. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
