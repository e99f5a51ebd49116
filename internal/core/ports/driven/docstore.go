package driven

import (
	"context"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// IndexStore persists what the indexer derives from one document:
// a metadata record keyed by file id, tabular rows with dataset_id = file id,
// and chunks with their embeddings.
//
// Writes are not wrapped in a transaction across calls. A crash between
// UpsertDocument and InsertChunks leaves a metadata record without chunks
// until the next successful run replaces it.
type IndexStore interface {
	// DeleteDocument removes the chunks, rows, and metadata record of a file.
	// Deleting an unknown file id is not an error.
	DeleteDocument(ctx context.Context, fileID string) error

	// UpsertDocument stores or replaces the metadata record.
	UpsertDocument(ctx context.Context, rec domain.DocumentRecord) error

	// InsertRows appends tabular rows for a file.
	InsertRows(ctx context.Context, fileID string, rows []map[string]any) error

	// InsertChunks appends embedded chunks.
	InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error

	// GetDocument retrieves the metadata record.
	// Returns domain.ErrNotFound if the file was never indexed.
	GetDocument(ctx context.Context, fileID string) (*domain.DocumentRecord, error)

	// ListChunks returns the chunks of a file ordered by chunk index.
	ListChunks(ctx context.Context, fileID string) ([]domain.StoredChunk, error)

	// ListRows returns the tabular rows of a file in insertion order.
	ListRows(ctx context.Context, fileID string) ([]domain.StoredRow, error)

	// Close releases resources.
	Close() error
}
