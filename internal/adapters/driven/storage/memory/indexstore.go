package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// It backs tests and RAGSYNC_STORE=memory.
type IndexStore struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentRecord
	rows      map[string][]domain.StoredRow
	chunks    map[string][]domain.StoredChunk
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		documents: make(map[string]domain.DocumentRecord),
		rows:      make(map[string][]domain.StoredRow),
		chunks:    make(map[string][]domain.StoredChunk),
	}
}

// DeleteDocument removes a document with its rows and chunks.
func (s *IndexStore) DeleteDocument(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, fileID)
	delete(s.rows, fileID)
	delete(s.chunks, fileID)
	return nil
}

// UpsertDocument stores or replaces a metadata record.
func (s *IndexStore) UpsertDocument(_ context.Context, rec domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[rec.FileID] = rec
	return nil
}

// InsertRows appends tabular rows.
func (s *IndexStore) InsertRows(_ context.Context, fileID string, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows[fileID] = append(s.rows[fileID], domain.StoredRow{
			ID:        uuid.NewString(),
			DatasetID: fileID,
			Data:      r,
		})
	}
	return nil
}

// InsertChunks appends chunks, grouped by the file id in their metadata.
func (s *IndexStore) InsertChunks(_ context.Context, chunks []domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		fileID := c.FileID()
		s.chunks[fileID] = append(s.chunks[fileID], domain.StoredChunk{
			ID:         uuid.NewString(),
			FileID:     fileID,
			Content:    c.Content,
			ChunkIndex: c.ChunkIndex,
			Metadata:   c.Metadata.Fields(),
			Embedding:  c.Embedding,
		})
	}
	return nil
}

// GetDocument retrieves a metadata record.
func (s *IndexStore) GetDocument(_ context.Context, fileID string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.documents[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListChunks returns the chunks of a file ordered by chunk index.
func (s *IndexStore) ListChunks(_ context.Context, fileID string) ([]domain.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.StoredChunk(nil), s.chunks[fileID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

// ListRows returns the rows of a file in insertion order.
func (s *IndexStore) ListRows(_ context.Context, fileID string) ([]domain.StoredRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StoredRow(nil), s.rows[fileID]...), nil
}

// DocumentCount returns the number of indexed documents.
func (s *IndexStore) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}
