package mcp

import (
	"context"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
)

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result    *domain.IngestionResult
	deleteErr error

	content []byte
	meta    domain.FileMetadata
	deleted []string
}

func (m *mockIngestionService) Process(_ context.Context, _ []byte, _ string, meta domain.FileMetadata) *domain.IngestionResult {
	m.meta = meta
	return m.res(meta)
}

func (m *mockIngestionService) DeleteDocument(_ context.Context, fileID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

func (m *mockIngestionService) ProcessFileForRAG(
	_ context.Context,
	content []byte,
	_, fileID, fileURL, fileTitle, mediaType string,
) bool {
	m.content = content
	m.meta = domain.FileMetadata{FileID: fileID, FileURL: fileURL, FileTitle: fileTitle, MediaType: mediaType}
	return m.res(m.meta).Success
}

func (m *mockIngestionService) IndexFile(
	_ context.Context,
	content []byte,
	_ string,
	meta domain.FileMetadata,
) *domain.IngestionResult {
	m.content = content
	m.meta = meta
	return m.res(meta)
}

func (m *mockIngestionService) res(meta domain.FileMetadata) *domain.IngestionResult {
	if m.result != nil {
		return m.result
	}
	return &domain.IngestionResult{Success: true, FileID: meta.FileID, ChunksInserted: 1}
}

// mockInspector is a mock implementation of driving.DocumentInspector.
type mockInspector struct {
	summary *driving.DocumentSummary
	err     error
}

func (m *mockInspector) Inspect(_ context.Context, _ string) (*driving.DocumentSummary, error) {
	return m.summary, m.err
}
