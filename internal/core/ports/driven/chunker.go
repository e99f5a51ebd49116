package driven

import "github.com/custodia-labs/ragsync/internal/core/domain"

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	// ChunkPlain splits unstructured text with a fixed window.
	ChunkPlain(text string, meta domain.FileMetadata) []domain.DocumentChunk

	// ChunkSections splits markdown by section and returns the distinct
	// section names in document order.
	ChunkSections(text string, meta domain.FileMetadata, fm *domain.CaseStudyFrontmatter) ([]domain.DocumentChunk, []string)
}
