// Package chunker splits extracted text into bounded segments.
//
// Processor is a fixed-width sliding window used for unstructured text.
// ChunkSections splits markdown by heading and paragraph and enriches every
// chunk with document identity and, when present, case-study frontmatter.
package chunker

import (
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits text into fixed-size chunks.
// Sizes are measured in runes so multi-byte text is never cut mid-character.
type Processor struct {
	chunkSize      int
	overlap        int
	maxSectionSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithMaxSectionSize sets the largest chunk ChunkSections emits.
func WithMaxSectionSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxSectionSize = size
		}
	}
}

// FromSettings returns options matching a watcher's text processing settings.
func FromSettings(tp domain.TextProcessing) []Option {
	return []Option{
		WithChunkSize(tp.ChunkSize),
		WithOverlap(tp.ChunkOverlap),
		WithMaxSectionSize(tp.MaxSectionChunkSize),
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:      DefaultChunkSize,
		overlap:        DefaultChunkOverlap,
		maxSectionSize: DefaultMaxSectionChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window size in characters.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the number of characters shared by adjacent windows.
func (p *Processor) Overlap() int { return p.overlap }

// MaxSectionSize returns the section chunk limit.
func (p *Processor) MaxSectionSize() int { return p.maxSectionSize }

// ChunkSections splits markdown by section using the configured limit.
func (p *Processor) ChunkSections(
	text string,
	meta domain.FileMetadata,
	fm *domain.CaseStudyFrontmatter,
) ([]domain.DocumentChunk, []string) {
	return ChunkSections(text, meta, fm, p.maxSectionSize)
}

// Chunk splits text into windows of at most ChunkSize characters, advancing
// by ChunkSize-Overlap each step. Empty text yields no chunks.
func (p *Processor) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	step := p.chunkSize - p.overlap

	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + p.chunkSize
		if end > n {
			end = n
		}
		if end > start {
			chunks = append(chunks, string(runes[start:end]))
		}
		if end == n {
			break
		}
	}

	return chunks
}

// ChunkPlain splits text with the fixed window and attaches basic metadata
// carrying the document identity to every chunk.
func (p *Processor) ChunkPlain(text string, meta domain.FileMetadata) []domain.DocumentChunk {
	pieces := p.Chunk(text)
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]domain.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.DocumentChunk{
			Content:    piece,
			ChunkIndex: i,
			Metadata:   basicMetadata(meta, i),
		})
	}
	return chunks
}

func basicMetadata(meta domain.FileMetadata, index int) domain.BasicMetadata {
	return domain.BasicMetadata{
		FileID:     meta.FileID,
		FileURL:    meta.FileURL,
		FileTitle:  meta.FileTitle,
		ChunkIndex: index,
	}
}
