package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
	"github.com/custodia-labs/ragsync/internal/logger"
	"github.com/custodia-labs/ragsync/internal/retry"
)

// Ensure Indexer implements the interface.
var (
	_ driving.IngestionService  = (*Indexer)(nil)
	_ driving.DocumentInspector = (*Indexer)(nil)
)

// Indexer replaces everything stored for one document: it deletes the old
// records, then writes the metadata record, tabular rows, and embedded
// chunks in that order. Each remote call runs under the retry policy.
type Indexer struct {
	store     driven.IndexStore
	embedder  driven.EmbeddingService
	extractor driving.DocumentExtractor
	chunker   driven.Chunker
	policy    retry.Policy
	batchSize int
	now       func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) IndexerOption {
	return func(ix *Indexer) {
		ix.policy = p
	}
}

// WithBatchSize sets how many rows or chunks are written per store call.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithClock sets the time source used for timestamps and timings.
func WithClock(now func() time.Time) IndexerOption {
	return func(ix *Indexer) {
		if now != nil {
			ix.now = now
		}
	}
}

// NewIndexer creates an indexer.
func NewIndexer(
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	extractor driving.DocumentExtractor,
	chunker driven.Chunker,
	opts ...IndexerOption,
) *Indexer {
	ix := &Indexer{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		policy:    retry.DefaultPolicy(),
		batchSize: domain.DefaultInsertBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Process indexes one document. It never returns an error: failures are
// reported through the result so one bad file cannot stop a batch or watch.
func (ix *Indexer) Process(
	ctx context.Context,
	content []byte,
	text string,
	meta domain.FileMetadata,
) *domain.IngestionResult {
	start := ix.now()
	res := &domain.IngestionResult{
		FileID:               meta.FileID,
		FrontmatterExtracted: meta.CaseStudy != nil,
	}

	err := ix.process(ctx, content, text, meta, res)
	res.ProcessingTime = ix.now().Sub(start)
	if err != nil {
		res.Success = false
		res.ErrorMessage = err.Error()
		logger.Warn("indexing %s (%s) failed: %v", meta.FileTitle, meta.FileID, err)
		return res
	}

	res.Success = true
	logger.Info("indexed %s (%s): %d chunks, %d rows in %dms",
		meta.FileTitle, meta.FileID, res.ChunksInserted, res.RowsInserted, res.ProcessingTimeMS())
	return res
}

//nolint:gocyclo // Sequential ingestion steps
func (ix *Indexer) process(
	ctx context.Context,
	content []byte,
	text string,
	meta domain.FileMetadata,
	res *domain.IngestionResult,
) error {
	if ix.store == nil {
		return domain.ErrStoreUnavailable
	}
	if meta.FileID == "" {
		return fmt.Errorf("file id: %w", domain.ErrInvalidInput)
	}

	// 1. Delete before write
	if err := ix.DeleteDocument(ctx, meta.FileID); err != nil {
		return err
	}

	// 2. Chunk and derive schema. Chunking happens before any write because
	// the markdown schema lists the section names.
	tabular := ix.extractor != nil && ix.extractor.IsTabular(meta.MediaType)
	schema, rows := ix.deriveRows(content, meta, tabular)

	chunks, sections := ix.chunk(content, text, meta)
	switch {
	case tabular:
	case meta.IsMarkdown():
		schema = markdownSchema(meta.CaseStudy, sections)
	default:
		schema = map[string]any{"type": "text", "mime_type": meta.MediaType}
	}

	// 3. Metadata record
	rec := domain.DocumentRecord{
		FileID:     meta.FileID,
		Title:      meta.FileTitle,
		URL:        meta.FileURL,
		MediaType:  meta.MediaType,
		SourceType: meta.SourceType,
		Schema:     schema,
		UpdatedAt:  ix.now().UTC(),
	}
	if err := ix.policy.Do(ctx, "upsert document", func(ctx context.Context) error {
		return ix.store.UpsertDocument(ctx, rec)
	}); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	// 4. Rows
	n, err := ix.insertRows(ctx, meta.FileID, rows)
	res.RowsInserted = n
	if err != nil {
		return err
	}

	// 5. Embed and insert chunks
	if strings.TrimSpace(text) == "" && !meta.IsImage() {
		return domain.ErrNoTextExtracted
	}
	if len(chunks) == 0 {
		return domain.ErrNoChunks
	}

	if err := ix.embed(ctx, chunks); err != nil {
		return err
	}

	n, err = ix.insertChunks(ctx, chunks)
	res.ChunksInserted = n
	return err
}

// DeleteDocument removes the chunks, rows, and metadata record of a file.
func (ix *Indexer) DeleteDocument(ctx context.Context, fileID string) error {
	if ix.store == nil {
		return domain.ErrStoreUnavailable
	}
	if err := ix.policy.Do(ctx, "delete document", func(ctx context.Context) error {
		return ix.store.DeleteDocument(ctx, fileID)
	}); err != nil {
		return fmt.Errorf("delete document %s: %w", fileID, err)
	}
	logger.Debug("deleted indexed records for %s", fileID)
	return nil
}

// ProcessFileForRAG indexes a file described by its identity fields.
// Text is extracted from content when not supplied, and markdown
// frontmatter is parsed when present.
func (ix *Indexer) ProcessFileForRAG(
	ctx context.Context,
	content []byte,
	text, fileID, fileURL, fileTitle, mediaType string,
) bool {
	meta := domain.FileMetadata{
		FileID:     fileID,
		FileURL:    fileURL,
		FileTitle:  fileTitle,
		MediaType:  mediaType,
		SourceType: domain.SourceManual,
	}
	return ix.IndexFile(ctx, content, text, meta).Success
}

// IndexFile extracts text from content when text is empty, parses
// markdown frontmatter, then indexes the file. Extraction failures are
// reported through the result like any other failure.
func (ix *Indexer) IndexFile(
	ctx context.Context,
	content []byte,
	text string,
	meta domain.FileMetadata,
) *domain.IngestionResult {
	if ix.extractor != nil {
		switch {
		case meta.IsMarkdown():
			src := content
			if text != "" {
				src = []byte(text)
			}
			body, fm, err := ix.extractor.ExtractWithMetadata(ctx, src, meta.MediaType, meta.FileTitle)
			if err != nil {
				return ix.extractFailed(meta, err)
			}
			text, meta.CaseStudy = body, fm
		case text == "":
			extracted, err := ix.extractor.Extract(ctx, content, meta.MediaType, meta.FileTitle)
			if err != nil {
				return ix.extractFailed(meta, err)
			}
			text = extracted
		}
	}

	return ix.Process(ctx, content, text, meta)
}

func (ix *Indexer) extractFailed(meta domain.FileMetadata, err error) *domain.IngestionResult {
	logger.Warn("extract %s: %v", meta.FileTitle, err)
	return &domain.IngestionResult{
		FileID:       meta.FileID,
		ErrorMessage: fmt.Sprintf("extract text: %v", err),
	}
}

// Inspect summarises what is stored for a file.
func (ix *Indexer) Inspect(ctx context.Context, fileID string) (*driving.DocumentSummary, error) {
	if ix.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	rec, err := ix.store.GetDocument(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", fileID, err)
	}
	chunks, err := ix.store.ListChunks(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("list chunks %s: %w", fileID, err)
	}
	rows, err := ix.store.ListRows(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("list rows %s: %w", fileID, err)
	}

	summary := &driving.DocumentSummary{
		Record: *rec,
		Chunks: len(chunks),
		Rows:   len(rows),
	}
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			summary.Embedded++
		}
	}
	return summary, nil
}

func (ix *Indexer) deriveRows(content []byte, meta domain.FileMetadata, tabular bool) (map[string]any, []map[string]any) {
	if tabular {
		columns, err := ix.extractor.ExtractSchema(content, meta.MediaType)
		if err != nil {
			logger.Warn("extract schema from %s: %v", meta.FileTitle, err)
			columns = []string{}
		}
		rows, err := ix.extractor.ExtractRows(content, meta.MediaType)
		if err != nil {
			logger.Warn("extract rows from %s: %v", meta.FileTitle, err)
		}
		return map[string]any{"type": "tabular", "columns": columns}, rows
	}
	if meta.CaseStudy != nil {
		return nil, meta.CaseStudy.MetricRows()
	}
	return nil, nil
}

func markdownSchema(fm *domain.CaseStudyFrontmatter, sections []string) map[string]any {
	if sections == nil {
		sections = []string{}
	}
	schema := map[string]any{
		"type":           "markdown",
		"sections":       sections,
		"total_sections": len(sections),
	}
	if fm != nil {
		schema["frontmatter"] = fm.Record()
	}
	return schema
}

func (ix *Indexer) chunk(content []byte, text string, meta domain.FileMetadata) ([]domain.DocumentChunk, []string) {
	if meta.IsImage() {
		title := meta.FileTitle
		if title == "" {
			title = text
		}
		if title == "" {
			return nil, nil
		}
		return []domain.DocumentChunk{{
			Content:    title,
			ChunkIndex: 0,
			Metadata: domain.BasicMetadata{
				FileID:     meta.FileID,
				FileURL:    meta.FileURL,
				FileTitle:  meta.FileTitle,
				ChunkIndex: 0,
				Extra: map[string]any{
					"file_bytes_b64": base64.StdEncoding.EncodeToString(content),
					"mime_type":      meta.MediaType,
				},
			},
		}}, nil
	}

	if ix.chunker == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if meta.IsMarkdown() {
		return ix.chunker.ChunkSections(text, meta, meta.CaseStudy)
	}
	return ix.chunker.ChunkPlain(text, meta), nil
}

func (ix *Indexer) embed(ctx context.Context, chunks []domain.DocumentChunk) error {
	if ix.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := retry.Value(ctx, ix.policy, "embed chunks", func(ctx context.Context) ([][]float32, error) {
		return ix.embedder.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(vectors), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

func (ix *Indexer) insertRows(ctx context.Context, fileID string, rows []map[string]any) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += ix.batchSize {
		end := min(start+ix.batchSize, len(rows))
		batch := rows[start:end]
		if err := ix.policy.Do(ctx, "insert rows", func(ctx context.Context) error {
			return ix.store.InsertRows(ctx, fileID, batch)
		}); err != nil {
			return inserted, fmt.Errorf("insert rows: %w", err)
		}
		inserted += len(batch)
	}
	return inserted, nil
}

func (ix *Indexer) insertChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, error) {
	total := len(chunks)
	batches := (total + ix.batchSize - 1) / ix.batchSize
	inserted := 0
	for start := 0; start < total; start += ix.batchSize {
		end := min(start+ix.batchSize, total)
		batch := chunks[start:end]
		logger.Debug("inserting batch %d/%d (%d chunks)", start/ix.batchSize+1, batches, len(batch))
		if err := ix.policy.Do(ctx, "insert chunks", func(ctx context.Context) error {
			return ix.store.InsertChunks(ctx, batch)
		}); err != nil {
			return inserted, fmt.Errorf("insert chunks: %w", err)
		}
		inserted += len(batch)
	}
	return inserted, nil
}

// IsSoftFailure reports whether an ingestion message is one of the
// "nothing to index" outcomes rather than a store or provider error.
func IsSoftFailure(res *domain.IngestionResult) bool {
	if res == nil || res.Success {
		return false
	}
	return res.ErrorMessage == domain.ErrNoTextExtracted.Error() ||
		res.ErrorMessage == domain.ErrNoChunks.Error()
}
