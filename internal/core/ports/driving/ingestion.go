package driving

import (
	"context"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// IngestionService indexes one document at a time.
type IngestionService interface {
	// Process replaces everything indexed for meta.FileID with what is
	// derived from content and text. Failures are reported in the result.
	Process(ctx context.Context, content []byte, text string, meta domain.FileMetadata) *domain.IngestionResult

	// DeleteDocument removes everything indexed for a file id.
	DeleteDocument(ctx context.Context, fileID string) error

	// ProcessFileForRAG indexes one file from its identity fields. When text
	// is empty it is extracted from content. Reports whether indexing succeeded.
	ProcessFileForRAG(ctx context.Context, content []byte, text, fileID, fileURL, fileTitle, mediaType string) bool

	// IndexFile is ProcessFileForRAG with the full result and caller
	// supplied metadata.
	IndexFile(ctx context.Context, content []byte, text string, meta domain.FileMetadata) *domain.IngestionResult
}

// DocumentInspector reads back what is indexed for a file.
type DocumentInspector interface {
	// Inspect returns the metadata record and stored counts.
	// Returns domain.ErrNotFound when nothing is indexed for fileID.
	Inspect(ctx context.Context, fileID string) (*DocumentSummary, error)
}

// DocumentSummary describes the stored state of one file.
type DocumentSummary struct {
	Record   domain.DocumentRecord
	Chunks   int
	Embedded int
	Rows     int
}

// DocumentExtractor turns raw bytes into text and structured metadata.
type DocumentExtractor interface {
	// Extract returns the text of a document. Never fails on bad encoding.
	Extract(ctx context.Context, content []byte, mediaType, name string) (string, error)

	// ExtractWithMetadata also returns case-study frontmatter for markdown.
	// Invalid frontmatter yields nil metadata and the full original text.
	ExtractWithMetadata(ctx context.Context, content []byte, mediaType, name string) (string, *domain.CaseStudyFrontmatter, error)

	// IsTabular reports whether a media type is stored as rows.
	IsTabular(mediaType string) bool

	// ExtractSchema returns the column names of a tabular document.
	ExtractSchema(content []byte, mediaType string) ([]string, error)

	// ExtractRows returns one record per data row of a tabular document.
	ExtractRows(content []byte, mediaType string) ([]map[string]any, error)
}

// BatchIngester walks a directory once and indexes every supported file.
type BatchIngester interface {
	// Ingest processes the directory tree rooted at root.
	Ingest(ctx context.Context, root string) (*BatchReport, error)
}

// Outcome classifies how one file in a batch ended.
type Outcome string

const (
	// OutcomeProcessed means the file was indexed.
	OutcomeProcessed Outcome = "processed"

	// OutcomeSkipped means the file was not attempted.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means extraction or indexing failed.
	OutcomeFailed Outcome = "failed"
)

// FileOutcome is the result for one file in a batch.
type FileOutcome struct {
	Path    string
	Outcome Outcome
	Reason  string
	Result  *domain.IngestionResult
}

// BatchReport tallies a batch run.
type BatchReport struct {
	Processed int
	Skipped   int
	Failed    int
	Files     []FileOutcome
}

// Total returns the number of files seen.
func (r *BatchReport) Total() int {
	return r.Processed + r.Skipped + r.Failed
}
