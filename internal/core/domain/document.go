package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileMetadata identifies a document for the indexer.
// FileID is the same id used by WatchedItem and SyncState,
// giving one join key across the pipeline.
type FileMetadata struct {
	FileID     string
	FileURL    string
	FileTitle  string
	MediaType  string
	SourceType SourceType

	// CaseStudy is set when the document carried valid frontmatter.
	CaseStudy *CaseStudyFrontmatter
}

// IsMarkdown reports whether the document should be treated as markdown.
// Generic text types qualify when the title carries a .md extension.
func (m FileMetadata) IsMarkdown() bool {
	return IsMarkdownType(m.MediaType, m.FileTitle)
}

// IsImage reports whether the document is an image.
func (m FileMetadata) IsImage() bool {
	return strings.HasPrefix(m.MediaType, "image/")
}

// IsMarkdownType reports whether a media type and file name denote markdown.
func IsMarkdownType(mediaType, name string) bool {
	if strings.Contains(mediaType, "text/markdown") || strings.Contains(mediaType, "text/x-markdown") {
		return true
	}
	return strings.HasPrefix(mediaType, "text/") && strings.EqualFold(filepath.Ext(name), ".md")
}

// DocumentRecord is the per-document metadata row, keyed by FileID.
// Child rows and chunks conceptually reference it.
type DocumentRecord struct {
	FileID     string
	Title      string
	URL        string
	MediaType  string
	SourceType SourceType

	// Schema is the derived schema: tabular columns, or markdown
	// frontmatter plus the section table of contents.
	Schema map[string]any

	UpdatedAt time.Time
}

// StoredRow is one tabular record as read back from an index store.
type StoredRow struct {
	ID        string
	DatasetID string
	Data      map[string]any
}

// IngestionResult is the outcome of one indexing run.
// It is returned, never persisted, and not mutated after construction.
type IngestionResult struct {
	Success              bool
	FileID               string
	ChunksInserted       int
	RowsInserted         int
	ErrorMessage         string
	ProcessingTime       time.Duration
	FrontmatterExtracted bool
}

// ProcessingTimeMS returns the processing time in whole milliseconds.
func (r IngestionResult) ProcessingTimeMS() int64 {
	return r.ProcessingTime.Milliseconds()
}
