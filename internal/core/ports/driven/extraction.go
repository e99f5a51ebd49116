package driven

import "github.com/custodia-labs/ragsync/internal/core/domain"

// FrontmatterParser extracts case-study metadata from markdown text.
type FrontmatterParser interface {
	// ParseFrontmatter returns the validated frontmatter and the body that
	// follows it. Without a block it returns (nil, text, nil). With an
	// invalid block it returns (nil, text, reason).
	ParseFrontmatter(text string) (*domain.CaseStudyFrontmatter, string, error)
}

// TableReader reads CSV-family documents.
type TableReader interface {
	// Schema returns the header row.
	Schema(content []byte) ([]string, error)

	// Rows returns one record per data row keyed by header.
	Rows(content []byte) ([]map[string]any, error)
}
