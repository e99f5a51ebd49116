package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driving.DocumentExtractor = (*Extractor)(nil)

// Extractor turns raw bytes into text, frontmatter and table rows.
type Extractor struct {
	registry    driven.NormaliserRegistry
	frontmatter driven.FrontmatterParser
	tables      driven.TableReader
	config      domain.WatcherConfig
}

// NewExtractor creates an extractor. frontmatter and tables may be nil, in
// which case markdown is never enriched and tabular files yield no rows.
func NewExtractor(
	registry driven.NormaliserRegistry,
	frontmatter driven.FrontmatterParser,
	tables driven.TableReader,
	config domain.WatcherConfig,
) *Extractor {
	return &Extractor{
		registry:    registry,
		frontmatter: frontmatter,
		tables:      tables,
		config:      config.WithDefaults(),
	}
}

// Extract returns the text of a document. Media types without a normaliser
// are decoded as UTF-8 with invalid sequences replaced.
func (e *Extractor) Extract(ctx context.Context, content []byte, mediaType, name string) (string, error) {
	if e.registry == nil {
		return decodeUTF8(content), nil
	}

	raw := &domain.RawDocument{
		Name:      name,
		MediaType: mediaType,
		Content:   content,
	}
	text, err := e.registry.Normalise(ctx, raw)
	if errors.Is(err, domain.ErrUnsupportedType) {
		logger.Debug("no normaliser for %s (%s), decoding as text", name, mediaType)
		return decodeUTF8(content), nil
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return text, nil
}

// ExtractWithMetadata extracts text and, for markdown, case-study
// frontmatter. Invalid frontmatter is logged and the full text is kept.
func (e *Extractor) ExtractWithMetadata(
	ctx context.Context,
	content []byte,
	mediaType, name string,
) (string, *domain.CaseStudyFrontmatter, error) {
	if !domain.IsMarkdownType(mediaType, name) {
		text, err := e.Extract(ctx, content, mediaType, name)
		return text, nil, err
	}

	text := decodeUTF8(content)
	if e.frontmatter == nil {
		return text, nil, nil
	}

	// Only the parsed copy has its line endings normalised; the fallbacks
	// return the document as it was.
	fm, body, err := e.frontmatter.ParseFrontmatter(strings.ReplaceAll(text, "\r\n", "\n"))
	switch {
	case err != nil:
		logger.Warn("invalid frontmatter in %s, proceeding without metadata: %v", name, err)
		return text, nil, nil
	case fm == nil:
		logger.Debug("no frontmatter found in %s", name)
		return text, nil, nil
	}

	logger.Debug("extracted frontmatter from %s: %s (%s)", name, fm.Title, fm.Industry)
	return body, fm, nil
}

// IsTabular reports whether the media type is stored as rows.
func (e *Extractor) IsTabular(mediaType string) bool {
	return e.config.IsTabular(mediaType)
}

// ExtractSchema returns the header of a tabular document.
func (e *Extractor) ExtractSchema(content []byte, mediaType string) ([]string, error) {
	if e.tables == nil || !e.IsTabular(mediaType) {
		return nil, fmt.Errorf("extract schema for %q: %w", mediaType, domain.ErrUnsupportedType)
	}
	return e.tables.Schema(content)
}

// ExtractRows returns the data rows of a tabular document.
func (e *Extractor) ExtractRows(content []byte, mediaType string) ([]map[string]any, error) {
	if e.tables == nil || !e.IsTabular(mediaType) {
		return nil, fmt.Errorf("extract rows for %q: %w", mediaType, domain.ErrUnsupportedType)
	}
	return e.tables.Rows(content)
}

func decodeUTF8(content []byte) string {
	return strings.ToValidUTF8(string(content), "�")
}
