package driven

import (
	"context"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// Normaliser extracts plain text from raw document bytes.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	// An entry ending in "/" matches the whole family (e.g., "image/").
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text content of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}
