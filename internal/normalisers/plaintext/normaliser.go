// Package plaintext decodes text documents as UTF-8.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"text/yaml",
		"text/toml",
		"text/x-python",
		"text/x-go",
		"text/x-shellscript",
		"text/x-sql",
		"text/javascript",
		"text/css",
		"application/json",
		"application/xml",
		"application/x-yaml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise decodes the content as UTF-8.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return Decode(raw.Content), nil
}

// Decode converts bytes to a string, replacing invalid UTF-8 sequences with
// U+FFFD. Carriage returns are dropped.
func Decode(b []byte) string {
	s := strings.ToValidUTF8(string(b), "�")
	return strings.ReplaceAll(s, "\r", "")
}
