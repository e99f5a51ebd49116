// Package image indexes images by name. The bytes themselves travel with
// the synthetic chunk the indexer writes for images.
package image

import (
	"context"
	"path/filepath"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser returns an image's file name as its text.
type Normaliser struct{}

// New creates a new image normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"image/"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the file name, falling back to the last path element
// of the URL.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if raw.Name != "" {
		return raw.Name, nil
	}
	if raw.URL != "" {
		return filepath.Base(raw.URL), nil
	}
	return raw.ItemID, nil
}
