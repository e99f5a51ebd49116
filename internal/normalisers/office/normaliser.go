// Package office extracts text from legacy and open office formats via docconv.
package office

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ConvertFunc converts a document of the given MIME type into text.
type ConvertFunc func(r io.Reader, mimeType string) (string, error)

func docconvConvert(r io.Reader, mimeType string) (string, error) {
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Normaliser handles Word 97, RTF, ODT and PowerPoint documents.
type Normaliser struct {
	convert ConvertFunc
}

// New creates an office normaliser backed by docconv.
func New() *Normaliser {
	return &Normaliser{convert: docconvConvert}
}

// NewWithConverter creates an office normaliser with a custom converter.
func NewWithConverter(convert ConvertFunc) *Normaliser {
	return &Normaliser{convert: convert}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/msword",
		"application/rtf",
		"text/rtf",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 40
}

// Normalise extracts the body text of the document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	body, err := n.convert(bytes.NewReader(raw.Content), raw.MediaType)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", raw.MediaType, err)
	}
	return strings.TrimSpace(body), nil
}
