// Package pdf extracts text from PDF documents with docconv.
//
// docconv shells out to pdftotext from poppler-utils, which must be on PATH.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"code.sajari.com/docconv"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ConvertFunc converts PDF bytes into text. Pages are separated by form feeds.
type ConvertFunc func(r io.Reader) (string, map[string]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	convert ConvertFunc
}

// New creates a new PDF normaliser backed by docconv.
func New() *Normaliser {
	return &Normaliser{convert: docconv.ConvertPDF}
}

// NewWithConverter creates a PDF normaliser with a custom converter.
func NewWithConverter(convert ConvertFunc) *Normaliser {
	return &Normaliser{convert: convert}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page, trims each page, and joins
// non-empty pages with a blank line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	body, _, err := n.convert(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("convert pdf: %w", err)
	}

	return joinPages(body), nil
}

func joinPages(body string) string {
	var pages []string
	for _, page := range strings.Split(body, "\f") {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	return strings.Join(pages, "\n\n")
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required for PDF extraction.
  macOS:  brew install poppler
  Debian: apt install poppler-utils
  Fedora: dnf install poppler-utils`
}
