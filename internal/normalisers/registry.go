package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/normalisers/docx"
	"github.com/custodia-labs/ragsync/internal/normalisers/html"
	"github.com/custodia-labs/ragsync/internal/normalisers/image"
	"github.com/custodia-labs/ragsync/internal/normalisers/markdown"
	"github.com/custodia-labs/ragsync/internal/normalisers/office"
	"github.com/custodia-labs/ragsync/internal/normalisers/pdf"
	"github.com/custodia-labs/ragsync/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragsync/internal/normalisers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches documents to normalisers by MIME type.
// An exact MIME match beats a family match ("image/"); within the same
// kind of match the higher priority wins.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry holding every built-in normaliser.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(xlsx.New())
	r.Register(office.New())
	r.Register(image.New())
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
}

// Lookup returns the best normaliser for a MIME type.
func (r *Registry) Lookup(mimeType string) (driven.Normaliser, bool) {
	mimeType = BaseType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	bestScore := -1
	for _, n := range r.normalisers {
		for _, supported := range n.SupportedMIMETypes() {
			score := -1
			switch {
			case supported == mimeType:
				score = 1000 + n.Priority()
			case strings.HasSuffix(supported, "/") && strings.HasPrefix(mimeType, supported):
				score = n.Priority()
			}
			if score > bestScore {
				best, bestScore = n, score
			}
		}
	}
	return best, best != nil
}

// Normalise extracts text using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	n, ok := r.Lookup(raw.MediaType)
	if !ok {
		return "", fmt.Errorf("normalise %q: %w", raw.MediaType, domain.ErrUnsupportedType)
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// BaseType strips parameters such as "; charset=utf-8" and lowercases.
func BaseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
