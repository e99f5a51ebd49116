package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

type stubNormaliser struct {
	types    []string
	priority int
	out      string
}

func (s stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s stubNormaliser) Priority() int                { return s.priority }
func (s stubNormaliser) Normalise(context.Context, *domain.RawDocument) (string, error) {
	return s.out, nil
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 5, out: "low"})
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 50, out: "high"})
	r.Register(stubNormaliser{types: []string{"image/"}, priority: 90, out: "family"})
	r.Register(stubNormaliser{types: []string{"image/png"}, priority: 1, out: "exact"})

	ctx := context.Background()
	normalise := func(mt string) string {
		out, err := r.Normalise(ctx, &domain.RawDocument{MediaType: mt})
		require.NoError(t, err)
		return out
	}

	t.Run("priority wins", func(t *testing.T) {
		assert.Equal(t, "high", normalise("text/plain"))
	})

	t.Run("parameters ignored", func(t *testing.T) {
		assert.Equal(t, "high", normalise("text/plain; charset=utf-8"))
	})

	t.Run("exact beats family", func(t *testing.T) {
		assert.Equal(t, "exact", normalise("image/png"))
		assert.Equal(t, "family", normalise("image/jpeg"))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := r.Normalise(ctx, &domain.RawDocument{MediaType: "application/zip"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := r.Normalise(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDefault(t *testing.T) {
	r := Default()
	types := r.SupportedMIMETypes()
	for _, want := range []string{"text/plain", "text/markdown", "application/pdf", "text/html", "image/", domain.MediaTypeXLSX} {
		assert.Contains(t, types, want)
	}

	md, ok := r.Lookup("text/markdown")
	require.True(t, ok)
	assert.Equal(t, 50, md.Priority())
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "text/html", BaseType("Text/HTML; charset=UTF-8"))
	assert.Equal(t, "", BaseType(""))
}
