package pdf

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

func fakeConverter(body string, err error) ConvertFunc {
	return func(r io.Reader) (string, map[string]string, error) {
		_, _ = io.ReadAll(r)
		return body, nil, err
	}
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/pdf"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	ctx := context.Background()
	raw := &domain.RawDocument{Name: "doc.pdf", MediaType: "application/pdf", Content: []byte("%PDF-1.4")}

	t.Run("nil document", func(t *testing.T) {
		_, err := New().Normalise(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("pages joined with blank line", func(t *testing.T) {
		n := NewWithConverter(fakeConverter("  Page one \f\fPage two\n\f", nil))
		text, err := n.Normalise(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, "Page one\n\nPage two", text)
	})

	t.Run("converter error", func(t *testing.T) {
		n := NewWithConverter(fakeConverter("", errors.New("broken pdf")))
		_, err := n.Normalise(ctx, raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "convert pdf")
	})
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestNormalise_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}
	t.Skip("integration test requires sample PDF file")
}
