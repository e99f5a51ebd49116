package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types/>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	ctx := context.Background()

	t.Run("paragraphs", func(t *testing.T) {
		docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`
		text, err := New().Normalise(ctx, &domain.RawDocument{Content: createTestDOCX(t, docXML)})
		require.NoError(t, err)
		assert.Equal(t, "Hello World\nSecond paragraph", text)
	})

	t.Run("missing document part", func(t *testing.T) {
		text, err := New().Normalise(ctx, &domain.RawDocument{Content: createTestDOCX(t, "")})
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := New().Normalise(ctx, &domain.RawDocument{Content: []byte("plain text")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := New().Normalise(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
