package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document", func(t *testing.T) {
		_, err := New().Normalise(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("page", func(t *testing.T) {
		page := `<html><head><title>T</title><style>p{}</style></head>
<body><h1>Heading</h1><p>First   &amp; <b>bold</b></p><script>alert(1)</script>
<!-- hidden --><ul><li>one</li><li>two</li></ul>line<br/>break</body></html>`
		text, err := New().Normalise(ctx, &domain.RawDocument{Content: []byte(page)})
		require.NoError(t, err)
		assert.Equal(t, "Heading\nFirst & bold\none\ntwo\nline\nbreak", text)
	})
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text", in: "hello", want: "hello"},
		{name: "entities", in: "a &lt;b&gt; &quot;c&quot;", want: `a <b> "c"`},
		{name: "svg dropped", in: "<svg><text>x</text></svg>kept", want: "kept"},
		{name: "table rows", in: "<table><tr><td>a</td></tr><tr><td>b</td></tr></table>", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}
