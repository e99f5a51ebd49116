package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
		assert.Equal(t, DefaultMaxSectionChunkSize, p.MaxSectionSize())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100))
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		assert.Equal(t, 25, p.Overlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("from settings", func(t *testing.T) {
		p := New(FromSettings(domain.TextProcessing{ChunkSize: 50, ChunkOverlap: 5, MaxSectionChunkSize: 700})...)
		assert.Equal(t, 50, p.ChunkSize())
		assert.Equal(t, 5, p.Overlap())
		assert.Equal(t, 700, p.MaxSectionSize())
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestProcessor_Chunk(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{name: "empty", text: "", size: 4, want: nil},
		{name: "exact windows", text: "AAAABBBBCCCC", size: 4, want: []string{"AAAA", "BBBB", "CCCC"}},
		{name: "trailing partial", text: "AAAABB", size: 4, want: []string{"AAAA", "BB"}},
		{name: "shorter than window", text: "abc", size: 10, want: []string{"abc"}},
		{name: "overlap", text: "abcdefgh", size: 4, overlap: 2, want: []string{"abcd", "cdef", "efgh"}},
		{name: "multibyte", text: "ééééé", size: 2, want: []string{"éé", "éé", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			assert.Equal(t, tt.want, p.Chunk(tt.text))
		})
	}
}

func TestProcessor_Chunk_Properties(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	t.Run("bounded length", func(t *testing.T) {
		p := New(WithChunkSize(73), WithOverlap(11))
		for _, c := range p.Chunk(text) {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 73)
		}
	})

	t.Run("zero overlap reconstructs text", func(t *testing.T) {
		p := New(WithChunkSize(97))
		assert.Equal(t, text, strings.Join(p.Chunk(text), ""))
	})
}

func TestProcessor_ChunkPlain(t *testing.T) {
	meta := domain.FileMetadata{FileID: "f1", FileURL: "file:///tmp/a.txt", FileTitle: "a.txt"}
	p := New(WithChunkSize(4))

	chunks := p.ChunkPlain("AAAABBBBCC", meta)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		md, ok := c.Metadata.(domain.BasicMetadata)
		require.True(t, ok)
		assert.Equal(t, "f1", md.FileID)
		assert.Equal(t, i, md.ChunkIndex)
		assert.Equal(t, "f1", c.FileID())
	}

	assert.Nil(t, p.ChunkPlain("", meta))
}
