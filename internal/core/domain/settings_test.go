package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWatcherConfig(t *testing.T) {
	cfg := DefaultWatcherConfig()

	assert.Equal(t, 400, cfg.TextProcessing.ChunkSize)
	assert.Equal(t, 0, cfg.TextProcessing.ChunkOverlap)
	assert.Equal(t, 1500, cfg.TextProcessing.MaxSectionChunkSize)
	assert.Equal(t, "text/csv", cfg.ExportTypeMap[MediaTypeGoogleSheet])
	assert.Equal(t, "text/plain", cfg.ExportTypeMap[MediaTypeGoogleDoc])
	assert.Equal(t, "text/plain", cfg.ExportTypeMap[MediaTypeGoogleSlides])
}

func TestWatcherConfig_IsSupported(t *testing.T) {
	cfg := DefaultWatcherConfig()

	tests := []struct {
		mediaType string
		expected  bool
	}{
		{"application/pdf", true},
		{"text/plain; charset=utf-8", true},
		{"text/markdown", true},
		{"image/png", true},
		{MediaTypeGoogleDoc, true},
		{"application/zip", false},
		{"video/mp4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.IsSupported(tt.mediaType))
		})
	}
}

func TestWatcherConfig_IsTabular(t *testing.T) {
	cfg := DefaultWatcherConfig()

	assert.True(t, cfg.IsTabular("text/csv"))
	assert.True(t, cfg.IsTabular("csv"))
	assert.True(t, cfg.IsTabular(MediaTypeXLSX))
	assert.True(t, cfg.IsTabular(MediaTypeGoogleSheet))
	assert.False(t, cfg.IsTabular("text/plain"))
	assert.False(t, cfg.IsTabular("application/pdf"))
}

func TestWatcherConfig_ExportType(t *testing.T) {
	cfg := DefaultWatcherConfig()

	got, ok := cfg.ExportType(MediaTypeGoogleSheet)
	assert.True(t, ok)
	assert.Equal(t, "text/csv", got)

	_, ok = cfg.ExportType("application/pdf")
	assert.False(t, ok)
}

func TestWatcherConfig_WithDefaults(t *testing.T) {
	cfg := WatcherConfig{
		WatchTarget:    "/data",
		TextProcessing: TextProcessing{ChunkSize: 800, ChunkOverlap: -1},
	}.WithDefaults()

	assert.Equal(t, "/data", cfg.WatchTarget)
	assert.Equal(t, 800, cfg.TextProcessing.ChunkSize)
	assert.Equal(t, 0, cfg.TextProcessing.ChunkOverlap)
	assert.Equal(t, 1500, cfg.TextProcessing.MaxSectionChunkSize)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.NotEmpty(t, cfg.SupportedMediaTypes)
	assert.NotEmpty(t, cfg.TabularMediaTypes)
}
