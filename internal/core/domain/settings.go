package domain

import (
	"strings"
	"time"
)

// Google Workspace media types.
const (
	MediaTypeGoogleDoc    = "application/vnd.google-apps.document"
	MediaTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MediaTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MediaTypeGoogleFolder = "application/vnd.google-apps.folder"
)

// MediaTypeXLSX is the OOXML spreadsheet type.
const MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Text processing defaults.
const (
	DefaultChunkSize           = 400
	DefaultChunkOverlap        = 0
	DefaultMaxSectionChunkSize = 1500
	DefaultInsertBatchSize     = 100
	DefaultPollInterval        = 60 * time.Second
)

// TextProcessing configures chunking.
type TextProcessing struct {
	ChunkSize           int
	ChunkOverlap        int
	MaxSectionChunkSize int
}

// WatcherConfig is the persisted configuration of one watcher.
// Its sync state lives alongside it in the same file.
type WatcherConfig struct {
	// SupportedMediaTypes gates ingestion by prefix match.
	SupportedMediaTypes []string

	// ExportTypeMap maps cloud-native types to their export type.
	ExportTypeMap map[string]string

	// TabularMediaTypes are stored as rows, matched by prefix.
	TabularMediaTypes []string

	TextProcessing TextProcessing

	// WatchTarget is the directory or folder id being watched.
	WatchTarget string

	PollInterval time.Duration
}

// DefaultWatcherConfig returns the configuration used when none is persisted.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		SupportedMediaTypes: []string{
			"application/pdf",
			"text/plain",
			"text/html",
			"text/csv",
			"text/markdown",
			"image/",
			MediaTypeXLSX,
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/msword",
			MediaTypeGoogleDoc,
			MediaTypeGoogleSheet,
			MediaTypeGoogleSlides,
		},
		ExportTypeMap: map[string]string{
			MediaTypeGoogleDoc:    "text/plain",
			MediaTypeGoogleSheet:  "text/csv",
			MediaTypeGoogleSlides: "text/plain",
		},
		TabularMediaTypes: []string{
			"csv",
			"xlsx",
			"text/csv",
			MediaTypeXLSX,
			MediaTypeGoogleSheet,
		},
		TextProcessing: TextProcessing{
			ChunkSize:           DefaultChunkSize,
			ChunkOverlap:        DefaultChunkOverlap,
			MaxSectionChunkSize: DefaultMaxSectionChunkSize,
		},
		PollInterval: DefaultPollInterval,
	}
}

// IsSupported reports whether mediaType starts with any supported prefix.
func (c WatcherConfig) IsSupported(mediaType string) bool {
	return hasAnyPrefix(mediaType, c.SupportedMediaTypes)
}

// IsTabular reports whether mediaType starts with any tabular prefix.
func (c WatcherConfig) IsTabular(mediaType string) bool {
	return hasAnyPrefix(mediaType, c.TabularMediaTypes)
}

// ExportType returns the export type for a cloud-native media type.
func (c WatcherConfig) ExportType(mediaType string) (string, bool) {
	t, ok := c.ExportTypeMap[mediaType]
	return t, ok
}

// WithDefaults fills zero-valued fields from DefaultWatcherConfig.
func (c WatcherConfig) WithDefaults() WatcherConfig {
	def := DefaultWatcherConfig()
	if len(c.SupportedMediaTypes) == 0 {
		c.SupportedMediaTypes = def.SupportedMediaTypes
	}
	if len(c.ExportTypeMap) == 0 {
		c.ExportTypeMap = def.ExportTypeMap
	}
	if len(c.TabularMediaTypes) == 0 {
		c.TabularMediaTypes = def.TabularMediaTypes
	}
	if c.TextProcessing.ChunkSize <= 0 {
		c.TextProcessing.ChunkSize = def.TextProcessing.ChunkSize
	}
	if c.TextProcessing.ChunkOverlap < 0 {
		c.TextProcessing.ChunkOverlap = def.TextProcessing.ChunkOverlap
	}
	if c.TextProcessing.MaxSectionChunkSize <= 0 {
		c.TextProcessing.MaxSectionChunkSize = def.TextProcessing.MaxSectionChunkSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
