package drive

import (
	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// DefaultPageSize is the files.list page size.
const DefaultPageSize = 100

// MaxDownloadSize caps downloaded or exported content (10MB).
const MaxDownloadSize = 10 * 1024 * 1024

// Config holds Google Drive connector configuration.
type Config struct {
	// FolderID is the watched folder. Empty watches everything the
	// credentials can see.
	FolderID string
	// ExportTypes maps Workspace media types to their export type.
	ExportTypes map[string]string
	// PageSize is the page size for list requests.
	PageSize int64
	// MaxDownloadSize truncates larger files.
	MaxDownloadSize int64
}

// DefaultConfig returns the default configuration for a folder.
func DefaultConfig(folderID string) Config {
	return FromWatcherConfig(folderID, domain.DefaultWatcherConfig())
}

// FromWatcherConfig builds the connector config from a watcher's settings.
func FromWatcherConfig(folderID string, wc domain.WatcherConfig) Config {
	wc = wc.WithDefaults()
	return Config{
		FolderID:        folderID,
		ExportTypes:     wc.ExportTypeMap,
		PageSize:        DefaultPageSize,
		MaxDownloadSize: MaxDownloadSize,
	}
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxDownloadSize <= 0 {
		c.MaxDownloadSize = MaxDownloadSize
	}
	if c.ExportTypes == nil {
		c.ExportTypes = domain.DefaultWatcherConfig().ExportTypeMap
	}
	return c
}
