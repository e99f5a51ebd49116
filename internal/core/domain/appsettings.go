package domain

import "time"

// AppSettings are the user tunables kept in the config file. Zero values
// mean "use the default".
type AppSettings struct {
	// IngestWorkers is the batch ingest pool size.
	IngestWorkers int

	// WatchInterval overrides the watcher file's poll interval.
	WatchInterval time.Duration

	// LocalPath and DriveFolderID are the targets of `watch all`.
	LocalPath     string
	DriveFolderID string

	EmbeddingModel      string
	EmbeddingDimensions int

	// InsertBatchSize is how many rows or chunks go into one store call.
	InsertBatchSize int

	RetryMaxAttempts   int
	RetryBackoffFactor float64
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		IngestWorkers:      1,
		InsertBatchSize:    DefaultInsertBatchSize,
		RetryMaxAttempts:   3,
		RetryBackoffFactor: 2,
	}
}
