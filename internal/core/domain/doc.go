// Package domain defines the core entities of the ingestion pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - WatchedItem: A source-native file descriptor produced by a poll
//   - SyncState: Per-source change-detection state
//   - FileMetadata: The identity of a document handed to the indexer
//   - DocumentChunk: A bounded, embedded unit of a document
//   - IngestionResult: The outcome of one indexing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
