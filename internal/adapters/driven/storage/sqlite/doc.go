// Package sqlite provides a SQLite-based implementation of the index and
// sync-state stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both store interfaces
// through a single database connection:
//
//   - IndexStore: document metadata, tabular rows, and embedded chunks
//   - SyncStateStore: tracker state (last check time and known items)
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embeddings are stored as little-endian float32 blobs and metadata as JSON text.
//
// # Data Location
//
// By default, the database is stored at ~/.ragsync/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
