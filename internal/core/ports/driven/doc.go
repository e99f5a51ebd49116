// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Lists changed items, detects deletions, and fetches bytes from a source
//   - Normaliser: Extracts text from one family of media types
//   - NormaliserRegistry: Selects the normaliser for a media type
//   - IndexStore: Document metadata, tabular rows, and embedded chunks
//   - SyncStateStore: Per-source change-detection state
//   - EmbeddingService: Turns chunk texts into vectors
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - Notifier: Push hints that let a tracker wake before its poll interval
//   - TokenProvider: Access tokens for authenticated sources
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
