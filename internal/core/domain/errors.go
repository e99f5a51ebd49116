package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a media type the pipeline does not ingest.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrNoTextExtracted indicates extraction produced no usable text.
	ErrNoTextExtracted = errors.New("no text extracted")

	// ErrNoChunks indicates chunking produced nothing to index.
	ErrNoChunks = errors.New("no chunks produced")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the index store is not configured.
	ErrStoreUnavailable = errors.New("index store unavailable")

	// Connector Errors.

	// ErrConnectorValidation indicates connector validation failed.
	// The source is misconfigured or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthRequired indicates the connector requires authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")
)
