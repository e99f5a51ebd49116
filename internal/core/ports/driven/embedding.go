package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The provider itself is an opaque request/response service.
//
// Implementations include:
//   - OpenAI-compatible APIs (text-embedding-3-small, text-embedding-3-large)
//   - Gemini (gemini-embedding-001, text-embedding-004)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
