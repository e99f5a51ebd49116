// Package gemini provides an embedding service adapter using the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel = "text-embedding-004"

	// MaxBatchSize is the request limit of batchEmbedContents.
	MaxBatchSize = 100
)

// Model dimensions for Gemini embedding models.
var modelDimensions = map[string]int{
	"text-embedding-004":   768,
	"embedding-001":        768,
	"gemini-embedding-001": 3072,
}

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions overrides the known size for the model.
	Dimensions int
}

// batchAPI is the call the service makes, split out for tests.
type batchAPI interface {
	batchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	close() error
}

// genaiAPI calls batchEmbedContents through generative-ai-go.
type genaiAPI struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func (g *genaiAPI) batchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	batch := g.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

func (g *genaiAPI) close() error {
	return g.client.Close()
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	api        batchAPI
	model      string
	dimensions int
}

// NewEmbeddingService creates a Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config, opts ...option.ClientOption) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrEmbeddingUnavailable)
	}
	cfg = cfg.withDefaults()

	client, err := genai.NewClient(ctx, append(opts, option.WithAPIKey(cfg.APIKey))...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	em := client.EmbeddingModel(cfg.Model)
	em.TaskType = genai.TaskTypeRetrievalDocument

	return newService(&genaiAPI{client: client, model: em}, cfg), nil
}

func newService(api batchAPI, cfg Config) *EmbeddingService {
	cfg = cfg.withDefaults()
	return &EmbeddingService{
		api:        api,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Dimensions == 0 {
		c.Dimensions = modelDimensions[c.Model]
		if c.Dimensions == 0 {
			c.Dimensions = 768
		}
	}
	return c
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts in requests of at most MaxBatchSize.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))
		got, err := s.api.batchEmbed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("gemini batch embed: %w", err)
		}
		if len(got) != end-start {
			return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(got), end-start)
		}
		out = append(out, got...)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases the client.
func (s *EmbeddingService) Close() error {
	if s.api != nil {
		return s.api.close()
	}
	return nil
}
