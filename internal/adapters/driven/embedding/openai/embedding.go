// Package openai embeds chunk text through the OpenAI embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the most inputs the endpoint accepts in one request.
	MaxBatchSize = 2048
)

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config selects the endpoint, model and vector size.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL points at OpenAI or a compatible server.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3 vectors. Every returned vector
	// must have exactly this many values so it fits the store's column.
	Dimensions int

	// BatchSize caps inputs per request; 0 means MaxBatchSize.
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Dimensions <= 0 {
		c.Dimensions = modelDimensions[c.Model]
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 1536
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		c.BatchSize = MaxBatchSize
	}
	return c
}

// EmbeddingService turns chunk texts into vectors of a fixed size.
type EmbeddingService struct {
	client *http.Client
	cfg    Config
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService returns domain.ErrEmbeddingUnavailable without a key.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrEmbeddingUnavailable)
	}
	cfg = cfg.withDefaults()
	return &EmbeddingService{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}, nil
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text in input order, splitting the
// input into requests of at most BatchSize texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(texts))
		vecs, err := s.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// embedChunk sends one request and checks that the response covers every
// input with a vector of the configured size.
func (s *EmbeddingService) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	body := embeddingRequest{Model: s.cfg.Model, Input: texts}
	if s.shortensVectors() {
		body.Dimensions = s.cfg.Dimensions
	}

	var resp embeddingResponse
	if err := s.post(ctx, "/embeddings", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != s.cfg.Dimensions {
			return nil, fmt.Errorf("openai: embedding %d has %d dimensions, want %d",
				d.Index, len(d.Embedding), s.cfg.Dimensions)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vecs[d.Index] = vec
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding for input %d", i)
		}
	}
	return vecs, nil
}

// shortensVectors reports whether the model takes a dimensions parameter.
func (s *EmbeddingService) shortensVectors() bool {
	return strings.HasPrefix(s.cfg.Model, "text-embedding-3")
}

func (s *EmbeddingService) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

// do sends an authorised request and maps failures onto domain errors.
func (s *EmbeddingService) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiMessage(body)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, msg)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("openai: %w: %s", domain.ErrAuthRequired, msg)
		default:
			return fmt.Errorf("openai error (status %d): %s", resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

// apiMessage prefers the JSON error message and falls back to the raw body.
func apiMessage(body []byte) string {
	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		return resp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// Dimensions returns the vector size every call produces.
func (s *EmbeddingService) Dimensions() int {
	return s.cfg.Dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.cfg.Model
}

// Ping checks the key against the models endpoint without embedding.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	return s.do(req, nil)
}

func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
