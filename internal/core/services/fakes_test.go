package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/normalisers"
	"github.com/custodia-labs/ragsync/internal/normalisers/markdown"
	"github.com/custodia-labs/ragsync/internal/normalisers/tabular"
	"github.com/custodia-labs/ragsync/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragsync/internal/retry"
)

// noWait is a retry policy that never sleeps.
func noWait() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

// fakeEmbedder returns a fixed vector per text and counts calls.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	texts [][]string
	err   error
	short bool
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts = append(f.texts, texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Close() error      { return nil }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// flakyStore wraps a memory store and fails selected operations.
type flakyStore struct {
	*memory.IndexStore

	mu            sync.Mutex
	failUpserts   int
	failChunks    error
	deleteCalls   []string
	chunkBatches  int
	upsertHistory []domain.DocumentRecord
}

func newFlakyStore() *flakyStore {
	return &flakyStore{IndexStore: memory.NewIndexStore()}
}

func (s *flakyStore) DeleteDocument(ctx context.Context, fileID string) error {
	s.mu.Lock()
	s.deleteCalls = append(s.deleteCalls, fileID)
	s.mu.Unlock()
	return s.IndexStore.DeleteDocument(ctx, fileID)
}

func (s *flakyStore) UpsertDocument(ctx context.Context, rec domain.DocumentRecord) error {
	s.mu.Lock()
	if s.failUpserts > 0 {
		s.failUpserts--
		s.mu.Unlock()
		return errors.New("connection reset")
	}
	s.upsertHistory = append(s.upsertHistory, rec)
	s.mu.Unlock()
	return s.IndexStore.UpsertDocument(ctx, rec)
}

func (s *flakyStore) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	s.mu.Lock()
	s.chunkBatches++
	err := s.failChunks
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.IndexStore.InsertChunks(ctx, chunks)
}

func newTestExtractor() *Extractor {
	return NewExtractor(normalisers.Default(), markdown.FrontmatterParser{}, tabular.Reader{}, domain.DefaultWatcherConfig())
}

func newTestIndexer(store driven.IndexStore, emb driven.EmbeddingService, opts ...IndexerOption) *Indexer {
	opts = append([]IndexerOption{WithRetryPolicy(noWait())}, opts...)
	return NewIndexer(store, emb, newTestExtractor(), chunker.New(), opts...)
}

// fakeConnector serves a fixed set of items from memory.
type fakeConnector struct {
	mu        sync.Mutex
	sourceID  string
	items     map[string]domain.WatchedItem
	content   map[string][]byte
	deleted   map[string]bool
	deleteErr map[string]error
	listErr   error
	fetchErr  map[string]error
	sinces    []time.Time
	wake      chan struct{}
}

var _ driven.Connector = (*fakeConnector)(nil)

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		sourceID:  "local_files:/docs",
		items:     make(map[string]domain.WatchedItem),
		content:   make(map[string][]byte),
		deleted:   make(map[string]bool),
		deleteErr: make(map[string]error),
		fetchErr:  make(map[string]error),
	}
}

func (c *fakeConnector) put(item domain.WatchedItem, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
	c.content[item.ID] = []byte(content)
}

func (c *fakeConnector) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.deleted[id] = true
}

func (c *fakeConnector) Type() domain.SourceType        { return domain.SourceLocal }
func (c *fakeConnector) SourceID() string               { return c.sourceID }
func (c *fakeConnector) Validate(context.Context) error { return nil }
func (c *fakeConnector) Close() error                   { return nil }

func (c *fakeConnector) ListChanged(_ context.Context, since time.Time, known map[string]time.Time) ([]domain.WatchedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinces = append(c.sinces, since)
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []domain.WatchedItem
	for _, item := range c.items {
		if _, ok := known[item.ID]; !ok || item.ChangedSince(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *fakeConnector) IsDeleted(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.deleteErr[id]; err != nil {
		return false, err
	}
	return c.deleted[id], nil
}

func (c *fakeConnector) Fetch(_ context.Context, item domain.WatchedItem) (*domain.RawDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchErr[item.ID]; err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		ItemID:          item.ID,
		Name:            item.DisplayName,
		URL:             item.Location,
		MediaType:       item.MediaType,
		SourceMediaType: item.MediaType,
		Content:         c.content[item.ID],
	}, nil
}

func (c *fakeConnector) Watch(context.Context) (<-chan struct{}, error) {
	return c.wake, nil
}
