package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Ensure BatchIngester implements the interface.
var _ driving.BatchIngester = (*BatchIngester)(nil)

// SourceOpener creates a connector rooted at a directory.
type SourceOpener func(root string) (driven.Connector, error)

// BatchIngester indexes a directory tree once and exits. Files are listed
// through a connector so hidden-file and media type rules match watch mode.
type BatchIngester struct {
	open      SourceOpener
	extractor driving.DocumentExtractor
	indexer   driving.IngestionService
	config    domain.WatcherConfig
	workers   int
	out       io.Writer
	outMu     sync.Mutex
}

// BatchOption configures a BatchIngester.
type BatchOption func(*BatchIngester)

// WithWorkers sets how many files are processed concurrently.
func WithWorkers(n int) BatchOption {
	return func(b *BatchIngester) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithOutput sets where progress lines are written.
func WithOutput(w io.Writer) BatchOption {
	return func(b *BatchIngester) {
		if w != nil {
			b.out = w
		}
	}
}

// NewBatchIngester creates a batch ingester. One worker is used by default.
func NewBatchIngester(
	open SourceOpener,
	extractor driving.DocumentExtractor,
	indexer driving.IngestionService,
	config domain.WatcherConfig,
	opts ...BatchOption,
) *BatchIngester {
	b := &BatchIngester{
		open:      open,
		extractor: extractor,
		indexer:   indexer,
		config:    config.WithDefaults(),
		workers:   1,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ingest processes every file under root.
func (b *BatchIngester) Ingest(ctx context.Context, root string) (*driving.BatchReport, error) {
	if b.open == nil {
		return nil, errors.New("batch ingest: no source configured")
	}
	conn, err := b.open(root)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", root, err)
	}
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return nil, err
	}

	items, err := conn.ListChanged(ctx, domain.Epoch, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	b.printf("\n>> Starting batch ingestion from: %s\n\n", root)
	b.printf("Found %d files to process\n\n", len(items))

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = &driving.BatchReport{}
	)
	record := func(o driving.FileOutcome) {
		mu.Lock()
		defer mu.Unlock()
		switch o.Outcome {
		case driving.OutcomeProcessed:
			report.Processed++
		case driving.OutcomeSkipped:
			report.Skipped++
		case driving.OutcomeFailed:
			report.Failed++
		}
		report.Files = append(report.Files, o)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			record(b.ingestOne(ctx, conn, item))
		}); err != nil {
			wg.Done()
			record(driving.FileOutcome{Path: item.ID, Outcome: driving.OutcomeFailed, Reason: err.Error()})
		}
	}
	wg.Wait()

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	b.summary(report)
	return report, ctx.Err()
}

func (b *BatchIngester) ingestOne(ctx context.Context, conn driven.Connector, item domain.WatchedItem) driving.FileOutcome {
	outcome := driving.FileOutcome{Path: item.ID}

	if !b.config.IsSupported(item.MediaType) {
		outcome.Outcome = driving.OutcomeSkipped
		outcome.Reason = "unsupported type " + item.MediaType
		b.printf("[SKIP] Unsupported type: %s (%s)\n", item.DisplayName, item.MediaType)
		return outcome
	}

	b.printf("[PROC] Processing: %s\n", item.DisplayName)
	fail := func(reason string) driving.FileOutcome {
		outcome.Outcome = driving.OutcomeFailed
		outcome.Reason = reason
		b.printf("  [FAIL] %s: %s\n", item.DisplayName, reason)
		return outcome
	}

	raw, err := conn.Fetch(ctx, item)
	if err != nil {
		return fail(err.Error())
	}

	text, fm, err := b.extractor.ExtractWithMetadata(ctx, raw.Content, raw.MediaType, raw.Name)
	if err != nil {
		return fail(err.Error())
	}

	res := b.indexer.Process(ctx, raw.Content, text, domain.FileMetadata{
		FileID:     item.ID,
		FileURL:    item.Location,
		FileTitle:  item.DisplayName,
		MediaType:  raw.MediaType,
		SourceType: conn.Type(),
		CaseStudy:  fm,
	})
	outcome.Result = res
	if !res.Success {
		return fail(res.ErrorMessage)
	}

	outcome.Outcome = driving.OutcomeProcessed
	b.printf("  [OK] Successfully ingested: %s (%d chunks)\n", item.DisplayName, res.ChunksInserted)
	return outcome
}

func (b *BatchIngester) summary(r *driving.BatchReport) {
	line := "============================================================"
	b.printf("\n%s\nIngestion Summary:\n", line)
	b.printf("  Processed: %d\n", r.Processed)
	b.printf("  Skipped:   %d\n", r.Skipped)
	b.printf("  Failed:    %d\n", r.Failed)
	b.printf("  Total:     %d\n%s\n\n", r.Total(), line)
	logger.Debug("batch ingest finished: %d processed, %d skipped, %d failed", r.Processed, r.Skipped, r.Failed)
}

func (b *BatchIngester) printf(format string, args ...any) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}
