package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Ensure Tracker implements the interface.
var _ driving.SyncTracker = (*Tracker)(nil)

// Tracker watches one source. It owns the source's SyncState: the state is
// loaded on first use, mutated only here, and saved after every poll.
type Tracker struct {
	connector driven.Connector
	states    driven.SyncStateStore
	extractor driving.DocumentExtractor
	indexer   driving.IngestionService
	config    domain.WatcherConfig
	now       func() time.Time
	debounce  time.Duration
	onCycle   func(*driving.CycleReport)

	mu    sync.Mutex
	state *domain.SyncState
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerClock sets the time source used for check times.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithDebounce sets how long the tracker waits after a change notification
// before polling, so a burst of events triggers one cycle.
func WithDebounce(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.debounce = d
	}
}

// WithCycleHook registers a function called after every cycle Run completes.
func WithCycleHook(fn func(*driving.CycleReport)) TrackerOption {
	return func(t *Tracker) {
		t.onCycle = fn
	}
}

// NewTracker creates a tracker for one connector.
func NewTracker(
	connector driven.Connector,
	states driven.SyncStateStore,
	extractor driving.DocumentExtractor,
	indexer driving.IngestionService,
	config domain.WatcherConfig,
	opts ...TrackerOption,
) *Tracker {
	t := &Tracker{
		connector: connector,
		states:    states,
		extractor: extractor,
		indexer:   indexer,
		config:    config.WithDefaults(),
		now:       time.Now,
		debounce:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns a copy of the current sync state.
func (t *Tracker) State(ctx context.Context) (*domain.SyncState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// load returns the in-memory state, reading it from the store once.
// Callers hold t.mu.
func (t *Tracker) load(ctx context.Context) (*domain.SyncState, error) {
	if t.state != nil {
		return t.state, nil
	}
	state, err := t.states.Load(ctx, t.connector.SourceID())
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	if state.KnownItems == nil {
		state.KnownItems = make(map[string]time.Time)
	}
	t.state = state
	return state, nil
}

func (t *Tracker) save(ctx context.Context) error {
	if err := t.states.Save(ctx, t.state); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

// InitialScan lists the source since the last check and records every
// live item as known.
func (t *Tracker) InitialScan(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.load(ctx)
	if err != nil {
		return 0, err
	}

	logger.Info("performing initial scan of %s", t.connector.SourceID())
	items, err := t.connector.ListChanged(ctx, state.LastCheckTime, state.KnownItems)
	if err != nil {
		return 0, fmt.Errorf("initial scan of %s: %w", t.connector.SourceID(), err)
	}
	for _, item := range items {
		if !item.Trashed {
			state.Remember(item.ID, item.ModifiedAt)
		}
	}
	if err := t.save(ctx); err != nil {
		return 0, err
	}

	logger.Info("found %d files in initial scan", len(state.KnownItems))
	return len(state.KnownItems), nil
}

// Poll returns the items changed since the last check. The check time is
// captured before listing so a change made during the listing is seen
// again next time rather than lost.
func (t *Tracker) Poll(ctx context.Context) ([]domain.WatchedItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.poll(ctx)
}

func (t *Tracker) poll(ctx context.Context) ([]domain.WatchedItem, error) {
	state, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	now := t.now()
	items, err := t.connector.ListChanged(ctx, state.LastCheckTime, state.KnownItems)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", t.connector.SourceID(), err)
	}

	state.Advance(now)
	if err := t.save(ctx); err != nil {
		return nil, err
	}
	logger.Debug("polled %s: %d changed, next check after %s",
		t.connector.SourceID(), len(items), domain.FormatCheckTime(state.LastCheckTime))
	return items, nil
}

// DetectDeletions asks the source about every known id.
func (t *Tracker) DetectDeletions(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detectDeletions(ctx)
}

func (t *Tracker) detectDeletions(ctx context.Context) ([]string, error) {
	state, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, id := range state.KnownIDs() {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		gone, err := t.connector.IsDeleted(ctx, id)
		if err != nil {
			logger.Warn("error checking %s, assuming it still exists: %v", id, err)
			continue
		}
		if gone {
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// RunCycle performs one poll, processes the changes, and removes deleted
// items. Per-item failures are counted, never returned.
func (t *Tracker) RunCycle(ctx context.Context) (*driving.CycleReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	items, err := t.poll(ctx)
	if err != nil {
		return nil, err
	}

	report := &driving.CycleReport{
		SourceID: t.connector.SourceID(),
		Changed:  len(items),
	}
	if len(items) > 0 {
		logger.Info("found %d changed files in %s", len(items), report.SourceID)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		t.handle(ctx, item, report)
	}

	deleted, err := t.detectDeletions(ctx)
	if err != nil {
		return report, err
	}
	for _, id := range deleted {
		logger.Info("file %s has been deleted, removing from index", id)
		if err := t.indexer.DeleteDocument(ctx, id); err != nil {
			logger.Error("remove %s: %v", id, err)
			report.Failed++
			continue
		}
		t.state.Forget(id)
		report.Deleted++
	}

	if err := t.save(ctx); err != nil {
		return report, err
	}
	if report.Changed > 0 || report.Deleted > 0 {
		logger.Info("cycle complete for %s: %d processed, %d skipped, %d failed, %d deleted",
			report.SourceID, report.Processed, report.Skipped, report.Failed, report.Deleted)
	}
	return report, nil
}

func (t *Tracker) handle(ctx context.Context, item domain.WatchedItem, report *driving.CycleReport) {
	if item.Trashed {
		logger.Info("file %s (%s) has been trashed, removing from index", item.DisplayName, item.ID)
		if err := t.indexer.DeleteDocument(ctx, item.ID); err != nil {
			logger.Error("remove %s: %v", item.ID, err)
			report.Failed++
			return
		}
		t.state.Forget(item.ID)
		report.Deleted++
		return
	}

	// Every observed item becomes known so it is not retried until it
	// changes again.
	defer t.state.Remember(item.ID, item.ModifiedAt)

	if !t.config.IsSupported(item.MediaType) {
		logger.Info("skipping unsupported file type: %s (%s)", item.MediaType, item.DisplayName)
		report.Skipped++
		return
	}

	logger.Info("processing %s (%s)", item.DisplayName, item.ID)
	if err := t.ingest(ctx, item); err != nil {
		logger.Error("failed to process %s (%s): %v", item.DisplayName, item.ID, err)
		report.Failed++
		return
	}
	report.Processed++
}

func (t *Tracker) ingest(ctx context.Context, item domain.WatchedItem) error {
	raw, err := t.connector.Fetch(ctx, item)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	text, fm, err := t.extractor.ExtractWithMetadata(ctx, raw.Content, raw.MediaType, raw.Name)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	meta := domain.FileMetadata{
		FileID:     item.ID,
		FileURL:    item.Location,
		FileTitle:  item.DisplayName,
		MediaType:  raw.MediaType,
		SourceType: t.connector.Type(),
		CaseStudy:  fm,
	}
	res := t.indexer.Process(ctx, raw.Content, text, meta)
	if !res.Success {
		return errors.New(res.ErrorMessage)
	}
	return nil
}

// Run performs an initial scan when the source was never polled, then
// runs a cycle every interval until ctx is cancelled. Connectors that
// implement driven.Notifier wake the loop early.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = t.config.PollInterval
	}
	sourceID := t.connector.SourceID()

	state, err := t.State(ctx)
	if err != nil {
		return err
	}
	if state.LastCheckTime.Equal(domain.Epoch) {
		if _, err := t.InitialScan(ctx); err != nil {
			return shutdownOr(ctx, err)
		}
	}

	var wake <-chan struct{}
	if n, ok := t.connector.(driven.Notifier); ok {
		ch, err := n.Watch(ctx)
		if err != nil {
			logger.Warn("change notifications unavailable for %s, polling only: %v", sourceID, err)
		} else {
			wake = ch
		}
	}

	logger.Info("watching %s, checking for changes every %s", sourceID, interval)
	for {
		report, err := t.RunCycle(ctx)
		if err != nil {
			return shutdownOr(ctx, err)
		}
		if t.onCycle != nil {
			t.onCycle(report)
		}

		logger.Debug("waiting %s until next check", interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watcher for %s stopped", sourceID)
			return nil
		case <-timer.C:
		case _, ok := <-wake:
			timer.Stop()
			if !ok {
				wake = nil
				continue
			}
			logger.Debug("change notification from %s", sourceID)
			if !t.settle(ctx, wake) {
				logger.Info("watcher for %s stopped", sourceID)
				return nil
			}
		}
	}
}

// settle waits out the debounce window and drains queued notifications.
// Returns false when ctx is done.
func (t *Tracker) settle(ctx context.Context, wake <-chan struct{}) bool {
	if t.debounce > 0 {
		timer := time.NewTimer(t.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
	for {
		select {
		case _, ok := <-wake:
			if !ok {
				return true
			}
		default:
			return true
		}
	}
}

// shutdownOr treats an error caused by cancellation as a clean stop.
func shutdownOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		logger.Info("watcher stopped: %v", ctx.Err())
		return nil
	}
	return err
}
