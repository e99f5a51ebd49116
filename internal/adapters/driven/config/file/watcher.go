package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Ensure WatcherFile implements the interface.
var _ driven.SyncStateStore = (*WatcherFile)(nil)

// watcherDoc is the on-disk layout of a watcher file.
type watcherDoc struct {
	SupportedMediaTypes []string          `toml:"supported_media_types"`
	ExportTypeMap       map[string]string `toml:"export_type_map"`
	TabularMediaTypes   []string          `toml:"tabular_media_types"`
	TextProcessing      textProcessingDoc `toml:"text_processing"`
	SourceID            string            `toml:"source_id,omitempty"`
	LastCheckTime       string            `toml:"last_check_time"`
	WatchTarget         string            `toml:"watch_target"`
	PollInterval        string            `toml:"poll_interval"`
	KnownItems          map[string]string `toml:"known_items"`
}

type textProcessingDoc struct {
	ChunkSize           int `toml:"chunk_size"`
	ChunkOverlap        int `toml:"chunk_overlap"`
	MaxSectionChunkSize int `toml:"max_section_chunk_size"`
}

// WatcherFile holds one watcher's configuration and sync state in a single
// TOML file. The state part is rewritten after every poll; the
// configuration part is preserved as read.
type WatcherFile struct {
	mu     sync.Mutex
	path   string
	config domain.WatcherConfig
	state  *domain.SyncState
}

// OpenWatcherFile reads the watcher file at path, creating it with default
// settings when it does not exist. A non-empty target overrides the stored
// watch target.
func OpenWatcherFile(path, target string) (*WatcherFile, error) {
	w := &WatcherFile{path: path}

	doc, err := readWatcherDoc(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.config = domain.DefaultWatcherConfig()
		w.config.WatchTarget = target
		w.state = domain.NewSyncState("")
		if err := w.write(); err != nil {
			return nil, err
		}
		return w, nil
	case err != nil:
		return nil, err
	}

	w.config, w.state = fromDoc(doc, path)
	if target != "" {
		w.config.WatchTarget = target
	}
	return w, nil
}

// Path returns the file path.
func (w *WatcherFile) Path() string {
	return w.path
}

// Config returns the watcher configuration with defaults applied.
func (w *WatcherFile) Config() domain.WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config.WithDefaults()
}

// Load returns the persisted state. The file holds a single source, so a
// state saved under a different source id starts over from the epoch.
func (w *WatcherFile) Load(_ context.Context, sourceID string) (*domain.SyncState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.SourceID != "" && w.state.SourceID != sourceID {
		logger.Warn("watcher file %s belongs to %s, starting %s from scratch", w.path, w.state.SourceID, sourceID)
		return domain.NewSyncState(sourceID), nil
	}
	state := w.state.Clone()
	state.SourceID = sourceID
	return state, nil
}

// Save rewrites the file with the new state.
func (w *WatcherFile) Save(_ context.Context, state *domain.SyncState) error {
	if state == nil || state.SourceID == "" {
		return fmt.Errorf("sync state: %w", domain.ErrInvalidInput)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state.Clone()
	return w.write()
}

// write persists config and state atomically (caller must hold lock or
// own w exclusively).
func (w *WatcherFile) write() error {
	data, err := toml.Marshal(toDoc(w.config, w.state))
	if err != nil {
		return fmt.Errorf("encode watcher file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0700); err != nil {
		return fmt.Errorf("create watcher directory: %w", err)
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write watcher file: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace watcher file: %w", err)
	}
	return nil
}

func readWatcherDoc(path string) (watcherDoc, error) {
	var doc watcherDoc
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse watcher file %s: %w", path, err)
	}
	return doc, nil
}

func fromDoc(doc watcherDoc, path string) (domain.WatcherConfig, *domain.SyncState) {
	cfg := domain.WatcherConfig{
		SupportedMediaTypes: doc.SupportedMediaTypes,
		ExportTypeMap:       doc.ExportTypeMap,
		TabularMediaTypes:   doc.TabularMediaTypes,
		TextProcessing: domain.TextProcessing{
			ChunkSize:           doc.TextProcessing.ChunkSize,
			ChunkOverlap:        doc.TextProcessing.ChunkOverlap,
			MaxSectionChunkSize: doc.TextProcessing.MaxSectionChunkSize,
		},
		WatchTarget: doc.WatchTarget,
	}
	if doc.PollInterval != "" {
		d, err := time.ParseDuration(doc.PollInterval)
		if err != nil {
			logger.Warn("invalid poll_interval %q in %s, using default", doc.PollInterval, path)
		}
		cfg.PollInterval = d
	}

	state := domain.NewSyncState(doc.SourceID)
	if doc.LastCheckTime != "" {
		t, err := domain.ParseCheckTime(doc.LastCheckTime)
		if err != nil {
			logger.Warn("invalid last_check_time %q in %s, starting from epoch", doc.LastCheckTime, path)
		}
		state.LastCheckTime = t
	}
	for id, raw := range doc.KnownItems {
		marker, err := domain.ParseCheckTime(raw)
		if err != nil {
			logger.Debug("invalid modification time %q for %s", raw, id)
		}
		state.Remember(id, marker)
	}
	return cfg, state
}

func toDoc(cfg domain.WatcherConfig, state *domain.SyncState) watcherDoc {
	full := cfg.WithDefaults()
	doc := watcherDoc{
		SupportedMediaTypes: full.SupportedMediaTypes,
		ExportTypeMap:       full.ExportTypeMap,
		TabularMediaTypes:   full.TabularMediaTypes,
		TextProcessing: textProcessingDoc{
			ChunkSize:           full.TextProcessing.ChunkSize,
			ChunkOverlap:        full.TextProcessing.ChunkOverlap,
			MaxSectionChunkSize: full.TextProcessing.MaxSectionChunkSize,
		},
		SourceID:      state.SourceID,
		LastCheckTime: domain.FormatCheckTime(state.LastCheckTime),
		WatchTarget:   cfg.WatchTarget,
		PollInterval:  full.PollInterval.String(),
		KnownItems:    make(map[string]string, len(state.KnownItems)),
	}
	for id, marker := range state.KnownItems {
		doc.KnownItems[id] = domain.FormatCheckTime(marker)
	}
	return doc
}
