package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/logger"
)

const keyPrefix = "syncstate/"

// badgerLogger routes badger's logging through the application logger.
// Badger is chatty at info level, so info becomes debug.
type badgerLogger struct{}

var _ badger.Logger = badgerLogger{}

func (badgerLogger) Errorf(msg string, args ...any)   { logger.Error(msg, args...) }
func (badgerLogger) Warningf(msg string, args ...any) { logger.Warn(msg, args...) }
func (badgerLogger) Infof(msg string, args ...any)    { logger.Debug(msg, args...) }
func (badgerLogger) Debugf(msg string, args ...any)   { logger.Debug(msg, args...) }

// SyncStateStore implements driven.SyncStateStore on BadgerDB.
type SyncStateStore struct {
	db *badger.DB
}

var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// Open opens or creates a store in dir. An empty dir opens an in-memory
// store, which is lost on Close.
func Open(dir string) (*SyncStateStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = badgerLogger{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &SyncStateStore{db: db}, nil
}

// record is the persisted form. Times use the check-time layout so the
// value is readable with badger's CLI.
type record struct {
	SourceID      string            `json:"source_id"`
	LastCheckTime string            `json:"last_check_time"`
	KnownItems    map[string]string `json:"known_items"`
}

func key(sourceID string) []byte {
	return []byte(keyPrefix + sourceID)
}

// Load returns the state for a source, or a fresh epoch state.
func (s *SyncStateStore) Load(_ context.Context, sourceID string) (*domain.SyncState, error) {
	var rec record
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sourceID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load sync state %s: %w", sourceID, err)
	}

	state := domain.NewSyncState(sourceID)
	if !found {
		return state, nil
	}

	state.LastCheckTime, err = domain.ParseCheckTime(rec.LastCheckTime)
	if err != nil {
		logger.Warn("invalid last check time %q for %s, starting from epoch", rec.LastCheckTime, sourceID)
	}
	for id, raw := range rec.KnownItems {
		marker, _ := domain.ParseCheckTime(raw)
		state.Remember(id, marker)
	}
	return state, nil
}

// Save overwrites the state for its source.
func (s *SyncStateStore) Save(_ context.Context, state *domain.SyncState) error {
	if state == nil || state.SourceID == "" {
		return fmt.Errorf("sync state: %w", domain.ErrInvalidInput)
	}

	rec := record{
		SourceID:      state.SourceID,
		LastCheckTime: domain.FormatCheckTime(state.LastCheckTime),
		KnownItems:    make(map[string]string, len(state.KnownItems)),
	}
	for id, marker := range state.KnownItems {
		rec.KnownItems[id] = domain.FormatCheckTime(marker)
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(state.SourceID), value)
	})
	if err != nil {
		return fmt.Errorf("save sync state %s: %w", state.SourceID, err)
	}
	return nil
}

// Sources lists the source ids with saved state.
func (s *SyncStateStore) Sources() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close flushes and closes the database.
func (s *SyncStateStore) Close() error {
	return s.db.Close()
}
