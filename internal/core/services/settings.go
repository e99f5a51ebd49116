package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
	"github.com/custodia-labs/ragsync/internal/retry"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyIngestWorkers      = "ingest.workers"
	KeyWatchInterval      = "watch.interval"
	KeyWatchLocalPath     = "watch.local.path"
	KeyWatchDriveFolder   = "watch.drive.folder_id"
	KeyEmbeddingModel     = "embedding.model"
	KeyEmbeddingDims      = "embedding.dimensions"
	KeyInsertBatchSize    = "index.batch_size"
	KeyRetryMaxAttempts   = "retry.max_attempts"
	KeyRetryBackoffFactor = "retry.backoff_factor"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindDuration
	kindFloat
)

var settingKinds = map[string]settingKind{
	KeyIngestWorkers:      kindInt,
	KeyWatchInterval:      kindDuration,
	KeyWatchLocalPath:     kindString,
	KeyWatchDriveFolder:   kindString,
	KeyEmbeddingModel:     kindString,
	KeyEmbeddingDims:      kindInt,
	KeyInsertBatchSize:    kindInt,
	KeyRetryMaxAttempts:   kindInt,
	KeyRetryBackoffFactor: kindFloat,
}

// SettingsService manages the user tunables in the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings with defaults applied.
func (s *SettingsService) Get() domain.AppSettings {
	def := domain.DefaultAppSettings()
	return domain.AppSettings{
		IngestWorkers:       s.getInt(KeyIngestWorkers, def.IngestWorkers),
		WatchInterval:       s.configStore.GetDuration(KeyWatchInterval),
		LocalPath:           s.configStore.GetString(KeyWatchLocalPath),
		DriveFolderID:       s.configStore.GetString(KeyWatchDriveFolder),
		EmbeddingModel:      s.configStore.GetString(KeyEmbeddingModel),
		EmbeddingDimensions: s.getInt(KeyEmbeddingDims, 0),
		InsertBatchSize:     s.getInt(KeyInsertBatchSize, def.InsertBatchSize),
		RetryMaxAttempts:    s.getInt(KeyRetryMaxAttempts, def.RetryMaxAttempts),
		RetryBackoffFactor:  s.getFloat(KeyRetryBackoffFactor, def.RetryBackoffFactor),
	}
}

// RetryPolicy returns the retry policy described by the settings.
func (s *SettingsService) RetryPolicy() retry.Policy {
	cur := s.Get()
	return retry.Policy{
		MaxAttempts:   cur.RetryMaxAttempts,
		BackoffFactor: cur.RetryBackoffFactor,
	}
}

// Set parses and persists one setting.
func (s *SettingsService) Set(key, raw string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	var value any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer: %w", key, domain.ErrInvalidInput)
		}
		value = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s must be a non-negative number: %w", key, domain.ErrInvalidInput)
		}
		value = f
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("%s must be a duration such as 30s: %w", key, domain.ErrInvalidInput)
		}
		value = d.String()
	default:
		value = raw
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Values returns every known key with its effective value.
func (s *SettingsService) Values() map[string]string {
	cur := s.Get()
	interval := ""
	if cur.WatchInterval > 0 {
		interval = cur.WatchInterval.String()
	}
	return map[string]string{
		KeyIngestWorkers:      strconv.Itoa(cur.IngestWorkers),
		KeyWatchInterval:      interval,
		KeyWatchLocalPath:     cur.LocalPath,
		KeyWatchDriveFolder:   cur.DriveFolderID,
		KeyEmbeddingModel:     cur.EmbeddingModel,
		KeyEmbeddingDims:      strconv.Itoa(cur.EmbeddingDimensions),
		KeyInsertBatchSize:    strconv.Itoa(cur.InsertBatchSize),
		KeyRetryMaxAttempts:   strconv.Itoa(cur.RetryMaxAttempts),
		KeyRetryBackoffFactor: strconv.FormatFloat(cur.RetryBackoffFactor, 'g', -1, 64),
	}
}

// Keys returns the known keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) getInt(key string, def int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return def
	}
	switch v := val.(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return float64(v)
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return def
}
