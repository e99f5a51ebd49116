package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragsync/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/badger"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragsync/internal/connectors/google"
	"github.com/custodia-labs/ragsync/internal/connectors/google/drive"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/services"
	"github.com/custodia-labs/ragsync/internal/logger"
	"github.com/custodia-labs/ragsync/internal/normalisers"
	"github.com/custodia-labs/ragsync/internal/normalisers/markdown"
	"github.com/custodia-labs/ragsync/internal/normalisers/tabular"
	"github.com/custodia-labs/ragsync/internal/postprocessors/chunker"
)

// app wires the adapters one command needs. Stores and providers are
// opened on first use so a command only needs the credentials it touches.
type app struct {
	configDir string
	env       *env.Settings
	settings  *services.SettingsService

	store    driven.IndexStore
	embedder driven.EmbeddingService
	sqlite   *sqlite.Store
	badger   *badger.SyncStateStore
	states   driven.SyncStateStore

	// newDrive opens a Drive connector; replaced in tests.
	newDrive func(ctx context.Context, sourceID, folderID string, wc domain.WatcherConfig) (driven.Connector, error)

	closers []func() error
}

// openApp builds the app for a command. Tests replace it.
var openApp = newApp

func newApp(_ context.Context) (*app, error) {
	dir := configDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	settings, err := env.Load(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	a := &app{
		configDir: dir,
		env:       settings,
		settings:  services.NewSettingsService(cfg),
	}
	a.newDrive = a.openDrive
	return a, nil
}

// Close releases everything the app opened, most recent first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) dataPath() string {
	return a.env.DataPath(a.configDir)
}

func (a *app) sqliteStore() (*sqlite.Store, error) {
	if a.sqlite != nil {
		return a.sqlite, nil
	}
	st, err := sqlite.NewStore(a.dataPath())
	if err != nil {
		return nil, err
	}
	a.sqlite = st
	a.closers = append(a.closers, st.Close)
	logger.Debug("sqlite database: %s", st.Path())
	return st, nil
}

// indexStore opens the store selected by RAGSYNC_STORE.
func (a *app) indexStore(ctx context.Context) (driven.IndexStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	switch a.env.Store {
	case env.StoreMemory:
		a.store = memory.NewIndexStore()
	case env.StorePostgres:
		st, err := postgres.Open(ctx, a.env.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	default:
		st, err := a.sqliteStore()
		if err != nil {
			return nil, err
		}
		a.store = st.IndexStore()
	}
	logger.Debug("index store: %s", a.env.Store)
	return a.store, nil
}

// embedding opens the provider selected by RAGSYNC_EMBEDDER.
func (a *app) embedding(ctx context.Context) (driven.EmbeddingService, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}

	cur := a.settings.Get()
	model := a.env.EmbeddingModel
	if model == "" {
		model = cur.EmbeddingModel
	}

	var (
		emb driven.EmbeddingService
		err error
	)
	switch a.env.Embedder {
	case env.EmbedderGemini:
		emb, err = gemini.NewEmbeddingService(ctx, gemini.Config{
			APIKey:     a.env.GeminiAPIKey,
			Model:      model,
			Dimensions: cur.EmbeddingDimensions,
		})
	default:
		emb, err = openai.NewEmbeddingService(openai.Config{
			APIKey:     a.env.OpenAIAPIKey,
			BaseURL:    a.env.OpenAIBaseURL,
			Model:      model,
			Dimensions: cur.EmbeddingDimensions,
		})
	}
	if err != nil {
		return nil, err
	}
	a.embedder = emb
	a.closers = append(a.closers, emb.Close)
	logger.Debug("embedding model: %s (%d dimensions)", emb.ModelName(), emb.Dimensions())
	return emb, nil
}

// stateStore returns the sync state store selected by RAGSYNC_STATE. The
// file backend keeps state in the watcher file itself.
func (a *app) stateStore(wf *file.WatcherFile) (driven.SyncStateStore, error) {
	switch a.env.State {
	case env.StateSQLite:
		st, err := a.sqliteStore()
		if err != nil {
			return nil, err
		}
		return st.SyncStateStore(), nil
	case env.StateBadger:
		if a.badger == nil {
			st, err := badger.Open(filepath.Join(a.dataPath(), "state"))
			if err != nil {
				return nil, err
			}
			a.badger = st
			a.closers = append(a.closers, st.Close)
		}
		return a.badger, nil
	case env.StateMemory:
		if a.states == nil {
			a.states = memory.NewSyncStateStore()
		}
		return a.states, nil
	default:
		return wf, nil
	}
}

// pipeline builds the extractor and indexer for a watcher configuration.
func (a *app) pipeline(ctx context.Context, wc domain.WatcherConfig) (*services.Extractor, *services.Indexer, error) {
	store, err := a.indexStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	emb, err := a.embedding(ctx)
	if err != nil {
		return nil, nil, err
	}

	extractor := services.NewExtractor(normalisers.Default(), markdown.FrontmatterParser{}, tabular.Reader{}, wc)
	chunks := chunker.New(chunker.FromSettings(wc.TextProcessing)...)
	ix := services.NewIndexer(store, emb, extractor, chunks,
		services.WithRetryPolicy(a.settings.RetryPolicy()),
		services.WithBatchSize(a.settings.Get().InsertBatchSize),
	)
	return extractor, ix, nil
}

// storeIndexer builds an indexer that only deletes and inspects, so it
// needs no embedding provider.
func (a *app) storeIndexer(ctx context.Context) (*services.Indexer, error) {
	store, err := a.indexStore(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewIndexer(store, nil, nil, nil, services.WithRetryPolicy(a.settings.RetryPolicy())), nil
}

// watcherConfig reads --watcher when given, otherwise the defaults.
func (a *app) watcherConfig() (domain.WatcherConfig, error) {
	if watcherPath == "" {
		return domain.DefaultWatcherConfig(), nil
	}
	wf, err := file.OpenWatcherFile(watcherPath, "")
	if err != nil {
		return domain.WatcherConfig{}, err
	}
	return wf.Config(), nil
}

// openWatcher opens the watcher file for a source, defaulting to one file
// per source under <config-dir>/watchers.
func (a *app) openWatcher(kind domain.SourceType, target string) (*file.WatcherFile, error) {
	path := watcherPath
	if path == "" {
		path = filepath.Join(a.configDir, "watchers", watcherFileName(sourceID(kind, target)))
	}
	wf, err := file.OpenWatcherFile(path, target)
	if err != nil {
		return nil, err
	}
	logger.Debug("watcher file: %s", wf.Path())
	return wf, nil
}

func (a *app) openDrive(ctx context.Context, id, folderID string, wc domain.WatcherConfig) (driven.Connector, error) {
	svc, err := google.NewDriveService(ctx, google.Credentials{
		CredentialsFile: a.env.GoogleCredentialsFile,
		ClientID:        a.env.GoogleClientID,
		ClientSecret:    a.env.GoogleClientSecret,
		RefreshToken:    a.env.GoogleRefreshToken,
		AccessToken:     a.env.GoogleAccessToken,
	})
	if err != nil {
		return nil, err
	}
	return drive.New(id, drive.NewFilesAPI(svc), drive.FromWatcherConfig(folderID, wc),
		drive.WithRateLimiter(google.NewRateLimiter(google.DriveRateLimit))), nil
}

// sourceID names a watched source. A Drive watch without a folder covers
// the whole drive.
func sourceID(kind domain.SourceType, target string) string {
	if kind == domain.SourceGoogleDrive && target == "" {
		target = "root"
	}
	return domain.SourceID(kind, target)
}

// watcherFileName maps a source id to a safe file name.
func watcherFileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	return strings.Trim(name, "_") + ".toml"
}
