package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/ragsync/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/core/services"
)

// fakeEmbedder returns a two-dimensional vector per text.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Embed(ctx, t)
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int   { return 2 }
func (fakeEmbedder) ModelName() string { return "fake" }
func (fakeEmbedder) Close() error      { return nil }

// newTestApp returns an app backed by memory stores and a fake embedder.
func newTestApp(t *testing.T) *app {
	t.Helper()
	a := &app{
		configDir: t.TempDir(),
		env: &env.Settings{
			Store:    env.StoreMemory,
			State:    env.StateMemory,
			Embedder: env.EmbedderOpenAI,
		},
		settings: services.NewSettingsService(memory.NewConfigStore(nil)),
		store:    memory.NewIndexStore(),
		embedder: fakeEmbedder{},
	}
	a.newDrive = func(context.Context, string, string, domain.WatcherConfig) (driven.Connector, error) {
		return nil, errors.New("drive is not available in tests")
	}
	return a
}

// useApp makes every command use a until the test ends.
func useApp(t *testing.T, a *app) {
	t.Helper()
	old := openApp
	openApp = func(context.Context) (*app, error) { return a, nil }
	t.Cleanup(func() { openApp = old })
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	verbose = false
	configDir = ""
	watcherPath = ""
	ingestWorkers = 0
	processFileID, processURL, processTitle, processMediaType = "", "", "", ""
	watchInterval = 0
	watchAllDir, watchAllDrive = "", ""
	serveHTTPAddr = ""
}
