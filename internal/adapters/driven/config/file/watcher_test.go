package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

func TestOpenWatcherFile_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchers", "local.toml")

	w, err := OpenWatcherFile(path, "/srv/docs")
	require.NoError(t, err)

	cfg := w.Config()
	assert.Equal(t, "/srv/docs", cfg.WatchTarget)
	assert.Equal(t, domain.DefaultChunkSize, cfg.TextProcessing.ChunkSize)
	assert.Equal(t, domain.DefaultPollInterval, cfg.PollInterval)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[text_processing]")
	assert.Contains(t, string(data), "last_check_time")
	assert.Contains(t, string(data), "1970-01-01T00:00:00.000Z")
}

func TestWatcherFile_StateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.toml")
	ctx := context.Background()

	w, err := OpenWatcherFile(path, "folder-1")
	require.NoError(t, err)

	state, err := w.Load(ctx, "google_drive:folder-1")
	require.NoError(t, err)
	assert.True(t, state.LastCheckTime.Equal(domain.Epoch))

	state.Advance(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	state.Remember("file-a", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	state.Remember("/path/with.dots/b.md", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, w.Save(ctx, state))

	reopened, err := OpenWatcherFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", reopened.Config().WatchTarget)

	loaded, err := reopened.Load(ctx, "google_drive:folder-1")
	require.NoError(t, err)
	assert.Equal(t, state.LastCheckTime, loaded.LastCheckTime)
	assert.Equal(t, state.KnownItems, loaded.KnownItems)
}

func TestWatcherFile_PreservesCustomConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.toml")
	content := `
supported_media_types = ["text/plain"]
tabular_media_types = ["text/csv"]
watch_target = "/data"
poll_interval = "15s"
last_check_time = "2024-06-01T12:00:00.000Z"

[export_type_map]
"application/vnd.google-apps.document" = "text/html"

[text_processing]
chunk_size = 200
chunk_overlap = 20
max_section_chunk_size = 800

[known_items]
"/data/a.txt" = "2024-05-01T00:00:00.000Z"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	w, err := OpenWatcherFile(path, "")
	require.NoError(t, err)

	cfg := w.Config()
	assert.Equal(t, []string{"text/plain"}, cfg.SupportedMediaTypes)
	assert.Equal(t, "text/html", cfg.ExportTypeMap[domain.MediaTypeGoogleDoc])
	assert.Equal(t, 200, cfg.TextProcessing.ChunkSize)
	assert.Equal(t, 20, cfg.TextProcessing.ChunkOverlap)
	assert.Equal(t, 800, cfg.TextProcessing.MaxSectionChunkSize)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)

	ctx := context.Background()
	state, err := w.Load(ctx, "local_files:/data")
	require.NoError(t, err)
	assert.True(t, state.IsKnown("/data/a.txt"))
	require.NoError(t, w.Save(ctx, state))

	again, err := OpenWatcherFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, 200, again.Config().TextProcessing.ChunkSize)
	assert.Equal(t, []string{"text/plain"}, again.Config().SupportedMediaTypes)
}

func TestWatcherFile_InvalidCheckTimeFallsBackToEpoch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.toml")
	require.NoError(t, os.WriteFile(path, []byte(`last_check_time = "not a time"`), 0600))

	w, err := OpenWatcherFile(path, "")
	require.NoError(t, err)

	state, err := w.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, state.LastCheckTime.Equal(domain.Epoch))
}

func TestWatcherFile_OtherSourceStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.toml")
	ctx := context.Background()

	w, err := OpenWatcherFile(path, "")
	require.NoError(t, err)
	state := domain.NewSyncState("local_files:/a")
	state.Remember("x", time.Now())
	require.NoError(t, w.Save(ctx, state))

	other, err := w.Load(ctx, "local_files:/b")
	require.NoError(t, err)
	assert.Empty(t, other.KnownItems)
}

func TestWatcherFile_SaveInvalid(t *testing.T) {
	w, err := OpenWatcherFile(filepath.Join(t.TempDir(), "w.toml"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, w.Save(context.Background(), nil), domain.ErrInvalidInput)
}

func TestOpenWatcherFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[[ nope"), 0600))

	_, err := OpenWatcherFile(path, "")
	assert.Error(t, err)
}
