package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragsync/internal/core/domain"
)

func TestWatchCmd_HelpDescribesFirstCycle(t *testing.T) {
	assert.Contains(t, watchCmd.Long, "first cycle indexes every")
	assert.NotContains(t, watchCmd.Long, "without indexing")
}

func TestWatchAll_RejectsWatcherFlag(t *testing.T) {
	useApp(t, newTestApp(t))

	_, err := execute(t, "--watcher", filepath.Join(t.TempDir(), "w.toml"), "watch", "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used with watch all")
}

func TestWatchLocal_MissingDirectory(t *testing.T) {
	useApp(t, newTestApp(t))

	_, err := execute(t, "watch", "local", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)
}

func TestWatchLocal_NoDirectory(t *testing.T) {
	useApp(t, newTestApp(t))

	_, err := execute(t, "watch", "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no directory to watch")
}

func TestWatchDrive_ConnectorError(t *testing.T) {
	useApp(t, newTestApp(t))

	_, err := execute(t, "watch", "drive", "folder-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drive is not available in tests")
}

func TestApp_Tracker_Local(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o600))

	tracker, interval, err := a.tracker(context.Background(),
		watchTarget{kind: domain.SourceLocal, target: dir}, newStatusLine(io.Discard))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, domain.DefaultWatcherConfig().PollInterval, interval)
	assert.FileExists(t, filepath.Join(a.configDir, "watchers", watcherFileName(sourceID(domain.SourceLocal, dir))))

	report, err := tracker.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Changed)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, a.store.(*memory.IndexStore).DocumentCount())
}

func TestApp_Tracker_IntervalPrecedence(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()
	require.NoError(t, a.settings.Set("watch.interval", "45s"))
	require.NoError(t, a.settings.Set("watch.local.path", t.TempDir()))

	_, interval, err := a.tracker(context.Background(),
		watchTarget{kind: domain.SourceLocal, fromConfig: true}, newStatusLine(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, interval)

	watchInterval = 5 * time.Second
	t.Cleanup(resetFlags)

	_, interval, err = a.tracker(context.Background(),
		watchTarget{kind: domain.SourceLocal, fromConfig: true}, newStatusLine(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, interval)
}

func TestSourceID(t *testing.T) {
	assert.Equal(t, "google_drive:root", sourceID(domain.SourceGoogleDrive, ""))
	assert.Equal(t, "google_drive:abc", sourceID(domain.SourceGoogleDrive, "abc"))
	assert.Equal(t, "local_files:/srv/docs", sourceID(domain.SourceLocal, "/srv/docs"))
}

func TestWatcherFileName(t *testing.T) {
	assert.Equal(t, "local_files__srv_docs.toml", watcherFileName("local_files:/srv/docs"))
	assert.Equal(t, "google_drive_root.toml", watcherFileName("google_drive:root"))
}
