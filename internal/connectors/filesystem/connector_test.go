package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func ids(items []domain.WatchedItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestNew(t *testing.T) {
	connector := New("local_files:/tmp/test", "/tmp/test")

	require.NotNil(t, connector)
	assert.Equal(t, "local_files:/tmp/test", connector.SourceID())
	assert.Equal(t, "/tmp/test", connector.Root())
	assert.Equal(t, domain.SourceLocal, connector.Type())

	var _ driven.Connector = connector
	var _ driven.Notifier = connector
}

func TestConnector_Validate(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(t *testing.T) string
		errorContains string
	}{
		{
			name:  "valid directory succeeds",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:          "non-existent path returns error",
			setup:         func(*testing.T) string { return "/non/existent/path/12345" },
			errorContains: "does not exist",
		},
		{
			name: "file instead of directory returns error",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file.txt")
				writeFile(t, path, "content")
				return path
			},
			errorContains: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("test", tt.setup(t)).Validate(context.Background())
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConnectorValidation)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := New("test", t.TempDir()).Validate(ctx)
		assert.Equal(t, context.Canceled, err)
	})
}

func TestConnector_ListChanged(t *testing.T) {
	t.Run("lists every visible file on first poll", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.md"), "# A")
		writeFile(t, filepath.Join(root, "sub", "b.csv"), "x,y")
		writeFile(t, filepath.Join(root, ".hidden.txt"), "no")
		writeFile(t, filepath.Join(root, ".git", "config"), "no")

		items, err := New("test", root).ListChanged(context.Background(), domain.Epoch, nil)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{
			filepath.Join(root, "a.md"),
			filepath.Join(root, "sub", "b.csv"),
		}, ids(items))
	})

	t.Run("includes item metadata", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "report.pdf")
		writeFile(t, path, "%PDF")

		items, err := New("test", root).ListChanged(context.Background(), domain.Epoch, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)

		item := items[0]
		assert.Equal(t, "report.pdf", item.DisplayName)
		assert.Equal(t, "application/pdf", item.MediaType)
		assert.Equal(t, "file://"+path, item.Location)
		assert.Equal(t, root, item.ParentID)
		assert.False(t, item.ModifiedAt.IsZero())
		assert.False(t, item.CreatedAt.IsZero())
	})

	t.Run("returns only changed or unknown files", func(t *testing.T) {
		root := t.TempDir()
		old := filepath.Join(root, "old.txt")
		fresh := filepath.Join(root, "fresh.txt")
		unknown := filepath.Join(root, "unknown.txt")
		writeFile(t, old, "old")
		writeFile(t, fresh, "fresh")
		writeFile(t, unknown, "unknown")

		past := time.Now().Add(-48 * time.Hour)
		for _, p := range []string{old, unknown} {
			require.NoError(t, os.Chtimes(p, past, past))
		}

		// ctime is always recent, so since must be after it for old to be unchanged
		since := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(fresh, since.Add(time.Hour), since.Add(time.Hour)))

		known := map[string]time.Time{old: past, fresh: past}
		items, err := New("test", root).ListChanged(context.Background(), since, known)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{fresh, unknown}, ids(items))
	})

	t.Run("missing root returns error", func(t *testing.T) {
		_, err := New("test", "/non/existent/12345").ListChanged(context.Background(), domain.Epoch, nil)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New("test", root).ListChanged(ctx, domain.Epoch, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed connector", func(t *testing.T) {
		c := New("test", t.TempDir())
		require.NoError(t, c.Close())

		_, err := c.ListChanged(context.Background(), domain.Epoch, nil)
		assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	})
}

func TestConnector_IsDeleted(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "a")
	c := New("test", root)

	deleted, err := c.IsDeleted(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, os.Remove(path))
	deleted, err = c.IsDeleted(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, deleted)

	hidden := filepath.Join(root, ".hidden.txt")
	writeFile(t, hidden, "h")
	deleted, err = c.IsDeleted(context.Background(), hidden)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestConnector_Fetch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.md")
	writeFile(t, path, "# Notes")
	c := New("test", root)

	raw, err := c.Fetch(context.Background(), domain.WatchedItem{ID: path})
	require.NoError(t, err)
	assert.Equal(t, "# Notes", string(raw.Content))
	assert.Equal(t, "notes.md", raw.Name)
	assert.Equal(t, "text/markdown", raw.MediaType)
	assert.Equal(t, "file://"+path, raw.URL)

	_, err = c.Fetch(context.Background(), domain.WatchedItem{ID: filepath.Join(root, "gone.md")})
	assert.Error(t, err)
}

func TestConnector_Watch(t *testing.T) {
	t.Run("signals on file creation", func(t *testing.T) {
		root := t.TempDir()
		c := New("test", root)
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wake, err := c.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, filepath.Join(root, "new.txt"), "hello")

		select {
		case <-wake:
		case <-time.After(5 * time.Second):
			t.Fatal("no wake signal for created file")
		}
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		c := New("test", t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())
		wake, err := c.Watch(ctx)
		require.NoError(t, err)

		cancel()
		select {
		case _, ok := <-wake:
			for ok {
				_, ok = <-wake
			}
		case <-time.After(5 * time.Second):
			t.Fatal("channel not closed")
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := New("test", "/non/existent/12345").Watch(context.Background())
		assert.Error(t, err)
	})

	t.Run("returns error when connector is closed", func(t *testing.T) {
		c := New("test", t.TempDir())
		require.NoError(t, c.Close())

		_, err := c.Watch(context.Background())
		assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	})
}

func TestConnector_Close_Idempotent(t *testing.T) {
	c := New("test", t.TempDir())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.Equal(t, domain.SourceLocal, c.Type())
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename     string
		expectedMIME string
	}{
		{"file", "text/plain"},
		{"doc.md", "text/markdown"},
		{"doc.markdown", "text/markdown"},
		{"notes.txt", "text/plain"},
		{"data.csv", "text/csv"},
		{"sheet.xlsx", domain.MediaTypeXLSX},
		{"legacy.xls", "application/vnd.ms-excel"},
		{"letter.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"letter.doc", "application/msword"},
		{"config.yaml", "text/yaml"},
		{"config.yml", "text/yaml"},
		{"data.json", "application/json"},
		{"page.html", "text/html"},
		{"doc.pdf", "application/pdf"},
		{"image.png", "image/png"},
		{"image.jpg", "image/jpeg"},
		{"file.zzzzunknown", "application/octet-stream"},
		{"FILE.MD", "text/markdown"},
		{"File.Yaml", "text/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expectedMIME, DetectMIMEType(tt.filename))
		})
	}

	t.Run("strips charset from mime type", func(t *testing.T) {
		for _, file := range []string{"file.css", "file.js"} {
			assert.NotContains(t, DetectMIMEType(file), ";")
		}
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"/a/.b/.c/file", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	root := t.TempDir()
	c := New("test", root)

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   domain.ChangeType
		wantOK bool
	}{
		{"create", "a.txt", fsnotify.Create, domain.ChangeCreated, true},
		{"write", "a.txt", fsnotify.Write, domain.ChangeUpdated, true},
		{"remove", "a.txt", fsnotify.Remove, domain.ChangeDeleted, true},
		{"rename", "a.txt", fsnotify.Rename, domain.ChangeDeleted, true},
		{"write and chmod", "a.txt", fsnotify.Write | fsnotify.Chmod, domain.ChangeUpdated, true},
		{"chmod ignored", "a.txt", fsnotify.Chmod, 0, false},
		{"hidden ignored", ".swp", fsnotify.Write, 0, false},
		{"hidden dir ignored", ".git/index", fsnotify.Write, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.handleFsEvent(fsnotify.Event{Name: filepath.Join(root, tt.path), Op: tt.op})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
