package drive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/ragsync/internal/connectors/google"
	"github.com/custodia-labs/ragsync/internal/core/domain"
)

var parentPattern = regexp.MustCompile(`'([^']+)' in parents`)

// fakeFiles is an in-memory FilesAPI. Every file lives under one parent.
type fakeFiles struct {
	mu       sync.Mutex
	files    []*drive.File
	content  map[string]string
	getErr   map[string]error
	listErr  error
	queries  []string
	exported []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		content: map[string]string{},
		getErr:  map[string]error{},
	}
}

func (f *fakeFiles) add(id, name, mimeType, parent string) *drive.File {
	file := &drive.File{
		Id:           id,
		Name:         name,
		MimeType:     mimeType,
		ModifiedTime: "2024-06-01T10:00:00.000Z",
		CreatedTime:  "2024-05-01T10:00:00.000Z",
		Parents:      []string{parent},
	}
	f.files = append(f.files, file)
	return file
}

func (f *fakeFiles) List(_ context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.listErr != nil {
		return nil, f.listErr
	}

	parent := ""
	if m := parentPattern.FindStringSubmatch(query); m != nil {
		parent = m[1]
	}
	foldersOnly := strings.HasPrefix(query, "mimeType=")

	var matched []*drive.File
	for _, file := range f.files {
		if parent != "" && file.Parents[0] != parent {
			continue
		}
		if foldersOnly && (file.MimeType != domain.MediaTypeGoogleFolder || file.Trashed) {
			continue
		}
		matched = append(matched, file)
	}

	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := min(start+int(pageSize), len(matched))
	page := &drive.FileList{Files: matched[start:end]}
	if end < len(matched) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeFiles) Get(_ context.Context, id, _ string) (*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	for _, file := range f.files {
		if file.Id == id {
			return file, nil
		}
	}
	return nil, &googleapi.Error{Code: http.StatusNotFound, Message: "File not found"}
}

func (f *fakeFiles) Download(_ context.Context, id string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.content[id]
	if !ok {
		return nil, &googleapi.Error{Code: http.StatusNotFound}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeFiles) Export(_ context.Context, id, mimeType string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = append(f.exported, id+"->"+mimeType)
	return io.NopCloser(strings.NewReader(f.content[id])), nil
}

func newTestConnector(api FilesAPI, folderID string) *Connector {
	return New("google_drive:"+folderID, api, DefaultConfig(folderID),
		WithRateLimiter(google.NewRateLimiter(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000})))
}

func itemIDs(items []domain.WatchedItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestConnector_Type(t *testing.T) {
	c := newTestConnector(newFakeFiles(), "root")
	assert.Equal(t, domain.SourceGoogleDrive, c.Type())
	assert.Equal(t, "google_drive:root", c.SourceID())
	assert.Equal(t, "root", c.FolderID())
}

func TestConnector_ListChanged_RecursesBreadthFirst(t *testing.T) {
	api := newFakeFiles()
	api.add("doc1", "Plan", domain.MediaTypeGoogleDoc, "root")
	api.add("sub", "Archive", domain.MediaTypeGoogleFolder, "root")
	api.add("pdf1", "report.pdf", "application/pdf", "sub")
	api.add("deep", "Deeper", domain.MediaTypeGoogleFolder, "sub")
	api.add("csv1", "data.csv", "text/csv", "deep")

	c := newTestConnector(api, "root")
	items, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"doc1", "pdf1", "csv1"}, itemIDs(items))
	assert.Equal(t, "Plan", items[0].DisplayName)
	assert.Equal(t, "root", items[0].ParentID)
	assert.Equal(t, "https://drive.google.com/file/d/doc1/view", items[0].Location)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), items[0].ModifiedAt)
}

func TestConnector_ListChanged_EmitsTrashed(t *testing.T) {
	api := newFakeFiles()
	api.add("gone", "old.txt", "text/plain", "root").Trashed = true

	c := newTestConnector(api, "root")
	items, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Trashed)
}

func TestConnector_ListChanged_Pages(t *testing.T) {
	api := newFakeFiles()
	for i := range 5 {
		api.add("f"+strconv.Itoa(i), "f.txt", "text/plain", "root")
	}

	c := New("google_drive:root", api, Config{FolderID: "root", PageSize: 2},
		WithRateLimiter(google.NewRateLimiter(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000})))
	items, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestConnector_ListChanged_Query(t *testing.T) {
	api := newFakeFiles()
	c := newTestConnector(api, "root")

	since := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	_, err := c.ListChanged(context.Background(), since, nil)
	require.NoError(t, err)

	require.Len(t, api.queries, 2)
	assert.Equal(t,
		"(modifiedTime > '2024-06-01T12:30:00.000Z' or createdTime > '2024-06-01T12:30:00.000Z') and 'root' in parents",
		api.queries[0])
	assert.Equal(t,
		"mimeType='application/vnd.google-apps.folder' and 'root' in parents and trashed=false",
		api.queries[1])
}

func TestConnector_ListChanged_NoFolder(t *testing.T) {
	api := newFakeFiles()
	api.add("a", "a.txt", "text/plain", "x")
	api.add("b", "b.txt", "text/plain", "y")

	c := newTestConnector(api, "")
	items, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	require.Len(t, api.queries, 1)
	assert.NotContains(t, api.queries[0], "in parents")
}

func TestConnector_ListChanged_Error(t *testing.T) {
	api := newFakeFiles()
	api.listErr = &googleapi.Error{Code: http.StatusUnauthorized}

	c := newTestConnector(api, "root")
	_, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, google.ErrUnauthorized))
}

func TestConnector_IsDeleted(t *testing.T) {
	api := newFakeFiles()
	api.add("live", "live.txt", "text/plain", "root")
	api.add("binned", "binned.txt", "text/plain", "root").Trashed = true
	api.add("flaky", "flaky.txt", "text/plain", "root")
	api.getErr["flaky"] = &googleapi.Error{Code: http.StatusInternalServerError}

	c := newTestConnector(api, "root")
	ctx := context.Background()

	deleted, err := c.IsDeleted(ctx, "live")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = c.IsDeleted(ctx, "binned")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.IsDeleted(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.IsDeleted(ctx, "flaky")
	require.Error(t, err)
	assert.False(t, deleted)
}

func TestConnector_Fetch(t *testing.T) {
	api := newFakeFiles()
	api.content["doc1"] = "exported text"
	api.content["sheet1"] = "a,b\n1,2\n"
	api.content["pdf1"] = "%PDF-1.4"

	c := newTestConnector(api, "root")
	ctx := context.Background()

	tests := []struct {
		name      string
		item      domain.WatchedItem
		wantType  string
		wantBody  string
		wantExpor string
	}{
		{
			name:      "google doc exports as text",
			item:      domain.WatchedItem{ID: "doc1", DisplayName: "Plan", MediaType: domain.MediaTypeGoogleDoc},
			wantType:  "text/plain",
			wantBody:  "exported text",
			wantExpor: "doc1->text/plain",
		},
		{
			name:      "google sheet exports as csv",
			item:      domain.WatchedItem{ID: "sheet1", DisplayName: "Budget", MediaType: domain.MediaTypeGoogleSheet},
			wantType:  "text/csv",
			wantBody:  "a,b\n1,2\n",
			wantExpor: "sheet1->text/csv",
		},
		{
			name:     "binary file downloads",
			item:     domain.WatchedItem{ID: "pdf1", DisplayName: "report.pdf", MediaType: "application/pdf"},
			wantType: "application/pdf",
			wantBody: "%PDF-1.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.exported = nil
			raw, err := c.Fetch(ctx, tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, raw.MediaType)
			assert.Equal(t, tt.item.MediaType, raw.SourceMediaType)
			assert.Equal(t, tt.wantBody, string(raw.Content))
			assert.Equal(t, tt.item.DisplayName, raw.Name)
			if tt.wantExpor != "" {
				assert.Equal(t, []string{tt.wantExpor}, api.exported)
			} else {
				assert.Empty(t, api.exported)
			}
		})
	}
}

func TestConnector_Fetch_TruncatesLargeFiles(t *testing.T) {
	api := newFakeFiles()
	api.content["big"] = strings.Repeat("x", 100)

	c := New("google_drive:root", api, Config{FolderID: "root", MaxDownloadSize: 10},
		WithRateLimiter(google.NewRateLimiter(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000})))
	raw, err := c.Fetch(context.Background(), domain.WatchedItem{ID: "big", MediaType: "text/plain"})
	require.NoError(t, err)
	assert.Len(t, raw.Content, 10)
}

func TestConnector_Validate(t *testing.T) {
	api := newFakeFiles()
	api.add("root", "Root", domain.MediaTypeGoogleFolder, "")
	api.add("file", "file.txt", "text/plain", "")

	ctx := context.Background()
	require.NoError(t, newTestConnector(api, "root").Validate(ctx))
	require.NoError(t, newTestConnector(api, "").Validate(ctx))

	err := newTestConnector(api, "file").Validate(ctx)
	require.ErrorIs(t, err, domain.ErrConnectorValidation)
	assert.Contains(t, err.Error(), "not a folder")

	err = newTestConnector(api, "nope").Validate(ctx)
	require.ErrorIs(t, err, domain.ErrConnectorValidation)
	assert.ErrorIs(t, err, google.ErrNotFound)
}

func TestConnector_Closed(t *testing.T) {
	c := newTestConnector(newFakeFiles(), "root")
	require.NoError(t, c.Close())

	_, err := c.ListChanged(context.Background(), domain.Epoch, nil)
	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	_, err = c.Fetch(context.Background(), domain.WatchedItem{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
}
