package drive

import (
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// itemFromFile converts Drive metadata to a WatchedItem.
func itemFromFile(f *drive.File) domain.WatchedItem {
	item := domain.WatchedItem{
		ID:          f.Id,
		DisplayName: f.Name,
		MediaType:   f.MimeType,
		ModifiedAt:  parseTime(f.ModifiedTime),
		CreatedAt:   parseTime(f.CreatedTime),
		Trashed:     f.Trashed,
		Location:    WebURL(f.Id, f.WebViewLink),
	}
	if len(f.Parents) > 0 {
		item.ParentID = f.Parents[0]
	}
	return item
}

// parseTime parses an RFC 3339 Drive timestamp. Unparsable values
// become the zero time, which never counts as a change.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func isFolder(f *drive.File) bool {
	return f.MimeType == domain.MediaTypeGoogleFolder
}
