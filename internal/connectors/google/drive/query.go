package drive

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// Field selectors.
const (
	fileFields    = "id, name, mimeType, modifiedTime, createdTime, trashed, webViewLink, parents"
	listFields    = "nextPageToken, files(" + fileFields + ")"
	deletedFields = "trashed,name"
	folderFields  = "id,name,mimeType,trashed"
)

// changedQuery selects files in folderID modified or created after since.
func changedQuery(folderID string, since time.Time) string {
	ts := domain.FormatCheckTime(since)
	q := fmt.Sprintf("(modifiedTime > '%s' or createdTime > '%s')", ts, ts)
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escape(folderID))
	}
	return q
}

// subfolderQuery selects the live subfolders of folderID.
func subfolderQuery(folderID string) string {
	return fmt.Sprintf("mimeType='%s' and '%s' in parents and trashed=false",
		domain.MediaTypeGoogleFolder, escape(folderID))
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
