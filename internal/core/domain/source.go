package domain

import (
	"fmt"
	"strings"
)

// SourceType identifies which kind of source produced a document.
type SourceType string

const (
	// SourceLocal is a directory on the local filesystem.
	SourceLocal SourceType = "local_files"

	// SourceGoogleDrive is a Google Drive folder.
	SourceGoogleDrive SourceType = "google_drive"

	// SourceManual is a document handed in directly (CLI process, MCP tool).
	SourceManual SourceType = "manual"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceLocal, SourceGoogleDrive, SourceManual:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

// SourceID builds the stable identifier a watcher persists its state under.
// The target is the watched directory or folder id.
func SourceID(t SourceType, target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return string(t)
	}
	return fmt.Sprintf("%s:%s", t, target)
}
