package domain

import "time"

// WatchedItem is a source-native descriptor of one file.
// It is materialised fresh on every poll and never persisted itself;
// only its modification marker is retained in SyncState.
type WatchedItem struct {
	// ID is the durable identity used everywhere downstream.
	// A path for local files, a provider file id for cloud files.
	ID string

	// DisplayName is the human-readable file name.
	DisplayName string

	// MediaType is the MIME type reported by the source.
	MediaType string

	// ModifiedAt is the last modification time.
	ModifiedAt time.Time

	// CreatedAt is the creation time (ctime for local files).
	CreatedAt time.Time

	// Trashed is true when the source reports the item as trashed.
	Trashed bool

	// Location is a URL or file:// URI pointing at the item.
	Location string

	// ParentID is the containing folder, when the source has one.
	ParentID string
}

// ChangedSince reports whether the item was modified or created after t.
func (w WatchedItem) ChangedSince(t time.Time) bool {
	return w.ModifiedAt.After(t) || w.CreatedAt.After(t)
}

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before extraction.
type RawDocument struct {
	// ItemID links back to the WatchedItem that produced this document.
	ItemID string

	// Name is the file name, used for extension-based decisions.
	Name string

	// URL is the original location (file URI, web link).
	URL string

	// MediaType is the effective content type. For exported cloud
	// documents this is the export type, not the source type.
	MediaType string

	// SourceMediaType is the type reported by the source before export.
	SourceMediaType string

	// Content is the raw bytes.
	Content []byte
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the change type as a log-friendly word.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
