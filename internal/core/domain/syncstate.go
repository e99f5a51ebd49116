package domain

import (
	"sort"
	"time"
)

// CheckTimeLayout is the persisted format of LastCheckTime.
const CheckTimeLayout = "2006-01-02T15:04:05.000Z"

// Epoch is the LastCheckTime of a source that has never been polled.
var Epoch = time.Unix(0, 0).UTC()

// SyncState tracks change detection for one watched source.
// It is mutated only by the tracker that owns it.
type SyncState struct {
	// SourceID identifies the watched source.
	SourceID string

	// LastCheckTime is when the source was last polled. Never decreases.
	LastCheckTime time.Time

	// KnownItems maps item ids to their last observed modification marker.
	KnownItems map[string]time.Time
}

// NewSyncState returns the state of a source that has never been polled.
func NewSyncState(sourceID string) *SyncState {
	return &SyncState{
		SourceID:      sourceID,
		LastCheckTime: Epoch,
		KnownItems:    make(map[string]time.Time),
	}
}

// Advance moves LastCheckTime forward to now.
// A clock that runs backwards leaves the state untouched.
func (s *SyncState) Advance(now time.Time) {
	now = now.UTC()
	if now.After(s.LastCheckTime) {
		s.LastCheckTime = now
	}
}

// Remember records an item as known with its modification marker.
func (s *SyncState) Remember(id string, marker time.Time) {
	if s.KnownItems == nil {
		s.KnownItems = make(map[string]time.Time)
	}
	s.KnownItems[id] = marker.UTC()
}

// Forget drops an item from the known set.
func (s *SyncState) Forget(id string) {
	delete(s.KnownItems, id)
}

// IsKnown reports whether id is in the known set.
func (s *SyncState) IsKnown(id string) bool {
	_, ok := s.KnownItems[id]
	return ok
}

// KnownIDs returns the known item ids in sorted order.
func (s *SyncState) KnownIDs() []string {
	ids := make([]string, 0, len(s.KnownItems))
	for id := range s.KnownItems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy, so stores never share the map with a tracker.
func (s *SyncState) Clone() *SyncState {
	known := make(map[string]time.Time, len(s.KnownItems))
	for k, v := range s.KnownItems {
		known[k] = v
	}
	return &SyncState{
		SourceID:      s.SourceID,
		LastCheckTime: s.LastCheckTime,
		KnownItems:    known,
	}
}

// FormatCheckTime renders t in CheckTimeLayout.
func FormatCheckTime(t time.Time) string {
	return t.UTC().Format(CheckTimeLayout)
}

// ParseCheckTime parses a persisted check time.
// Values written without milliseconds or as RFC 3339 are also accepted.
func ParseCheckTime(s string) (time.Time, error) {
	for _, layout := range []string{CheckTimeLayout, "2006-01-02T15:04:05Z", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	_, err := time.Parse(CheckTimeLayout, s)
	return Epoch, err
}
