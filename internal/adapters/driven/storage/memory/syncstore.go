package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
type SyncStateStore struct {
	mu     sync.RWMutex
	states map[string]*domain.SyncState
	saves  int
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		states: make(map[string]*domain.SyncState),
	}
}

// Load returns a copy of the stored state, or a fresh one.
func (s *SyncStateStore) Load(_ context.Context, sourceID string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sourceID]
	if !ok {
		return domain.NewSyncState(sourceID), nil
	}
	return state.Clone(), nil
}

// Save stores a copy of the state.
func (s *SyncStateStore) Save(_ context.Context, state *domain.SyncState) error {
	if state == nil || state.SourceID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SourceID] = state.Clone()
	s.saves++
	return nil
}

// SaveCount returns how many times Save succeeded.
func (s *SyncStateStore) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
