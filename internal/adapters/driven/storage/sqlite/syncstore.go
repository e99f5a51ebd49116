package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// Load retrieves sync state for a source. Unknown sources start at the epoch.
func (s *syncStateStore) Load(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	var lastCheck string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT last_check_time FROM sync_states WHERE source_id = ?", sourceID,
	).Scan(&lastCheck)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSyncState(sourceID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sync state: %w", err)
	}

	state := domain.NewSyncState(sourceID)
	state.LastCheckTime, err = domain.ParseCheckTime(lastCheck)
	if err != nil {
		logger.Warn("invalid last check time %q for %s, starting from epoch", lastCheck, sourceID)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT item_id, modified_at FROM known_items WHERE source_id = ?", sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading known items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, modified string
		if err := rows.Scan(&id, &modified); err != nil {
			return nil, fmt.Errorf("scanning known item: %w", err)
		}
		marker, err := domain.ParseCheckTime(modified)
		if err != nil {
			logger.Debug("invalid modification time %q for %s", modified, id)
		}
		state.Remember(id, marker)
	}
	return state, rows.Err()
}

// Save replaces the stored state for a source.
func (s *syncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	if state == nil || state.SourceID == "" {
		return fmt.Errorf("sync state: %w", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_states (source_id, last_check_time)
		VALUES (?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_check_time = excluded.last_check_time
	`, state.SourceID, domain.FormatCheckTime(state.LastCheckTime))
	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM known_items WHERE source_id = ?", state.SourceID); err != nil {
		return fmt.Errorf("clearing known items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO known_items (source_id, item_id, modified_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range state.KnownIDs() {
		marker := domain.FormatCheckTime(state.KnownItems[id])
		if _, err := stmt.ExecContext(ctx, state.SourceID, id, marker); err != nil {
			return fmt.Errorf("saving known item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
