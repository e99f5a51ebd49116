package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore implements driven.IndexStore on the document_metadata,
// document_rows, and documents tables.
type IndexStore struct {
	store *Store
}

// DeleteDocument removes the chunks, rows, and metadata record of a file.
func (s *IndexStore) DeleteDocument(ctx context.Context, fileID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM documents WHERE file_id = ?",
		"DELETE FROM document_rows WHERE dataset_id = ?",
		"DELETE FROM document_metadata WHERE file_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, fileID); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpsertDocument stores or replaces the metadata record.
func (s *IndexStore) UpsertDocument(ctx context.Context, rec domain.DocumentRecord) error {
	schemaJSON, err := json.Marshal(rec.Schema)
	if err != nil {
		return fmt.Errorf("marshalling schema: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO document_metadata (file_id, title, url, media_type, source_type, schema, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			media_type = excluded.media_type,
			source_type = excluded.source_type,
			schema = excluded.schema,
			updated_at = excluded.updated_at
	`, rec.FileID, rec.Title, rec.URL, rec.MediaType, string(rec.SourceType), string(schemaJSON), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document metadata: %w", err)
	}
	return nil
}

// InsertRows appends tabular rows for a file.
func (s *IndexStore) InsertRows(ctx context.Context, fileID string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM document_rows WHERE dataset_id = ?", fileID,
	).Scan(&next); err != nil {
		return fmt.Errorf("reading row sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO document_rows (id, dataset_id, seq, row_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshalling row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), fileID, next+i, string(data)); err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// InsertChunks appends embedded chunks.
func (s *IndexStore) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, file_id, content, chunk_index, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata.Fields())
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			uuid.NewString(), chunk.FileID(), chunk.Content, chunk.ChunkIndex,
			string(metadataJSON), float32SliceToBytes(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves the metadata record.
func (s *IndexStore) GetDocument(ctx context.Context, fileID string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT file_id, title, url, media_type, source_type, schema, updated_at
		FROM document_metadata WHERE file_id = ?
	`, fileID)

	var rec domain.DocumentRecord
	var sourceType, schemaJSON string
	var updatedAt time.Time
	if err := row.Scan(&rec.FileID, &rec.Title, &rec.URL, &rec.MediaType,
		&sourceType, &schemaJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document metadata: %w", err)
	}

	rec.SourceType = domain.SourceType(sourceType)
	rec.UpdatedAt = updatedAt.UTC()
	if err := json.Unmarshal([]byte(schemaJSON), &rec.Schema); err != nil {
		return nil, fmt.Errorf("unmarshalling schema: %w", err)
	}
	return &rec, nil
}

// ListChunks returns the chunks of a file ordered by chunk index.
func (s *IndexStore) ListChunks(ctx context.Context, fileID string) ([]domain.StoredChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, file_id, content, chunk_index, metadata, embedding
		FROM documents WHERE file_id = ?
		ORDER BY chunk_index, rowid
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.StoredChunk
	for rows.Next() {
		var c domain.StoredChunk
		var metadataJSON string
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.FileID, &c.Content, &c.ChunkIndex, &metadataJSON, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListRows returns the rows of a file in insertion order.
func (s *IndexStore) ListRows(ctx context.Context, fileID string) ([]domain.StoredRow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, dataset_id, row_data
		FROM document_rows WHERE dataset_id = ?
		ORDER BY seq
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredRow
	for rows.Next() {
		var r domain.StoredRow
		var data string
		if err := rows.Scan(&r.ID, &r.DatasetID, &data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("unmarshalling row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *IndexStore) Close() error {
	return s.store.Close()
}
