package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

var _ driven.IndexStore = (*Store)(nil)

const (
	deleteChunksQuery   = `DELETE FROM documents WHERE file_id = $1`
	deleteRowsQuery     = `DELETE FROM document_rows WHERE dataset_id = $1`
	deleteMetadataQuery = `DELETE FROM document_metadata WHERE file_id = $1`

	upsertMetadataQuery = `
		INSERT INTO document_metadata (file_id, title, url, media_type, source_type, schema, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (file_id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			media_type = EXCLUDED.media_type,
			source_type = EXCLUDED.source_type,
			schema = EXCLUDED.schema,
			updated_at = EXCLUDED.updated_at`

	insertRowQuery = `INSERT INTO document_rows (id, dataset_id, row_data) VALUES ($1, $2, $3)`

	insertChunkQuery = `
		INSERT INTO documents (id, file_id, content, chunk_index, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getMetadataQuery = `
		SELECT file_id, title, url, media_type, source_type, schema, updated_at
		FROM document_metadata WHERE file_id = $1`

	listChunksQuery = `
		SELECT id, file_id, content, chunk_index, metadata, embedding
		FROM documents WHERE file_id = $1
		ORDER BY chunk_index ASC`

	listRowsQuery = `
		SELECT id, dataset_id, row_data
		FROM document_rows WHERE dataset_id = $1
		ORDER BY seq ASC`
)

// Store is a PostgreSQL index store.
type Store struct {
	db *sql.DB
}

// Open connects to databaseURL, checks the connection, and bootstraps the
// schema when needed.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url: %w", domain.ErrInvalidInput)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w: %w", domain.ErrStoreUnavailable, err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an open database that is already bootstrapped.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DeleteDocument removes the chunks, rows, and metadata record of a file.
func (s *Store) DeleteDocument(ctx context.Context, fileID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{deleteChunksQuery, deleteRowsQuery, deleteMetadataQuery} {
		if _, err := tx.ExecContext(ctx, q, fileID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete document %s: %w", fileID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// UpsertDocument stores or replaces the metadata record.
func (s *Store) UpsertDocument(ctx context.Context, rec domain.DocumentRecord) error {
	schema, err := json.Marshal(rec.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx, upsertMetadataQuery,
		rec.FileID, rec.Title, rec.URL, rec.MediaType, string(rec.SourceType), string(schema), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert metadata %s: %w", rec.FileID, err)
	}
	return nil
}

// InsertRows appends tabular rows for a file.
func (s *Store) InsertRows(ctx context.Context, fileID string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertRowQuery)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert rows: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal row: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), fileID, string(data)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rows: %w", err)
	}
	return nil
}

// InsertChunks appends embedded chunks.
func (s *Store) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertChunkQuery)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert chunks: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		metadata, err := json.Marshal(ch.Metadata.Fields())
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		var embedding any
		if len(ch.Embedding) > 0 {
			embedding = pgvector.NewVector(ch.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), ch.FileID(), ch.Content, ch.ChunkIndex, string(metadata), embedding,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

// GetDocument retrieves the metadata record.
func (s *Store) GetDocument(ctx context.Context, fileID string) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	var sourceType string
	var schema []byte
	err := s.db.QueryRowContext(ctx, getMetadataQuery, fileID).Scan(
		&rec.FileID, &rec.Title, &rec.URL, &rec.MediaType, &sourceType, &schema, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata %s: %w", fileID, err)
	}
	rec.SourceType = domain.SourceType(sourceType)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if err := json.Unmarshal(schema, &rec.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &rec, nil
}

// ListChunks returns the chunks of a file ordered by chunk index.
func (s *Store) ListChunks(ctx context.Context, fileID string) ([]domain.StoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, listChunksQuery, fileID)
	if err != nil {
		return nil, fmt.Errorf("list chunks %s: %w", fileID, err)
	}
	defer rows.Close()

	var out []domain.StoredChunk
	for rows.Next() {
		var ch domain.StoredChunk
		var metadata []byte
		var embedding sql.Null[pgvector.Vector]
		if err := rows.Scan(&ch.ID, &ch.FileID, &ch.Content, &ch.ChunkIndex, &metadata, &embedding); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal(metadata, &ch.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
		}
		if embedding.Valid {
			ch.Embedding = embedding.V.Slice()
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// ListRows returns the rows of a file in insertion order.
func (s *Store) ListRows(ctx context.Context, fileID string) ([]domain.StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, listRowsQuery, fileID)
	if err != nil {
		return nil, fmt.Errorf("list rows %s: %w", fileID, err)
	}
	defer rows.Close()

	var out []domain.StoredRow
	for rows.Next() {
		var r domain.StoredRow
		var data []byte
		if err := rows.Scan(&r.ID, &r.DatasetID, &data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal(data, &r.Data); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
