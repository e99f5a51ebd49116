package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"
)

// SchemaVersion is the version recorded in ragsync_meta by the bootstrap.
const SchemaVersion = 1

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// EnsureBootstrapped runs the bootstrap script unless ragsync_meta already
// records SchemaVersion.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'ragsync_meta'
		)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check: %w", err)
	}
	if !exists {
		return runBootstrap(ctx, db)
	}

	var hasVersion bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ragsync_meta WHERE version = $1)`, SchemaVersion,
	).Scan(&hasVersion)
	if err != nil {
		return fmt.Errorf("meta version check: %w", err)
	}
	if !hasVersion {
		return runBootstrap(ctx, db)
	}
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	script, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
