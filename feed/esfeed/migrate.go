package esfeed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/getpup/pupsourcing/es/migrations"
)

// MigrationConfig returns the event store schema used by the feed.
func MigrationConfig(outputFolder string) migrations.Config {
	return migrations.Config{
		OutputFolder:        outputFolder,
		OutputFilename:      "event_store.sql",
		EventsTable:         "events",
		CheckpointsTable:    "projection_checkpoints",
		AggregateHeadsTable: "aggregate_heads",
	}
}

// Migrate creates the event store tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT to_regclass('events') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect event store schema: %w", err)
	}
	if exists {
		return nil
	}

	dir, err := os.MkdirTemp("", "esfeed-migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration folder: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := MigrationConfig(dir)
	if err := migrations.GeneratePostgres(&cfg); err != nil {
		return fmt.Errorf("failed to generate event store migration: %w", err)
	}

	script, err := os.ReadFile(filepath.Join(dir, cfg.OutputFilename))
	if err != nil {
		return fmt.Errorf("failed to read event store migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to apply event store migration: %w", err)
	}
	return nil
}
