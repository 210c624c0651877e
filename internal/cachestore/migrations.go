package cachestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CurrentSchemaVersion tracks the cache schema version.
const CurrentSchemaVersion = 2

// Migration represents one schema migration step. Migrations are additive
// only: a newer binary opening an older cache adds tables or nullable
// columns, never drops or rewrites rows.
type Migration struct {
	Version int
	Apply   func(ctx context.Context, db *sql.DB) error
}

var allMigrations = []Migration{
	{Version: 1, Apply: migrateV1},
	{Version: 2, Apply: migrateV2},
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS apps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    icon_path TEXT,
    last_updated INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_apps_name ON apps(name);

CREATE TABLE IF NOT EXISTS directories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    editor TEXT,
    last_updated INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_directories_name ON directories(name);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func migrateV1(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaV1)
	return err
}

// v2 adds search-by-original-name support for localized app bundles.
func migrateV2(ctx context.Context, db *sql.DB) error {
	return addColumnIfMissing(ctx, db, "apps", "original_name", "TEXT")
}

// addColumnIfMissing runs ALTER TABLE ADD COLUMN, treating a column that
// already exists as a no-op so a cache touched by a newer binary can be
// reopened safely.
func addColumnIfMissing(ctx context.Context, db *sql.DB, table, column, colType string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType)
	_, err := db.ExecContext(ctx, stmt)
	if err != nil && strings.Contains(err.Error(), "duplicate column name") {
		return nil
	}
	return err
}

// ApplyMigrations brings the schema up to CurrentSchemaVersion. It is
// idempotent; already-applied versions are skipped.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	currentVersion, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range allMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := migration.Apply(ctx, db); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		_, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		currentVersion = migration.Version
	}

	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	var version int
	err = db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
