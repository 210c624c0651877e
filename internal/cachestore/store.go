// Package cachestore persists scanned catalog items in a local SQLite
// database so searches work offline and across restarts.
package cachestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/errdefs"
)

const lastUpdateKey = "last_update_time"

func cacheErr(message string, err error) error {
	return errdefs.NewCustomError(errdefs.ErrTypeCacheFailed, message, err)
}

// Store wraps the SQLite cache database. All writes are serialized through
// a single connection plus a store-level mutex; SQLite handles one writer
// at a time anyway and this keeps transaction ordering obvious.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the cache database at path and applies
// any pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheFailed,
				fmt.Sprintf("failed to create cache directory %s", dir), err)
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheFailed, "failed to open cache database", err)
	}

	// WAL lets readers proceed while a refresh writes the new catalog.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheFailed, "failed to enable WAL mode", err)
	}

	db.SetMaxOpenConns(1)

	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheCorrupted, "failed to migrate cache schema", err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway in-memory cache, used by tests and by the
// local search fallback when no cache path is configured.
func OpenInMemory(ctx context.Context) (*Store, error) {
	db, err := sql.Open(DriverName, ":memory:")
	if err != nil {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheFailed, "failed to open in-memory cache", err)
	}

	db.SetMaxOpenConns(1)

	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errdefs.NewCustomError(errdefs.ErrTypeCacheCorrupted, "failed to migrate cache schema", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveApps replaces the cached app list in a single transaction. A failed
// save leaves the previous contents intact.
func (s *Store) SaveApps(ctx context.Context, apps []catalog.AppItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cacheErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM apps"); err != nil {
		return cacheErr("failed to clear apps", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO apps (name, path, icon_path, original_name, last_updated) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return cacheErr("failed to prepare app insert", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, app := range apps {
		_, err := stmt.ExecContext(ctx, app.Name, app.Path,
			nullable(app.IconPath), nullable(app.OriginalName), now)
		if err != nil {
			return cacheErr(fmt.Sprintf("failed to insert app %s", app.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return cacheErr("failed to commit apps", err)
	}
	return nil
}

// SaveDirectories replaces the cached directory list in a single transaction.
func (s *Store) SaveDirectories(ctx context.Context, dirs []catalog.DirectoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cacheErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM directories"); err != nil {
		return cacheErr("failed to clear directories", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO directories (name, path, editor, last_updated) VALUES (?, ?, ?, ?)")
	if err != nil {
		return cacheErr("failed to prepare directory insert", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, dir := range dirs {
		editor := ""
		if dir.Editor != catalog.EditorUnknown {
			editor = string(dir.Editor)
		}
		_, err := stmt.ExecContext(ctx, dir.Name, dir.Path, nullable(editor), now)
		if err != nil {
			return cacheErr(fmt.Sprintf("failed to insert directory %s", dir.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return cacheErr("failed to commit directories", err)
	}
	return nil
}

// LoadApps returns all cached apps ordered by name.
func (s *Store) LoadApps(ctx context.Context) ([]catalog.AppItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, path, icon_path, original_name FROM apps ORDER BY name ASC")
	if err != nil {
		return nil, cacheErr("failed to query apps", err)
	}
	defer rows.Close()

	var apps []catalog.AppItem
	for rows.Next() {
		var app catalog.AppItem
		var iconPath, originalName sql.NullString
		if err := rows.Scan(&app.Name, &app.Path, &iconPath, &originalName); err != nil {
			return nil, cacheErr("failed to scan app row", err)
		}
		app.IconPath = iconPath.String
		app.OriginalName = originalName.String
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, cacheErr("failed to read app rows", err)
	}
	return apps, nil
}

// LoadDirectories returns all cached directories ordered by name.
func (s *Store) LoadDirectories(ctx context.Context) ([]catalog.DirectoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, path, editor FROM directories ORDER BY name ASC")
	if err != nil {
		return nil, cacheErr("failed to query directories", err)
	}
	defer rows.Close()

	var dirs []catalog.DirectoryItem
	for rows.Next() {
		var dir catalog.DirectoryItem
		var editor sql.NullString
		if err := rows.Scan(&dir.Name, &dir.Path, &editor); err != nil {
			return nil, cacheErr("failed to scan directory row", err)
		}
		if editor.Valid && editor.String != "" {
			dir.Editor = catalog.ParseEditor(editor.String)
		}
		dirs = append(dirs, dir)
	}
	if err := rows.Err(); err != nil {
		return nil, cacheErr("failed to read directory rows", err)
	}
	return dirs, nil
}

// IsEmpty reports whether the cache holds no apps and no directories.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM apps) + (SELECT COUNT(*) FROM directories)").Scan(&count)
	if err != nil {
		return false, cacheErr("failed to count cache rows", err)
	}
	return count == 0, nil
}

// LastUpdateTime returns the recorded refresh timestamp as epoch seconds.
// ok is false when no refresh has ever been recorded.
func (s *Store) LastUpdateTime(ctx context.Context) (ts int64, ok bool, err error) {
	var value string
	err = s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?", lastUpdateKey).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, cacheErr("failed to read last update time", err)
	}

	if _, err := fmt.Sscanf(value, "%d", &ts); err != nil {
		return 0, false, errdefs.NewCustomError(errdefs.ErrTypeCacheCorrupted,
			fmt.Sprintf("failed to parse last update time %q", value), err)
	}
	return ts, true, nil
}

// SetLastUpdateTime records ts (epoch seconds) as the last refresh time.
func (s *Store) SetLastUpdateTime(ctx context.Context, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		lastUpdateKey, fmt.Sprintf("%d", ts))
	if err != nil {
		return cacheErr("failed to set last update time", err)
	}
	return nil
}

// NeedsUpdate reports whether the cache is older than intervalHours. A cache
// with no recorded refresh always needs one.
func (s *Store) NeedsUpdate(ctx context.Context, intervalHours int) (bool, error) {
	ts, ok, err := s.LastUpdateTime(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	age := time.Since(time.Unix(ts, 0))
	return age >= time.Duration(intervalHours)*time.Hour, nil
}

// Clear removes all cached items and the refresh timestamp.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cacheErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM apps",
		"DELETE FROM directories",
		"DELETE FROM metadata",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return cacheErr("failed to clear cache", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return cacheErr("failed to commit clear", err)
	}
	return nil
}

// Stats summarizes cache contents for status reporting.
type Stats struct {
	AppCount       int   `json:"app_count"`
	DirectoryCount int   `json:"directory_count"`
	LastUpdateTime int64 `json:"last_update_time,omitempty"`
	SchemaVersion  int   `json:"schema_version"`
}

// GetStats returns row counts and the last refresh time.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{SchemaVersion: CurrentSchemaVersion}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM apps").Scan(&stats.AppCount); err != nil {
		return nil, cacheErr("failed to count apps", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM directories").Scan(&stats.DirectoryCount); err != nil {
		return nil, cacheErr("failed to count directories", err)
	}

	ts, ok, err := s.LastUpdateTime(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		stats.LastUpdateTime = ts
	}
	return stats, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
