/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "uicomposer/internal/log"
	"uicomposer/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema for the history db.
	// Bump this when you perform breaking schema changes and add migrations.
	historySchemaVersion = 2

	// snapshotsPerFile caps stored document snapshots per layout file;
	// older ones are pruned on insert.
	snapshotsPerFile = 50
)

// History is the per-user database holding the recent-files list and
// document snapshots (autosave, crash recovery, pre-save states).
type History struct {
	db *sql.DB
}

// HistoryPath returns the full path of the history database under the
// user data directory.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, HistoryFileName)
}

// OpenHistory opens (creating if needed) the history database, enables
// WAL mode, and brings the schema up to date.
func OpenHistory(dataDir string) (*History, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := HistoryPath(dataDir)
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runHistoryMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("history ready", slog.String("path", path))
	return &History{db: db}, nil
}

// Close releases the underlying database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recent_files (
			path      TEXT PRIMARY KEY,
			opened_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			path       TEXT NOT NULL,
			reason     TEXT NOT NULL,
			content    BLOB NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, historySchemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runHistoryMigrations applies incremental schema migrations up to
// historySchemaVersion.
func runHistoryMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > historySchemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < historySchemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_snapshots_path ON snapshots(path, created_at);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d version bump failed: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit migration %d: %w", next, err)
			}
		default:
			return fmt.Errorf("no migration defined for schema %d", next)
		}
		cur = next
	}
	return nil
}

// RecentFile is one entry of the recently-opened list.
type RecentFile struct {
	Path     string
	OpenedAt time.Time
}

// TouchRecent records that path was just opened (or re-opened).
func (h *History) TouchRecent(ctx context.Context, path string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO recent_files (path, opened_at) VALUES(?, ?)
		 ON CONFLICT(path) DO UPDATE SET opened_at=excluded.opened_at`, path, now)
	if err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	return nil
}

// Recent lists the most recently opened files, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]RecentFile, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT path, opened_at FROM recent_files ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		var ts string
		if err := rows.Scan(&rf.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		rf.OpenedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, rf)
	}
	return out, rows.Err()
}

// AddSnapshot stores one serialized document state for path and prunes
// old snapshots beyond the per-file cap.
func (h *History) AddSnapshot(ctx context.Context, path, reason string, content []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (path, reason, content, created_at) VALUES(?, ?, ?, ?)`,
		path, reason, content, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE path=? AND id NOT IN (
			SELECT id FROM snapshots WHERE path=? ORDER BY id DESC LIMIT ?
		)`, path, path, snapshotsPerFile); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// LatestSnapshot returns the newest stored state for path, if any.
func (h *History) LatestSnapshot(ctx context.Context, path string) ([]byte, string, error) {
	var content []byte
	var reason string
	err := h.db.QueryRowContext(ctx,
		`SELECT content, reason FROM snapshots WHERE path=? ORDER BY id DESC LIMIT 1`, path).
		Scan(&content, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read snapshot: %w", err)
	}
	return content, reason, nil
}

// SnapshotCount reports how many snapshots exist for path.
func (h *History) SnapshotCount(ctx context.Context, path string) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE path=?`, path).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// AutosaveCrashSnapshot stores the open document so an unclean exit can
// be recovered from on next start. Called from the crash handler, so it
// must not panic on a nil handle.
func AutosaveCrashSnapshot(ctx context.Context, h *History, fh *FileHandle) error {
	if h == nil || fh == nil || fh.Document == nil {
		return nil
	}
	path := fh.Path
	if path == "" {
		path = "(unsaved)"
	}
	return h.AddSnapshot(ctx, path, "crash", []byte(fh.Document.Serialize()))
}
