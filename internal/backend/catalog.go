/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend publishes layout documents to a shared Postgres
// catalog so a team can pull each other's revisions. The catalog is
// optional: the editor works fully offline and only touches this
// package when a DSN is configured.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"uicomposer/internal/document"
	applog "uicomposer/internal/log"
)

// Catalog is an open connection to the shared layout catalog.
type Catalog struct {
	db *sql.DB
}

// Entry is one published layout revision's metadata.
type Entry struct {
	Name      string
	Revision  int64
	UpdatedAt time.Time
}

// Open connects to the catalog and ensures its schema exists.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("catalog dsn is required")
	}
	l := applog.WithOperation(applog.WithComponent("backend"), "catalog_open")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	if err := ensureCatalogSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("catalog connected")
	return &Catalog{db: db}, nil
}

// Close releases the connection pool.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func ensureCatalogSchema(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS layouts (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		revision   BIGINT NOT NULL,
		content    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (name, revision)
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure layouts table: %w", err)
	}
	return nil
}

// Publish stores the document under name as a new revision and returns
// the revision number. Revisions are append-only; nothing is overwritten.
func (c *Catalog) Publish(ctx context.Context, name string, d *document.Document) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errors.New("layout name is required")
	}
	if d == nil {
		return 0, errors.New("document is required")
	}
	var rev int64
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO layouts (name, revision, content)
		 SELECT $1, COALESCE(MAX(revision), 0) + 1, $2::jsonb FROM layouts WHERE name = $1
		 RETURNING revision`, name, d.Serialize()).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", name, err)
	}
	applog.WithComponent("backend").Info("layout published",
		slog.String("name", name), slog.Int64("revision", rev))
	return rev, nil
}

// Fetch retrieves a published revision; revision 0 means the latest.
// The returned document is freshly parsed, never shared state.
func (c *Catalog) Fetch(ctx context.Context, name string, revision int64) (*document.Document, int64, error) {
	var (
		content string
		rev     int64
	)
	var err error
	if revision > 0 {
		err = c.db.QueryRowContext(ctx,
			`SELECT content::text, revision FROM layouts WHERE name = $1 AND revision = $2`,
			name, revision).Scan(&content, &rev)
	} else {
		err = c.db.QueryRowContext(ctx,
			`SELECT content::text, revision FROM layouts WHERE name = $1 ORDER BY revision DESC LIMIT 1`,
			name).Scan(&content, &rev)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("layout %q revision %d not found", name, revision)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", name, err)
	}
	d, perr := document.Parse(content)
	if perr != nil {
		return nil, 0, fmt.Errorf("fetched layout does not parse: %w", perr)
	}
	return d, rev, nil
}

// List returns the newest revision of every published layout.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, MAX(revision), MAX(created_at) FROM layouts GROUP BY name ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Revision, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
