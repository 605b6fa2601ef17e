// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when no entry matches an ID.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned when an ID prefix matches several entries.
	ErrAmbiguous = errors.New("history ID prefix is ambiguous")
)

// DefaultMaxEntries bounds the history when no limit is configured.
const DefaultMaxEntries = 500

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one finished conversion run.
type Entry struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Sheet       string    `json:"sheet"`
	Destination string    `json:"destination"`
	Encoding    string    `json:"encoding"`
	Separator   string    `json:"separator"`
	Quoting     string    `json:"quoting,omitempty"`
	Rows        int       `json:"rows"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
}

// Duration returns how long the run took.
func (e Entry) Duration() time.Duration {
	return e.Finished.Sub(e.Started)
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// History stores conversion runs in SQLite.
type History struct {
	db         *sql.DB
	path       string
	maxEntries int
}

// Open opens or creates the history database at path. maxEntries <= 0 uses
// DefaultMaxEntries.
func Open(path string, maxEntries int) (*History, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &History{db: db, path: path, maxEntries: maxEntries}, nil
}

// Path returns the database file path.
func (h *History) Path() string {
	return h.path
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record inserts e and prunes the oldest entries beyond the limit.
func (h *History) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.New("history entry has no ID")
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, source, sheet, destination, encoding, separator, quoting,
			 rows, status, error, error_kind, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Sheet, e.Destination, e.Encoding, e.Separator, e.Quoting,
		e.Rows, e.Status, e.Error, e.ErrorKind, e.Started.UnixNano(), e.Finished.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM runs WHERE seq NOT IN (
			SELECT seq FROM runs ORDER BY seq DESC LIMIT ?
		)
	`, h.maxEntries)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	return tx.Commit()
}

const selectColumns = `id, source, sheet, destination, encoding, separator, quoting,
	rows, status, error, error_kind, started_at, finished_at`

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT " + selectColumns + " FROM runs ORDER BY seq DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry whose ID equals id or, failing that, starts with it.
func (h *History) Get(ctx context.Context, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	pattern := likeEscaper.Replace(id) + "%"
	rows, err := h.db.QueryContext(ctx,
		"SELECT "+selectColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY (id = ?) DESC, seq DESC LIMIT 2`,
		id, pattern, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case found[0].ID == id || len(found) == 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Count returns the number of stored entries.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

// Clear deletes every entry and returns how many were removed.
func (h *History) Clear(ctx context.Context) (int64, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var started, finished int64
	err := s.Scan(&e.ID, &e.Source, &e.Sheet, &e.Destination, &e.Encoding, &e.Separator,
		&e.Quoting, &e.Rows, &e.Status, &e.Error, &e.ErrorKind, &started, &finished)
	if err != nil {
		return Entry{}, err
	}
	e.Started = time.Unix(0, started)
	e.Finished = time.Unix(0, finished)
	return e, nil
}
