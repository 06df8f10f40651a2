// Package sqlite provides an embedded media index stored in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// ErrNotFound is returned when no entry exists for a path.
var ErrNotFound = mediaindex.ErrNotFound

var schema = []string{
	`CREATE TABLE IF NOT EXISTS media (
		id          TEXT PRIMARY KEY,
		path        TEXT NOT NULL UNIQUE,
		title       TEXT,
		album       TEXT,
		artist      TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		is_music    INTEGER NOT NULL DEFAULT 1,
		size        INTEGER NOT NULL DEFAULT 0,
		modified_at INTEGER,
		indexed_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_title ON media (title)`,
}

// DB is a media index backed by SQLite.
type DB struct {
	db *sql.DB
}

var _ mediaindex.Store = (*DB)(nil)

// Open opens (creating if needed) the index file at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index db: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{db: sqlDB}
	if err := d.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// QueryMusic returns all music rows ordered by title.
func (d *DB) QueryMusic(ctx context.Context) (mediaindex.Cursor, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT path, title, album, duration_ms
		FROM media
		WHERE is_music <> 0
		ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying music: %w", err)
	}
	return &cursor{rows: rows}, nil
}

type cursor struct {
	rows *sql.Rows
}

func (c *cursor) Next() bool { return c.rows.Next() }

func (c *cursor) Row() (mediaindex.Row, error) {
	var (
		row          mediaindex.Row
		title, album sql.NullString
	)
	if err := c.rows.Scan(&row.Path, &title, &album, &row.DurationMs); err != nil {
		return mediaindex.Row{}, fmt.Errorf("scanning media row: %w", err)
	}
	row.Title = nullable(title)
	row.Album = nullable(album)
	return row, nil
}

func (c *cursor) Err() error   { return c.rows.Err() }
func (c *cursor) Close() error { return c.rows.Close() }

// Get retrieves a media entry by path.
func (d *DB) Get(ctx context.Context, path string) (*mediaindex.Entry, error) {
	var (
		entry                mediaindex.Entry
		id                   string
		title, album, artist sql.NullString
		isMusic              int
		modified             sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, path, title, album, artist, duration_ms, is_music, size, modified_at
		FROM media
		WHERE path = ?
	`, path).Scan(&id, &entry.Path, &title, &album, &artist, &entry.DurationMs, &isMusic, &entry.Size, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying media entry: %w", err)
	}

	entry.ID = mediaindex.EntryID(entry.Path)
	entry.Title = nullable(title)
	entry.Album = nullable(album)
	entry.Artist = nullable(artist)
	entry.IsMusic = isMusic != 0
	if modified.Valid {
		entry.ModifiedAt = time.UnixMilli(modified.Int64)
	}
	return &entry, nil
}

// UpsertBatch inserts or updates entries in a single transaction.
func (d *DB) UpsertBatch(ctx context.Context, entries []mediaindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media (id, path, title, album, artist, duration_ms, is_music, size, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			album = excluded.album,
			artist = excluded.artist,
			duration_ms = excluded.duration_ms,
			is_music = excluded.is_music,
			size = excluded.size,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, e := range entries {
		music := 0
		if e.IsMusic {
			music = 1
		}
		var modified any
		if !e.ModifiedAt.IsZero() {
			modified = e.ModifiedAt.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(),
			e.Path,
			e.Title,
			e.Album,
			e.Artist,
			e.DurationMs,
			music,
			e.Size,
			modified,
			now,
		); err != nil {
			return fmt.Errorf("upserting %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// DeleteByPath removes the entry for path.
func (d *DB) DeleteByPath(ctx context.Context, path string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM media WHERE path = ?`, path); err != nil {
		return fmt.Errorf("deleting media entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry at or below dir.
// SQLite's LIKE folds ASCII case, so children are matched with substr.
func (d *DB) DeletePrefix(ctx context.Context, dir string) error {
	prefix := mediaindex.ChildPrefix(dir)
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM media WHERE path = ? OR substr(path, 1, ?) = ?`,
		dir, utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return fmt.Errorf("deleting media under %s: %w", dir, err)
	}
	return nil
}

// Count returns the number of indexed entries.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting media: %w", err)
	}
	return n, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
