package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// MediaRepository handles media index database operations.
type MediaRepository struct {
	pool *pgxpool.Pool
}

// QueryMusic returns all music rows ordered by title.
func (r *MediaRepository) QueryMusic(ctx context.Context) (mediaindex.Cursor, error) {
	query := `
		SELECT path, title, album, duration_ms
		FROM media
		WHERE is_music <> 0
		ORDER BY title ASC NULLS FIRST
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying music: %w", err)
	}
	return &cursor{rows: rows}, nil
}

// cursor adapts pgx.Rows to mediaindex.Cursor.
type cursor struct {
	rows pgx.Rows
}

func (c *cursor) Next() bool { return c.rows.Next() }

func (c *cursor) Row() (mediaindex.Row, error) {
	var row mediaindex.Row
	if err := c.rows.Scan(&row.Path, &row.Title, &row.Album, &row.DurationMs); err != nil {
		return mediaindex.Row{}, fmt.Errorf("scanning media row: %w", err)
	}
	return row, nil
}

func (c *cursor) Err() error { return c.rows.Err() }

func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}

// Get retrieves a media entry by path.
func (r *MediaRepository) Get(ctx context.Context, path string) (*mediaindex.Entry, error) {
	query := `
		SELECT id, path, title, album, artist, duration_ms, is_music, size, modified_at
		FROM media
		WHERE path = $1
	`
	var (
		entry    mediaindex.Entry
		id       string
		isMusic  int
		modified *time.Time
	)
	err := r.pool.QueryRow(ctx, query, path).Scan(
		&id,
		&entry.Path,
		&entry.Title,
		&entry.Album,
		&entry.Artist,
		&entry.DurationMs,
		&isMusic,
		&entry.Size,
		&modified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying media entry: %w", err)
	}
	entry.ID = mediaindex.EntryID(entry.Path)
	entry.IsMusic = isMusic != 0
	if modified != nil {
		entry.ModifiedAt = *modified
	}
	return &entry, nil
}

// UpsertBatch inserts or updates multiple entries efficiently.
func (r *MediaRepository) UpsertBatch(ctx context.Context, entries []mediaindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO media (id, path, title, album, artist, duration_ms, is_music, size, modified_at, indexed_at)
		SELECT u.*, NOW() FROM unnest(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[],
			$6::bigint[], $7::int[], $8::bigint[], $9::timestamptz[]
		) AS u
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path,
			title = EXCLUDED.title,
			album = EXCLUDED.album,
			artist = EXCLUDED.artist,
			duration_ms = EXCLUDED.duration_ms,
			is_music = EXCLUDED.is_music,
			size = EXCLUDED.size,
			modified_at = EXCLUDED.modified_at,
			indexed_at = EXCLUDED.indexed_at
	`

	ids := make([]string, len(entries))
	paths := make([]string, len(entries))
	titles := make([]*string, len(entries))
	albums := make([]*string, len(entries))
	artists := make([]*string, len(entries))
	durations := make([]int64, len(entries))
	music := make([]int32, len(entries))
	sizes := make([]int64, len(entries))
	modified := make([]*time.Time, len(entries))

	for i, e := range entries {
		ids[i] = e.ID.String()
		paths[i] = e.Path
		titles[i] = e.Title
		albums[i] = e.Album
		artists[i] = e.Artist
		durations[i] = e.DurationMs
		if e.IsMusic {
			music[i] = 1
		}
		sizes[i] = e.Size
		if !e.ModifiedAt.IsZero() {
			mt := e.ModifiedAt
			modified[i] = &mt
		}
	}

	_, err := r.pool.Exec(ctx, query, ids, paths, titles, albums, artists, durations, music, sizes, modified)
	if err != nil {
		return fmt.Errorf("batch upserting media: %w", err)
	}
	return nil
}

// DeleteByPath removes the entry for path.
func (r *MediaRepository) DeleteByPath(ctx context.Context, path string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM media WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("deleting media entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry at or below dir.
func (r *MediaRepository) DeletePrefix(ctx context.Context, dir string) error {
	query := `DELETE FROM media WHERE path = $1 OR path LIKE $2 ESCAPE '\'`
	_, err := r.pool.Exec(ctx, query, dir, mediaindex.LikeChildren(dir))
	if err != nil {
		return fmt.Errorf("deleting media under %s: %w", dir, err)
	}
	return nil
}

// Count returns the number of indexed entries.
func (r *MediaRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting media: %w", err)
	}
	return n, nil
}
