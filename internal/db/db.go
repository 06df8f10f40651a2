// Package db provides the PostgreSQL-backed media index.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// Common errors.
var (
	ErrNotFound = mediaindex.ErrNotFound
)

// schema creates the media table. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS media (
		id          TEXT PRIMARY KEY,
		path        TEXT NOT NULL UNIQUE,
		title       TEXT,
		album       TEXT,
		artist      TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		is_music    INTEGER NOT NULL DEFAULT 1,
		size        BIGINT NOT NULL DEFAULT 0,
		modified_at TIMESTAMPTZ,
		indexed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_title ON media (title)`,
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the media table if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Media returns a MediaRepository.
func (db *DB) Media() *MediaRepository {
	return &MediaRepository{pool: db.pool}
}

// Store bundles the media repository with the pool lifetime.
type Store struct {
	*MediaRepository
	db *DB
}

var _ mediaindex.Store = (*Store)(nil)

// Store returns the media index backed by this database.
func (db *DB) Store() *Store {
	return &Store{MediaRepository: db.Media(), db: db}
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
