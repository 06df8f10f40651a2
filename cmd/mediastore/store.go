package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/justestif/mediastore/internal/db"
	"github.com/justestif/mediastore/internal/mediaindex"
	"github.com/justestif/mediastore/internal/sqlite"
)

// openStore opens the media index named by dsn. postgres:// and postgresql://
// select PostgreSQL; anything else is a SQLite file, with an optional sqlite:// prefix.
func openStore(ctx context.Context, dsn string) (mediaindex.Store, error) {
	if isPostgres(dsn) {
		pg, err := db.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg.Store(), nil
	}

	lite, err := sqlite.Open(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return lite, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
