package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// testDSNEnv names a throwaway PostgreSQL database; its media table is truncated.
const testDSNEnv = "MEDIASTORE_TEST_POSTGRES"

func openTestDB(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	database, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(database.Close)

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if _, err := database.pool.Exec(ctx, `TRUNCATE media`); err != nil {
		t.Fatalf("truncating media: %v", err)
	}
	return database.Store()
}

func entry(path, title, album string, durationMs int64, music bool) mediaindex.Entry {
	return mediaindex.Entry{
		ID:         mediaindex.EntryID(path),
		Path:       path,
		Title:      mediaindex.StringPtr(title),
		Album:      mediaindex.StringPtr(album),
		DurationMs: durationMs,
		IsMusic:    music,
		Size:       1024,
		ModifiedAt: time.UnixMilli(1700000000000).UTC(),
	}
}

func readAll(t *testing.T, s *Store) []mediaindex.Row {
	t.Helper()
	cur, err := s.QueryMusic(context.Background())
	if err != nil {
		t.Fatalf("QueryMusic() error: %v", err)
	}
	defer cur.Close()

	var rows []mediaindex.Row
	for cur.Next() {
		row, err := cur.Row()
		if err != nil {
			t.Fatalf("Row() error: %v", err)
		}
		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	return rows
}

func TestQueryMusic_FiltersAndSorts(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	err := s.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/m/zed.mp3", "Zed", "Z", 4000, true),
		entry("/m/able.mp3", "Able", "A", 4000, true),
		entry("/m/untitled.mp3", "", "", 3000, true),
		entry("/Ringtones/ring.mp3", "Bell", "", 3000, false),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	rows := readAll(t, s)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 music rows", len(rows))
	}
	if rows[0].Title != nil || rows[0].Album != nil {
		t.Errorf("rows[0] = %+v, want NULL title and album first", rows[0])
	}
	if *rows[1].Title != "Able" || *rows[2].Title != "Zed" {
		t.Errorf("order = %q, %q; want Able, Zed", *rows[1].Title, *rows[2].Title)
	}
	if rows[1].DurationMs != 4000 {
		t.Errorf("DurationMs = %d, want 4000", rows[1].DurationMs)
	}
}

func TestQueryMusic_Empty(t *testing.T) {
	s := openTestDB(t)
	if rows := readAll(t, s); len(rows) != 0 {
		t.Errorf("got %d rows from empty index", len(rows))
	}
}

func TestUpsertBatch_SamePathOnce(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if err := s.UpsertBatch(ctx, []mediaindex.Entry{entry("/m/a.mp3", "Old", "A", 3000, true)}); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}
	if err := s.UpsertBatch(ctx, []mediaindex.Entry{entry("/m/a.mp3", "New", "A", 5000, true)}); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	got, err := s.Get(ctx, "/m/a.mp3")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if *got.Title != "New" || got.DurationMs != 5000 {
		t.Errorf("Get() = %+v, want updated title and duration", got)
	}
	if !got.ModifiedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("ModifiedAt = %v", got.ModifiedAt)
	}
}

func TestUpsertBatch_ZeroModifiedIsNull(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	e := entry("/m/a.mp3", "A", "", 3000, true)
	e.ModifiedAt = time.Time{}
	if err := s.UpsertBatch(ctx, []mediaindex.Entry{e}); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	var isNull bool
	err := s.db.pool.QueryRow(ctx, `SELECT modified_at IS NULL FROM media WHERE path = $1`, e.Path).Scan(&isNull)
	if err != nil {
		t.Fatalf("querying modified_at: %v", err)
	}
	if !isNull {
		t.Error("zero ModifiedAt stored as a timestamp, want NULL")
	}

	got, err := s.Get(ctx, e.Path)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !got.ModifiedAt.IsZero() {
		t.Errorf("ModifiedAt = %v, want zero", got.ModifiedAt)
	}
}

func TestDelete(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	err := s.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/m/album/1.mp3", "One", "A", 3000, true),
		entry("/m/album/2.mp3", "Two", "A", 3000, true),
		entry("/m/album_b/3.mp3", "Three", "B", 3000, true),
		entry("/m/Album/4.mp3", "Four", "C", 3000, true),
		entry("/m/single.mp3", "Single", "", 3000, true),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	if err := s.DeleteByPath(ctx, "/m/single.mp3"); err != nil {
		t.Fatalf("DeleteByPath() error: %v", err)
	}
	if _, err := s.Get(ctx, "/m/single.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	if err := s.DeletePrefix(ctx, "/m/album"); err != nil {
		t.Fatalf("DeletePrefix() error: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d after prefix delete, want 2 (album_b and Album survive)", n)
	}
	for _, path := range []string{"/m/album_b/3.mp3", "/m/Album/4.mp3"} {
		if _, err := s.Get(ctx, path); err != nil {
			t.Errorf("Get(%s) error = %v", path, err)
		}
	}
}
