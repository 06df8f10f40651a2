package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/justestif/mediastore/internal/mediaindex"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "index", "media.sqlite"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
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
		ModifiedAt: time.UnixMilli(1700000000000),
	}
}

func readAll(t *testing.T, d *DB) []mediaindex.Row {
	t.Helper()
	cur, err := d.QueryMusic(context.Background())
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
	d := openTestDB(t)
	ctx := context.Background()

	err := d.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/m/zed.mp3", "Zed", "Z", 4000, true),
		entry("/m/ring.mp3", "Bell", "R", 3000, false),
		entry("/m/able.mp3", "Able", "A", 4000, true),
		entry("/m/mid.mp3", "Mid", "", 1500, true),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	rows := readAll(t, d)
	wantPaths := []string{"/m/able.mp3", "/m/mid.mp3", "/m/zed.mp3"}
	if len(rows) != len(wantPaths) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantPaths))
	}
	for i, p := range wantPaths {
		if rows[i].Path != p {
			t.Errorf("rows[%d].Path = %q, want %q", i, rows[i].Path, p)
		}
	}
	if rows[1].Album != nil {
		t.Errorf("rows[1].Album = %q, want nil", *rows[1].Album)
	}
	if rows[1].DurationMs != 1500 {
		t.Errorf("rows[1].DurationMs = %d, want 1500", rows[1].DurationMs)
	}
}

func TestQueryMusic_Empty(t *testing.T) {
	d := openTestDB(t)
	if rows := readAll(t, d); len(rows) != 0 {
		t.Errorf("got %d rows from empty index, want 0", len(rows))
	}
}

func TestUpsertBatch_SamePathOnce(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if err := d.UpsertBatch(ctx, []mediaindex.Entry{entry("/m/a.mp3", "Old", "X", 3000, true)}); err != nil {
		t.Fatalf("first UpsertBatch() error: %v", err)
	}
	if err := d.UpsertBatch(ctx, []mediaindex.Entry{entry("/m/a.mp3", "New", "Y", 5000, true)}); err != nil {
		t.Fatalf("second UpsertBatch() error: %v", err)
	}

	n, err := d.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	got, err := d.Get(ctx, "/m/a.mp3")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title == nil || *got.Title != "New" {
		t.Errorf("Title = %v, want New", got.Title)
	}
	if got.DurationMs != 5000 {
		t.Errorf("DurationMs = %d, want 5000", got.DurationMs)
	}
	if !got.ModifiedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("ModifiedAt = %v", got.ModifiedAt)
	}
	if got.ID != mediaindex.EntryID("/m/a.mp3") {
		t.Errorf("ID = %s, want path-derived ID", got.ID)
	}
}

func TestUpsertBatch_Empty(t *testing.T) {
	d := openTestDB(t)
	if err := d.UpsertBatch(context.Background(), nil); err != nil {
		t.Errorf("UpsertBatch(nil) error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/m/album/1.mp3", "One", "A", 3000, true),
		entry("/m/album/2.mp3", "Two", "A", 3000, true),
		entry("/m/album_b/3.mp3", "Three", "B", 3000, true),
		entry("/m/single.mp3", "Single", "", 3000, true),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	if err := d.DeleteByPath(ctx, "/m/single.mp3"); err != nil {
		t.Fatalf("DeleteByPath() error: %v", err)
	}
	if _, err := d.Get(ctx, "/m/single.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	if err := d.DeletePrefix(ctx, "/m/album"); err != nil {
		t.Fatalf("DeletePrefix() error: %v", err)
	}
	n, err := d.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after prefix delete, want 1 (album_b must survive)", n)
	}
	if _, err := d.Get(ctx, "/m/album_b/3.mp3"); err != nil {
		t.Errorf("Get(album_b) error = %v", err)
	}
}

func TestDeletePrefix_CaseSensitive(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/lib/rock/keep.mp3", "Keep", "", 3000, true),
		entry("/lib/Rock/gone.mp3", "Gone", "", 3000, true),
		entry("/lib/Rocket/other.mp3", "Other", "", 3000, true),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	if err := d.DeletePrefix(ctx, "/lib/Rock"); err != nil {
		t.Fatalf("DeletePrefix() error: %v", err)
	}

	n, err := d.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
	for _, path := range []string{"/lib/rock/keep.mp3", "/lib/Rocket/other.mp3"} {
		if _, err := d.Get(ctx, path); err != nil {
			t.Errorf("Get(%s) error = %v, want it kept", path, err)
		}
	}
	if _, err := d.Get(ctx, "/lib/Rock/gone.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(/lib/Rock/gone.mp3) error = %v, want ErrNotFound", err)
	}
}

func TestDeletePrefix_NonASCII(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.UpsertBatch(ctx, []mediaindex.Entry{
		entry("/lib/Björk/a.mp3", "A", "", 3000, true),
		entry("/lib/Björn/b.mp3", "B", "", 3000, true),
	})
	if err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	if err := d.DeletePrefix(ctx, "/lib/Björk"); err != nil {
		t.Fatalf("DeletePrefix() error: %v", err)
	}
	if _, err := d.Get(ctx, "/lib/Björk/a.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(Björk) error = %v, want ErrNotFound", err)
	}
	if _, err := d.Get(ctx, "/lib/Björn/b.mp3"); err != nil {
		t.Errorf("Get(Björn) error = %v, want it kept", err)
	}
}
