// Package mediaindex defines the read and write contracts of the shared media index.
package mediaindex

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row is one raw row returned by a music query.
// Nil Title or Album means the index holds no value for that column.
type Row struct {
	Path       string
	Title      *string
	Album      *string
	DurationMs int64
}

// Cursor is a handle to a query result set, consumed row by row.
// Callers must Close it on every exit path.
type Cursor interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close() error
}

// Index is the read-only query side of the media index.
type Index interface {
	// QueryMusic returns every row flagged as music, sorted ascending by title.
	// A nil Cursor with a nil error means the index produced no cursor at all.
	QueryMusic(ctx context.Context) (Cursor, error)
}

// Entry is one file as written into the index.
type Entry struct {
	ID         uuid.UUID
	Path       string
	Title      *string
	Album      *string
	Artist     *string
	DurationMs int64
	IsMusic    bool
	Size       int64
	ModifiedAt time.Time
}

// Writer is the write side of the media index used by the indexer.
type Writer interface {
	UpsertBatch(ctx context.Context, entries []Entry) error
	DeleteByPath(ctx context.Context, path string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ErrNotFound is returned when no entry exists for a path.
var ErrNotFound = errors.New("not found")

// Store is a full media index backend.
type Store interface {
	Index
	Writer
	// Get returns the entry for path, or ErrNotFound.
	Get(ctx context.Context, path string) (*Entry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// entryNamespace scopes the name-based UUIDs derived from file paths.
var entryNamespace = uuid.MustParse("7d1f0a52-5a3e-4c59-9a55-2f1c0e8b6d40")

// EntryID returns the stable ID for the file at path.
func EntryID(path string) uuid.UUID {
	return uuid.NewSHA1(entryNamespace, []byte(filepath.Clean(path)))
}

// nonMusicDirs are directory names whose audio is not music (ringtones, alerts, spoken word).
var nonMusicDirs = map[string]bool{
	"ringtones":     true,
	"notifications": true,
	"alarms":        true,
	"podcasts":      true,
	"recordings":    true,
	"audiobooks":    true,
}

// IsMusicPath reports whether the audio file at path should be flagged as music.
func IsMusicPath(path string) bool {
	dir := filepath.Dir(filepath.Clean(path))
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if nonMusicDirs[strings.ToLower(part)] {
			return false
		}
	}
	return true
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ChildPrefix returns the prefix shared by every path below dir.
func ChildPrefix(dir string) string {
	return strings.TrimSuffix(filepath.Clean(dir), "/") + "/"
}

// LikeChildren returns a LIKE pattern, escaped with '\', matching every path below dir.
func LikeChildren(dir string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSuffix(ChildPrefix(dir), "/")) + "/%"
}
