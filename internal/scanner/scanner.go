// Package scanner lists the eligible audio tracks known to the media index.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// MinDuration is the shortest track the scanner returns.
const MinDuration = 2000 * time.Millisecond

// Placeholders substituted for missing index values.
const (
	UnknownTitle = "Unknown Title"
	UnknownAlbum = "Unknown Album"
)

// ErrIndexUnavailable is returned when the media index cannot be queried or read.
// An index that is reachable but empty is not an error.
var ErrIndexUnavailable = errors.New("media index unavailable")

// TrackDescriptor is the minimal record returned for one eligible audio file.
type TrackDescriptor struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Album string `json:"album"`
}

// Scanner queries the media index and filters the rows down to playable music.
type Scanner struct {
	index  mediaindex.Index
	logger *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scanner reading from index.
func New(index mediaindex.Index, opts ...Option) *Scanner {
	s := &Scanner{
		index:  index,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanAudioFiles returns every music track at least MinDuration long, in the order
// the index returns them. The result is never nil when err is nil.
func (s *Scanner) ScanAudioFiles(ctx context.Context) ([]TrackDescriptor, error) {
	cursor, err := s.index.QueryMusic(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying music: %w", ErrIndexUnavailable, err)
	}
	if cursor == nil {
		s.logger.Info("no music files found")
		return []TrackDescriptor{}, nil
	}
	defer cursor.Close()

	tracks := []TrackDescriptor{}
	rows := 0
	for cursor.Next() {
		rows++
		row, err := cursor.Row()
		if err != nil {
			return nil, fmt.Errorf("%w: reading row: %w", ErrIndexUnavailable, err)
		}

		title := valueOr(row.Title, UnknownTitle)
		album := valueOr(row.Album, UnknownAlbum)

		if row.DurationMs < MinDuration.Milliseconds() {
			s.logger.Info("skipping short track",
				zap.String("title", title),
				zap.Int64("duration_ms", row.DurationMs),
			)
			continue
		}

		s.logger.Info("found music",
			zap.String("title", title),
			zap.String("album", album),
			zap.Int64("duration_ms", row.DurationMs),
			zap.String("path", row.Path),
		)
		tracks = append(tracks, TrackDescriptor{
			Path:  row.Path,
			Title: title,
			Album: album,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rows: %w", ErrIndexUnavailable, err)
	}

	if rows == 0 {
		s.logger.Info("no music files found")
	}
	return tracks, nil
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
