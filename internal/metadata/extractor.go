// Package metadata extracts tags and durations from audio files.
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// audioExtensions lists the file types the indexer picks up.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
	".opus": true,
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Info holds what the index records about one audio file.
// Tag fields are nil when the file carries no value for them.
type Info struct {
	Title    *string
	Album    *string
	Artist   *string
	Duration time.Duration
	Size     int64
	ModTime  time.Time
}

// Extractor reads metadata from audio files.
type Extractor struct{}

// NewExtractor creates a new metadata extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads tags, duration, size and modification time of the file at path.
// Unreadable tags or an undecodable stream are not errors: the fields stay empty
// and the duration is zero.
func (e *Extractor) Extract(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("getting file info: %w", err)
	}

	info := &Info{
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}

	if m, err := tag.ReadFrom(file); err == nil {
		info.Title = nonEmpty(m.Title())
		info.Album = nonEmpty(m.Album())
		info.Artist = nonEmpty(m.Artist())
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding file: %w", err)
	}
	if d, err := e.decodeDuration(path, file); err == nil {
		info.Duration = d
	}

	return info, nil
}

func (e *Extractor) decodeDuration(path string, file *os.File) (time.Duration, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	rc := keepOpen{file}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(rc)
	default:
		return 0, fmt.Errorf("no decoder for %s", ext)
	}
	if err != nil {
		return 0, fmt.Errorf("decoding audio: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// keepOpen hands a file to decoders that close their reader. It stays seekable
// so mp3 and vorbis can measure the stream; Close leaves the file to Extract.
type keepOpen struct {
	io.ReadSeeker
}

func (keepOpen) Close() error { return nil }

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
