// Package indexer populates the media index from a music directory.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/mediaindex"
	"github.com/justestif/mediastore/internal/metadata"
)

// DefaultBatchSize is the number of entries written per upsert.
const DefaultBatchSize = 200

// MetadataSource abstracts the metadata extractor for testing.
type MetadataSource interface {
	Extract(path string) (*metadata.Info, error)
}

// Result summarizes one directory indexing run.
type Result struct {
	Indexed int // entries written to the index
	Music   int // of those, entries flagged as music
	Failed  int // audio files that could not be read
}

// Indexer walks directories and writes audio file entries to the index.
type Indexer struct {
	store       mediaindex.Writer
	source      MetadataSource
	logger      *zap.Logger
	batchSize   int
	concurrency int
	progress    func(done, total int)
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger for indexing diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Indexer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithBatchSize sets how many entries are written per upsert.
func WithBatchSize(n int) Option {
	return func(i *Indexer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithConcurrency sets the number of files read in parallel.
func WithConcurrency(n int) Option {
	return func(i *Indexer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked after every processed file.
func WithProgress(fn func(done, total int)) Option {
	return func(i *Indexer) {
		i.progress = fn
	}
}

// New creates an indexer writing to store.
func New(store mediaindex.Writer, source MetadataSource, opts ...Option) *Indexer {
	i := &Indexer{
		store:       store,
		source:      source,
		logger:      zap.NewNop(),
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IndexDirectory indexes every audio file below root.
// Files that cannot be read are counted in Result.Failed and skipped.
func (i *Indexer) IndexDirectory(ctx context.Context, root string) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	paths, err := collectAudioFiles(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	result := &Result{}
	batch := make([]mediaindex.Entry, 0, i.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		result.Indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	done := 0
	for start := 0; start < len(paths); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		chunk := paths[start:min(start+i.batchSize, len(paths))]
		for _, x := range i.extractAll(ctx, chunk) {
			switch {
			case ctx.Err() != nil:
				return result, ctx.Err()
			case x.err != nil:
				i.logger.Warn("failed to read audio file", zap.String("path", x.path), zap.Error(x.err))
				result.Failed++
			default:
				if x.entry.IsMusic {
					result.Music++
				}
				batch = append(batch, *x.entry)
			}

			done++
			if i.progress != nil {
				i.progress(done, len(paths))
			}
		}

		if err := flush(); err != nil {
			return result, fmt.Errorf("writing batch: %w", err)
		}
	}

	i.logger.Info("indexed directory",
		zap.String("root", root),
		zap.Int("indexed", result.Indexed),
		zap.Int("music", result.Music),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// IndexFile indexes a single audio file.
func (i *Indexer) IndexFile(ctx context.Context, path string) error {
	entry, err := i.buildEntry(path)
	if err != nil {
		return err
	}
	if err := i.store.UpsertBatch(ctx, []mediaindex.Entry{*entry}); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

func (i *Indexer) buildEntry(path string) (*mediaindex.Entry, error) {
	info, err := i.source.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extracting metadata: %w", err)
	}
	return &mediaindex.Entry{
		ID:         mediaindex.EntryID(path),
		Path:       path,
		Title:      info.Title,
		Album:      info.Album,
		Artist:     info.Artist,
		DurationMs: info.Duration.Milliseconds(),
		IsMusic:    mediaindex.IsMusicPath(path),
		Size:       info.Size,
		ModifiedAt: info.ModTime,
	}, nil
}

// collectAudioFiles returns every supported audio file below root in walk order.
func collectAudioFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !metadata.IsAudioFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}
