package indexer

import (
	"context"
	"sync"

	"github.com/justestif/mediastore/internal/mediaindex"
)

// DefaultConcurrency is the number of files read in parallel.
const DefaultConcurrency = 4

// extracted is the outcome of reading one file.
type extracted struct {
	path  string
	entry *mediaindex.Entry
	err   error
}

// extractAll reads paths with a pool of workers.
// Results are returned in the same order as paths; individual failures are
// captured in extracted.err rather than failing the batch.
func (i *Indexer) extractAll(ctx context.Context, paths []string) []extracted {
	results := make([]extracted, len(paths))
	if len(paths) == 0 {
		return results
	}

	type workItem struct {
		index int
		path  string
	}
	workCh := make(chan workItem, len(paths))
	for n, p := range paths {
		workCh <- workItem{index: n, path: p}
	}
	close(workCh)

	workers := min(i.concurrency, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = extracted{path: work.path, err: err}
					continue
				}
				entry, err := i.buildEntry(work.path)
				results[work.index] = extracted{path: work.path, entry: entry, err: err}
			}
		}()
	}
	wg.Wait()

	return results
}
