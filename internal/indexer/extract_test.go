package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/mediastore/internal/metadata"
)

// slowSource records peak concurrency while sleeping per file.
type slowSource struct {
	active atomic.Int32
	peak   atomic.Int32
	fail   string
}

func (s *slowSource) Extract(path string) (*metadata.Info, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	if filepath.Base(path) == s.fail {
		return nil, errors.New("unreadable")
	}
	title := filepath.Base(path)
	return &metadata.Info{Title: &title}, nil
}

func TestExtractAll(t *testing.T) {
	var paths []string
	for n := 0; n < 12; n++ {
		paths = append(paths, fmt.Sprintf("/music/%02d.mp3", n))
	}

	source := &slowSource{fail: "05.mp3"}
	idx := New(newMockWriter(), source, WithConcurrency(3))

	results := idx.extractAll(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for n, r := range results {
		if r.path != paths[n] {
			t.Errorf("results[%d].path = %q, want %q", n, r.path, paths[n])
		}
		if filepath.Base(r.path) == "05.mp3" {
			if r.err == nil {
				t.Error("05.mp3 should fail")
			}
			continue
		}
		if r.err != nil || *r.entry.Title != filepath.Base(r.path) {
			t.Errorf("results[%d] = %+v", n, r)
		}
	}
	if peak := source.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestExtractAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(newMockWriter(), &slowSource{}).extractAll(ctx, []string{"/music/a.mp3", "/music/b.mp3"})
	for _, r := range results {
		if !errors.Is(r.err, context.Canceled) {
			t.Errorf("%s err = %v, want context.Canceled", r.path, r.err)
		}
	}
}

func TestExtractAll_Empty(t *testing.T) {
	if got := New(newMockWriter(), &slowSource{}).extractAll(context.Background(), nil); len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}
