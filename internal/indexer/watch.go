package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rjeczalik/notify"
	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/metadata"
)

// watchEvents are the filesystem changes that touch the index.
var watchEvents = []notify.Event{
	notify.Create,
	notify.Write,
	notify.Remove,
	notify.Rename,
}

// Watch keeps the index in sync with root until ctx is cancelled.
func (i *Indexer) Watch(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	events := make(chan notify.EventInfo, 64)

	// The '...' suffix makes notify watch the tree recursively.
	if err := notify.Watch(filepath.Join(root, "..."), events, watchEvents...); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	defer notify.Stop(events)

	i.logger.Info("watching library", zap.String("root", root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ei := <-events:
			if err := i.handleEvent(ctx, ei.Path(), ei.Event()); err != nil {
				i.logger.Warn("failed to apply change",
					zap.String("path", ei.Path()),
					zap.Stringer("event", ei.Event()),
					zap.Error(err),
				)
			}
		}
	}
}

// handleEvent applies one filesystem change to the index.
// Rename fires for both the old and the new name, so the current state of
// path decides whether it is indexed or dropped.
func (i *Indexer) handleEvent(ctx context.Context, path string, ev notify.Event) error {
	if ev&notify.Remove != 0 {
		return i.store.DeletePrefix(ctx, path)
	}

	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return i.store.DeletePrefix(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if stat.IsDir() {
		if ev&(notify.Create|notify.Rename) == 0 {
			return nil
		}
		_, err := i.IndexDirectory(ctx, path)
		return err
	}

	if !metadata.IsAudioFile(path) {
		return nil
	}
	return i.IndexFile(ctx, path)
}
