package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/justestif/mediastore/internal/indexer"
	"github.com/justestif/mediastore/internal/metadata"
)

func (app *Application) createIndexCommand() *cobra.Command {
	var batchSize, concurrency int

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index the audio files below a directory",
		Long:  `Walk a directory, read tags and durations of every audio file and write them to the index. Defaults to library.root.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			root, err := app.libraryRoot(args)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, app.Config.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			idx := indexer.New(store, metadata.NewExtractor(),
				indexer.WithLogger(app.Logger),
				indexer.WithBatchSize(batchSize),
				indexer.WithConcurrency(concurrency),
				indexer.WithProgress(func(done, total int) {
					if done == 1 {
						bar.ChangeMax(total)
					}
					bar.Set(done)
				}),
			)

			result, err := idx.IndexDirectory(ctx, root)
			bar.Finish()
			if err != nil {
				return fmt.Errorf("indexing %s: %w", root, err)
			}

			total, err := store.Count(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files (%d music, %d failed), %d entries in index\n",
				result.Indexed, result.Music, result.Failed, total)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", indexer.DefaultBatchSize, "entries written per transaction")
	cmd.Flags().IntVar(&concurrency, "concurrency", indexer.DefaultConcurrency, "files read in parallel")
	return cmd
}

// libraryRoot picks the directory argument or falls back to library.root.
func (app *Application) libraryRoot(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if app.Config.Library.Root == "" {
		return "", fmt.Errorf("no directory given and library.root is not set")
	}
	return app.Config.Library.Root, nil
}
