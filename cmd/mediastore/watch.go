package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/indexer"
	"github.com/justestif/mediastore/internal/metadata"
)

func (app *Application) createWatchCommand() *cobra.Command {
	var initial bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep the index in sync with a directory",
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

			idx := indexer.New(store, metadata.NewExtractor(), indexer.WithLogger(app.Logger))

			if initial {
				result, err := idx.IndexDirectory(ctx, root)
				if err != nil {
					return fmt.Errorf("indexing %s: %w", root, err)
				}
				total, err := store.Count(ctx)
				if err != nil {
					return err
				}
				app.Logger.Info("initial index complete",
					zap.Int("indexed", result.Indexed),
					zap.Int("total", total),
				)
			}

			return idx.Watch(ctx, root)
		},
	}

	cmd.Flags().BoolVar(&initial, "initial", true, "index the directory before watching")
	return cmd
}
