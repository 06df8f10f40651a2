package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/mediastore/internal/channel"
	"github.com/justestif/mediastore/internal/mediastore"
	"github.com/justestif/mediastore/internal/scanner"
	"github.com/justestif/mediastore/internal/web"
)

func (app *Application) createServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the media_store channel over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, app.Config.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			messenger := channel.NewMessenger()
			messenger.Register(mediastore.NewChannel(scanner.New(store, scanner.WithLogger(app.Logger))))

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			server, err := web.NewServer(web.ServerConfig{
				Addr:      addr,
				Messenger: messenger,
				Logger:    app.Logger,
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
