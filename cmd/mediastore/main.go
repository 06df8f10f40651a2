// Command mediastore indexes a local audio library and serves it on the media_store channel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{}
	defer app.close()

	return app.createRootCommand().ExecuteContext(ctx)
}

// Application carries state shared by the subcommands.
type Application struct {
	configPath string
	database   string

	Config *config.Config
	Logger *zap.Logger
}

func (app *Application) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mediastore",
		Short:         "Index and query a local audio library",
		Long:          `Index a local audio library and serve the eligible music tracks on the media_store channel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&app.database, "database", "", "postgres:// DSN or SQLite file (overrides config)")

	rootCmd.AddCommand(app.createServeCommand())
	rootCmd.AddCommand(app.createScanCommand())
	rootCmd.AddCommand(app.createIndexCommand())
	rootCmd.AddCommand(app.createWatchCommand())
	rootCmd.AddCommand(app.createShowCommand())

	return rootCmd
}

// setup loads configuration and builds the logger.
func (app *Application) setup() error {
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if app.database != "" {
		cfg.Database = config.ExpandDatabase(app.database)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.Config = cfg

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	app.Logger = logger
	return nil
}

func (app *Application) close() {
	if app.Logger != nil {
		app.Logger.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	cfg.Level = lvl
	return cfg.Build()
}
