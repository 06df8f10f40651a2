package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/justestif/mediastore/internal/mediaindex"
)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(10)

func (app *Application) createShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file path]",
		Short: "Show the indexed entry for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			store, err := openStore(ctx, app.Config.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(ctx, path)
			if errors.Is(err, mediaindex.ErrNotFound) {
				return fmt.Errorf("%s is not indexed", path)
			}
			if err != nil {
				return err
			}

			writeEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

func writeEntry(w io.Writer, e *mediaindex.Entry) {
	field := func(label, value string) {
		fmt.Fprintln(w, labelStyle.Render(label)+value)
	}
	orDash := func(v *string) string {
		if v == nil {
			return "-"
		}
		return *v
	}

	field("path", e.Path)
	field("id", e.ID.String())
	field("title", orDash(e.Title))
	field("album", orDash(e.Album))
	field("artist", orDash(e.Artist))
	field("duration", (time.Duration(e.DurationMs) * time.Millisecond).String())
	field("music", fmt.Sprintf("%t", e.IsMusic))
	field("size", fmt.Sprintf("%d", e.Size))
	if !e.ModifiedAt.IsZero() {
		field("modified", e.ModifiedAt.Format(time.RFC3339))
	}
}
