package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/justestif/mediastore/internal/mediastore"
	"github.com/justestif/mediastore/internal/scanner"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0, 0, 0)
)

func (app *Application) createScanCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the music tracks in the index",
		Long:  `Query the index for music tracks of at least two seconds, sorted by title.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, app.Config.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			tracks, err := scanner.New(store, scanner.WithLogger(app.Logger)).ScanAudioFiles(ctx)
			if err != nil {
				return fmt.Errorf("scanning: %w", err)
			}

			if asJSON {
				return writeTracksJSON(cmd.OutOrStdout(), tracks)
			}
			writeTracksTable(cmd.OutOrStdout(), tracks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the channel payload as JSON")
	return cmd
}

func writeTracksJSON(w io.Writer, tracks []scanner.TrackDescriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(mediastore.Encode(tracks))
}

func writeTracksTable(w io.Writer, tracks []scanner.TrackDescriptor) {
	if len(tracks) == 0 {
		fmt.Fprintln(w, "No music tracks in the index.")
		return
	}

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.Title, t.Album, t.Path})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TITLE", "ALBUM", "PATH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col < 2 && (rows[row][col] == scanner.UnknownTitle || rows[row][col] == scanner.UnknownAlbum) {
				return unknownStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d tracks", len(tracks))))
}
