package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Fatihx64/yt-dlp-gui/internal/client"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(api *client.Client, hist *history.Store) error {
				out := cmd.OutOrStdout()

				if clearFlag {
					if api != nil {
						if err := api.ClearHistory(cmd.Context()); err != nil {
							return err
						}
					} else if err := hist.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(out, "History cleared")
					return nil
				}

				var entries []history.Entry
				var err error
				if api != nil {
					entries, err = api.History(cmd.Context(), limitFlag)
				} else {
					entries, err = hist.List(limitFlag)
				}
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "History is empty")
					return nil
				}

				fmt.Fprint(out, renderTable(
					[]string{"Title", "Status", "Duration", "Finished", "Output"},
					buildHistoryRows(entries),
					2,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "Delete all history entries")
	return cmd
}

func buildHistoryRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" || title == "Unknown" {
			title = e.URL
		}
		detail := e.OutputFile
		if e.ErrorMessage != "" {
			detail = e.ErrorMessage
		}
		rows = append(rows, []string{
			truncate(title, 48),
			e.Status,
			platform.FormatDuration(int(e.Duration)),
			humanize.Time(e.FinishedAt),
			truncate(detail, 40),
		})
	}
	return rows
}
