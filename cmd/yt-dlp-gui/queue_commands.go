package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Fatihx64/yt-dlp-gui/internal/api/controllers"
	"github.com/Fatihx64/yt-dlp-gui/internal/client"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/format"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string
	var formatFlag string
	var qualityFlag string
	var specFlag string
	var outputFlag string
	var startFlag bool

	cmd := &cobra.Command{
		Use:   "add <url>...",
		Short: "Queue URLs for download",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if api != nil {
					resp, err := api.Add(cmd.Context(), controllers.AddRequest{
						URLs:       args,
						Title:      titleFlag,
						Format:     formatFlag,
						Quality:    qualityFlag,
						FormatSpec: specFlag,
						OutputPath: outputFlag,
						StartNow:   startFlag,
					})
					if err != nil {
						return err
					}
					for _, id := range resp.IDs {
						fmt.Fprintf(out, "Queued %s\n", shortID(id))
					}
					return nil
				}

				if startFlag {
					return errors.New("--start needs a running daemon; use `yt-dlp-gui get` for foreground downloads")
				}

				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				formatType := formatFlag
				if formatType == "" {
					formatType = cfg.Download.DefaultFormat
				}
				quality := qualityFlag
				if quality == "" {
					quality = cfg.Download.DefaultQuality
				}
				spec := specFlag
				if spec == "" {
					spec = format.BuildSpec(formatType, quality)
				}

				for _, u := range args {
					item := domain.NewItem(strings.TrimSpace(u))
					if titleFlag != "" {
						item.Title = titleFlag
					}
					item.FormatSpec = spec
					item.Quality = quality
					item.OutputPath = outputFlag
					item.Options.ExtraArgs = format.ExtraArgs(formatType)
					fmt.Fprintf(out, "Queued %s\n", shortID(store.Add(item)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "Display title for the queued items")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Format preset (video_audio, audio_mp3, ...)")
	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Quality preset (best, 1080, 720, ...)")
	cmd.Flags().StringVar(&specFlag, "format-spec", "", "Raw yt-dlp format selector; overrides the presets")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory")
	cmd.Flags().BoolVar(&startFlag, "start", false, "Start downloading immediately (needs a daemon)")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				items, err := listItems(cmd.Context(), api, store)
				if err != nil {
					return err
				}
				items = filterByStatus(items, statusFlag)
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Speed", "Added"},
					buildQueueRows(items),
					3,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlag, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove items from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				items, err := listItems(cmd.Context(), api, store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := resolveItemID(items, arg)
					if err != nil {
						return err
					}
					if api != nil {
						if err := api.Remove(cmd.Context(), id); err != nil {
							return err
						}
					} else {
						store.Remove(id)
					}
					fmt.Fprintf(out, "Removed %s\n", shortID(id))
				}
				return nil
			})
		},
	}
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var upFlag int
	var downFlag int

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Shift an item within the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (upFlag > 0) == (downFlag > 0) {
				return errors.New("specify exactly one of --up or --down")
			}
			delta := downFlag
			if upFlag > 0 {
				delta = -upFlag
			}
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				items, err := listItems(cmd.Context(), api, store)
				if err != nil {
					return err
				}
				id, err := resolveItemID(items, args[0])
				if err != nil {
					return err
				}
				if api != nil {
					if err := api.Move(cmd.Context(), id, delta); err != nil {
						return err
					}
				} else {
					store.Move(id, delta)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s by %+d\n", shortID(id), delta)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&upFlag, "up", 0, "Positions to move toward the front")
	cmd.Flags().IntVar(&downFlag, "down", 0, "Positions to move toward the back")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>...",
		Short: "Reset failed items to pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				items, err := listItems(cmd.Context(), api, store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := resolveItemID(items, arg)
					if err != nil {
						return err
					}
					if api != nil {
						if err := api.Retry(cmd.Context(), id); err != nil {
							return err
						}
					} else {
						item, _ := store.Get(id)
						if item.Status != domain.StatusFailed {
							fmt.Fprintf(out, "%s is not failed, skipping\n", shortID(id))
							continue
						}
						store.Update(id, func(it *domain.QueueItem) {
							it.Status = domain.StatusPending
							it.Progress = 0
						})
					}
					fmt.Fprintf(out, "Retrying %s\n", shortID(id))
				}
				return nil
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>...",
		Short: "Cancel active downloads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only a daemon owns running processes, so cancel is
			// meaningless without one.
			api, err := ctx.requireClient(cmd.Context())
			if err != nil {
				return err
			}
			items, err := api.Queue(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := resolveItemID(items, arg)
				if err != nil {
					return err
				}
				if err := api.CancelItem(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cancelled %s\n", shortID(id))
			}
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed items, or everything with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if api != nil {
					if allFlag {
						if err := api.ClearAll(cmd.Context()); err != nil {
							return err
						}
						fmt.Fprintln(out, "Cleared the queue")
						return nil
					}
					if err := api.ClearCompleted(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(out, "Cleared completed items")
					return nil
				}

				if allFlag {
					store.ClearAll()
					fmt.Fprintln(out, "Cleared the queue")
					return nil
				}
				store.ClearCompleted()
				fmt.Fprintln(out, "Cleared completed items")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Remove every item, not just completed ones")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(api *client.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var stats queue.Stats
				if api != nil {
					status, err := api.Status(cmd.Context())
					if err != nil {
						return err
					}
					stats = status.Stats
					state := "idle"
					if status.Running {
						state = "running"
					}
					fmt.Fprintf(out, "Daemon: %s, %d active\n", state, status.Active)
				} else {
					stats = store.Stats()
				}

				fmt.Fprint(out, renderTable(
					[]string{"Status", "Count"},
					[][]string{
						{"Total", strconv.Itoa(stats.Total)},
						{"Pending", strconv.Itoa(stats.Pending)},
						{"Downloading", strconv.Itoa(stats.Downloading)},
						{"Completed", strconv.Itoa(stats.Completed)},
						{"Failed", strconv.Itoa(stats.Failed)},
					},
					1,
				))
				return nil
			})
		},
	}
}

func listItems(ctx context.Context, api *client.Client, store *queue.Store) ([]domain.QueueItem, error) {
	if api != nil {
		return api.Queue(ctx)
	}
	return store.List(), nil
}

func filterByStatus(items []domain.QueueItem, statuses []string) []domain.QueueItem {
	if len(statuses) == 0 {
		return items
	}
	want := make(map[domain.Status]bool, len(statuses))
	for _, s := range statuses {
		if parsed, ok := domain.ParseStatus(strings.ToLower(strings.TrimSpace(s))); ok {
			want[parsed] = true
		}
	}
	out := items[:0]
	for _, it := range items {
		if want[it.Status] {
			out = append(out, it)
		}
	}
	return out
}

func buildQueueRows(items []domain.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		progress := "-"
		if it.Status.Active() || it.Progress > 0 {
			progress = fmt.Sprintf("%.1f%%", it.Progress)
		}
		rows = append(rows, []string{
			shortID(it.ID),
			truncate(it.DisplayTitle(), 48),
			string(it.Status),
			progress,
			it.Speed,
			humanize.Time(it.AddedTime),
		})
	}
	return rows
}

// resolveItemID matches arg against item IDs, accepting any unambiguous
// prefix so users can paste the short form shown by list.
func resolveItemID(items []domain.QueueItem, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("empty item id")
	}

	for _, it := range items {
		if it.ID == arg {
			return it.ID, nil
		}
	}

	var match string
	for _, it := range items {
		if strings.HasPrefix(it.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("item id %q is ambiguous", arg)
			}
			match = it.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no queue item matches %q", arg)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
