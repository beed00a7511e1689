package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the app version and external tool status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "yt-dlp-gui %s\n", version)

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			for _, tool := range platform.CheckDependencies(cfg.Tools.YtdlpPath, cfg.Tools.FFmpegPath) {
				state := "not found"
				if tool.Available {
					state = tool.Path
				}
				if !tool.Available && !tool.Required {
					state += " (optional)"
				}
				fmt.Fprintf(out, "  %-8s %s\n", tool.Name, state)
			}

			if bin, ok := platform.LocateYtdlp(cfg.Tools.YtdlpPath); ok {
				tool, err := ytdlp.New(bin, "", zerolog.Nop())
				if err != nil {
					return nil
				}
				probeCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				if v, err := tool.Version(probeCtx); err == nil {
					fmt.Fprintf(out, "  yt-dlp version %s\n", v)
				}
			}
			return nil
		},
	}
}
