package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/format"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var qualityFlag string
	var specFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "get <url>...",
		Short: "Download URLs in the foreground, without the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			bin, ok := platform.LocateYtdlp(cfg.Tools.YtdlpPath)
			if !ok {
				return errors.New("yt-dlp not found; install it or set tools.ytdlp_path")
			}
			ffmpeg, _ := platform.LocateFFmpeg(cfg.Tools.FFmpegPath)
			tool, err := ytdlp.New(bin, ffmpeg, zerolog.Nop())
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
			opts := cfg.DefaultOptions()
			opts.ExtraArgs = format.ExtraArgs(formatType)

			outputDir := outputFlag
			if outputDir == "" {
				outputDir = cfg.Download.OutputPath
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			for _, url := range args {
				fmt.Fprintf(out, "Downloading %s\n", url)
				dest, err := tool.Runner().Run(signalCtx, ytdlp.Job{
					URL:        url,
					OutputDir:  outputDir,
					FormatSpec: spec,
					Options:    opts,
				}, func(p domain.DownloadProgress) {
					renderProgress(out, p)
				})
				fmt.Fprintln(out)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved to %s\n", dest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Format preset (video_audio, audio_mp3, ...)")
	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Quality preset (best, 1080, 720, ...)")
	cmd.Flags().StringVar(&specFlag, "format-spec", "", "Raw yt-dlp format selector; overrides the presets")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory")
	return cmd
}

// renderProgress redraws a single status line in place. The fixed width
// pads out leftovers from the previous, possibly longer, line.
func renderProgress(w io.Writer, p domain.DownloadProgress) {
	switch p.Status {
	case domain.ProgressDownloading:
		line := fmt.Sprintf("  %5.1f%%", p.Percent)
		if p.Speed != "" {
			line += "  " + p.Speed
		}
		if p.ETA != "" {
			line += "  ETA " + p.ETA
		}
		fmt.Fprintf(w, "\r%-60s", line)
	case domain.ProgressProcessing:
		fmt.Fprintf(w, "\r%-60s", "  processing...")
	}
}
