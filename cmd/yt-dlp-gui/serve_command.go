package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Fatihx64/yt-dlp-gui/internal/daemon"
	"github.com/Fatihx64/yt-dlp-gui/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the download daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := logging.New(cfg.Log)
			defer logger.Close()

			d, err := daemon.New(cfg, logger.Logger, version)
			if err != nil {
				if errors.Is(err, daemon.ErrAlreadyRunning) {
					return fmt.Errorf("a daemon already owns %s; stop it before starting another", cfg.Store.StateDir)
				}
				return err
			}
			return d.Run(signalCtx)
		},
	}
}
