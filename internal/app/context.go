package app

import (
	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/cache"
	"github.com/Fatihx64/yt-dlp-gui/internal/config"
	"github.com/Fatihx64/yt-dlp-gui/internal/engine"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
	"github.com/Fatihx64/yt-dlp-gui/internal/ws"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

// Context holds the shared resources every serving surface (HTTP API,
// websocket hub, CLI) works against. The daemon assembles it once and owns
// the lifecycle of everything in it.
type Context struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Version string

	Bus     *events.Bus
	Queue   *queue.Store
	History *history.Store
	Engine  *engine.Orchestrator
	Hub     *ws.Hub

	// Tool is nil when yt-dlp could not be located; surfaces must degrade
	// to reporting the missing dependency instead of crashing.
	Tool      *ytdlp.Client
	InfoCache *cache.InfoCache
}

// NewContext initializes the base environment. The daemon attaches the
// remaining resources as it constructs them.
func NewContext(cfg *config.Config, logger zerolog.Logger, version string) *Context {
	return &Context{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}
}

// ToolAvailable reports whether the downloader binary is usable right now.
func (c *Context) ToolAvailable() bool {
	return c.Tool != nil && c.Tool.Available()
}
