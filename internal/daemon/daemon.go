// Package daemon assembles and runs the long-lived process: queue store,
// download engine, history database, HTTP API, websocket hub, and the
// pruning scheduler. Construction happens exactly once, here; the other
// packages never reach into each other.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofrs/flock"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/api"
	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/cache"
	"github.com/Fatihx64/yt-dlp-gui/internal/config"
	"github.com/Fatihx64/yt-dlp-gui/internal/engine"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
	"github.com/Fatihx64/yt-dlp-gui/internal/ws"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

// infoCacheTTL bounds how long a cached media-info probe stays valid.
const infoCacheTTL = 24 * time.Hour

// ErrAlreadyRunning means another daemon holds the state-dir lock.
var ErrAlreadyRunning = errors.New("another instance is already running against this state dir")

// Daemon owns every long-lived resource. Build it with New and call Run
// exactly once; Run serves until its context is cancelled, then tears
// everything down in dependency order.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger
	app    *app.Context

	lock   *flock.Flock
	server *http.Server

	mu   sync.Mutex
	addr string
}

// New acquires the single-instance lock and constructs the full resource
// graph. On error nothing stays locked or open.
func New(cfg *config.Config, logger zerolog.Logger, version string) (*Daemon, error) {
	if err := os.MkdirAll(cfg.Store.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	lock := flock.New(cfg.LockFile())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	appCtx := app.NewContext(cfg, logger, version)
	appCtx.Bus = events.NewBus()

	store, err := queue.Open(cfg.QueueFile(), appCtx.Bus, logger)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	appCtx.Queue = store

	hist, err := history.Open(cfg.HistoryDB(), logger)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	appCtx.History = hist

	if path, found := platform.LocateYtdlp(cfg.Tools.YtdlpPath); found {
		ffmpegPath, _ := platform.LocateFFmpeg(cfg.Tools.FFmpegPath)
		tool, err := ytdlp.New(path, ffmpegPath, logger)
		if err != nil {
			hist.Close()
			lock.Unlock()
			return nil, err
		}
		appCtx.Tool = tool
		logger.Info().Str("path", path).Str("ffmpeg", ffmpegPath).Msg("downloader located")
	} else {
		logger.Warn().Msg("yt-dlp not found; downloads are disabled until it is installed")
	}

	factory := func() engine.Runner { return appCtx.Tool.Runner() }
	appCtx.Engine = engine.New(cfg, store, appCtx.Bus, factory, appCtx.ToolAvailable, logger)
	appCtx.Hub = ws.NewHub(appCtx.Bus, logger)
	appCtx.InfoCache = cache.NewInfoCache(filepath.Join(cfg.Store.StateDir, "info_cache"), infoCacheTTL)

	return &Daemon{
		cfg:    cfg,
		logger: logger.With().Str("component", "daemon").Logger(),
		app:    appCtx,
		lock:   lock,
	}, nil
}

// App exposes the assembled context, mainly for tests.
func (d *Daemon) App() *app.Context { return d.app }

// Addr returns the bound listen address, empty until Run has started the
// server. With port 0 in the config this is where the ephemeral port shows
// up.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Run serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.app.Hub.Run(ctx)
	go d.recordOutcomes(ctx)

	scheduler := d.startScheduler()

	e := echo.New()
	api.RegisterRoutes(e, d.app)

	listener, err := net.Listen("tcp", d.cfg.ListenAddr())
	if err != nil {
		d.release(scheduler)
		return fmt.Errorf("api listen: %w", err)
	}

	d.server = &http.Server{
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error().Err(err).Msg("api server error")
		}
	}()

	d.mu.Lock()
	d.addr = listener.Addr().String()
	d.mu.Unlock()
	d.logger.Info().Str("address", listener.Addr().String()).Msg("api server listening")

	if d.cfg.Download.AutoStart {
		if err := d.app.Engine.Start(); err != nil {
			d.logger.Warn().Err(err).Msg("auto-start skipped")
		}
	}

	<-ctx.Done()
	d.logger.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn().Err(err).Msg("api server shutdown")
	}
	d.release(scheduler)

	if err := d.app.Engine.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn().Err(err).Msg("engine shutdown")
	}
	if err := d.app.History.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("history close")
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn().Err(err).Msg("lock release")
	}
	d.logger.Info().Msg("daemon stopped")
	return nil
}

// startScheduler wires the periodic history prune. Pruning is auxiliary:
// scheduler failures are logged, never fatal.
func (d *Daemon) startScheduler() gocron.Scheduler {
	retention := d.cfg.History.RetentionDays
	if retention <= 0 {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		d.logger.Warn().Err(err).Msg("history pruning disabled")
		return nil
	}

	interval := time.Duration(d.cfg.History.PruneHours) * time.Hour
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			cutoff := time.Now().AddDate(0, 0, -retention)
			if _, err := d.app.History.Prune(cutoff); err != nil {
				d.logger.Error().Err(err).Msg("history prune failed")
			}
		}),
		gocron.WithName("history-prune"),
	)
	if err != nil {
		d.logger.Warn().Err(err).Msg("history pruning disabled")
		return nil
	}

	scheduler.Start()
	d.logger.Info().Dur("interval", interval).Int("retention_days", retention).Msg("history pruning scheduled")
	return scheduler
}

func (d *Daemon) release(scheduler gocron.Scheduler) {
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			d.logger.Warn().Err(err).Msg("scheduler shutdown")
		}
	}
}

// recordOutcomes writes every terminal job outcome to the history store.
// It runs as a bus subscriber so the engine stays free of sqlite concerns.
func (d *Daemon) recordOutcomes(ctx context.Context) {
	sub := d.app.Bus.Subscribe()
	defer d.app.Bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.Kind != events.KindJobFinished || ev.Item == nil {
				continue
			}
			entry := history.Entry{
				ItemID:       ev.Item.ID,
				URL:          ev.Item.URL,
				Title:        ev.Item.Title,
				Status:       string(ev.Item.Status),
				OutputFile:   ev.Item.OutputFile,
				ErrorMessage: ev.Item.ErrorMessage,
				Duration:     int64(ev.Item.Duration),
				FinishedAt:   time.Now(),
			}
			if err := d.app.History.Record(entry); err != nil {
				d.logger.Error().Err(err).Str("id", ev.Item.ID).Msg("history record failed")
			}
		}
	}
}
