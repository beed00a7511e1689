package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/client"
	"github.com/Fatihx64/yt-dlp-gui/internal/config"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
)

// commandContext carries the flag values and the lazily loaded config shared
// by all subcommands. Queue commands prefer a running daemon and fall back
// to direct state-dir access when none answers.
type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) serverAddr() string {
	if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
		return strings.TrimSpace(*c.serverFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.ListenAddr()
	}
	return ""
}

func (c *commandContext) serverFlagSet() bool {
	return c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != ""
}

// dialClient probes the daemon address and returns a client when a daemon
// answers, nil when nothing is listening there.
func (c *commandContext) dialClient(ctx context.Context) (*client.Client, error) {
	addr := c.serverAddr()
	if addr == "" {
		return nil, errors.New("no daemon address configured")
	}
	api, err := client.New(addr)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := api.Ping(pingCtx); err != nil {
		if client.IsUnreachable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("probe daemon at %s: %w", addr, err)
	}
	return api, nil
}

// requireClient is for commands that only make sense against a live daemon.
func (c *commandContext) requireClient(ctx context.Context) (*client.Client, error) {
	api, err := c.dialClient(ctx)
	if err != nil {
		return nil, err
	}
	if api == nil {
		return nil, fmt.Errorf("no daemon answering at %s; start one with `yt-dlp-gui serve`", c.serverAddr())
	}
	return api, nil
}

// withQueue runs fn against the daemon when one answers, otherwise against
// the queue file directly. Exactly one of api and store is non-nil. The
// direct path holds the instance lock so a daemon starting mid-command
// cannot interleave writes.
func (c *commandContext) withQueue(ctx context.Context, fn func(api *client.Client, store *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	api, err := c.dialClient(ctx)
	if err != nil {
		return err
	}
	if api != nil {
		return fn(api, nil)
	}
	if c.serverFlagSet() {
		return fmt.Errorf("no daemon answering at %s", c.serverAddr())
	}

	unlock, err := c.lockStateDir(cfg)
	if err != nil {
		return err
	}
	defer unlock()

	store, err := queue.Open(cfg.QueueFile(), events.NewBus(), zerolog.Nop())
	if err != nil {
		return err
	}
	return fn(nil, store)
}

// withHistory is withQueue for the history database.
func (c *commandContext) withHistory(ctx context.Context, fn func(api *client.Client, hist *history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	api, err := c.dialClient(ctx)
	if err != nil {
		return err
	}
	if api != nil {
		return fn(api, nil)
	}
	if c.serverFlagSet() {
		return fmt.Errorf("no daemon answering at %s", c.serverAddr())
	}

	unlock, err := c.lockStateDir(cfg)
	if err != nil {
		return err
	}
	defer unlock()

	hist, err := history.Open(cfg.HistoryDB(), zerolog.Nop())
	if err != nil {
		return err
	}
	defer hist.Close()
	return fn(nil, hist)
}

func (c *commandContext) lockStateDir(cfg *config.Config) (func(), error) {
	if err := os.MkdirAll(cfg.Store.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	lock := flock.New(cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking state dir: %w", err)
	}
	if !locked {
		return nil, errors.New("state dir is locked by another process; try again or use --server")
	}
	return func() { _ = lock.Unlock() }, nil
}
