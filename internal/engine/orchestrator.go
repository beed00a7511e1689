// Package engine schedules queued downloads onto a bounded set of yt-dlp
// processes.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/config"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

// Runner supervises one download process. *ytdlp.Runner implements it;
// tests substitute stubs through the factory.
type Runner interface {
	Run(ctx context.Context, job ytdlp.Job, onProgress func(domain.DownloadProgress)) (string, error)
	Cancel()
}

// RunnerFactory builds one Runner per admitted job.
type RunnerFactory func() Runner

type handle struct {
	runner Runner
	done   chan struct{}
}

// Orchestrator admits pending queue items up to the configured concurrency
// limit and applies each job's progress and outcome back to the store.
type Orchestrator struct {
	cfg       *config.Config
	store     *queue.Store
	bus       *events.Bus
	factory   RunnerFactory
	available func() bool
	logger    zerolog.Logger

	mu       sync.Mutex
	running  bool
	draining bool
	active   map[string]*handle
	wg       sync.WaitGroup
}

// New builds an orchestrator. factory creates the per-job runner and
// available reports whether the download tool can be spawned; the daemon
// passes both from the yt-dlp client.
func New(cfg *config.Config, store *queue.Store, bus *events.Bus, factory RunnerFactory, available func() bool, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		bus:       bus,
		factory:   factory,
		available: available,
		logger:    logger.With().Str("component", "engine").Logger(),
		active:    make(map[string]*handle),
	}
}

// Start begins queue processing. It is idempotent while running and fails
// when the download tool is missing.
func (o *Orchestrator) Start() error {
	if !o.available() {
		return domain.ErrToolUnavailable
	}

	o.mu.Lock()
	if o.running || o.draining {
		o.mu.Unlock()
		return nil
	}
	o.running = true

	o.store.SetProcessing(true)
	o.logger.Info().Msg("starting queue processing")
	o.admitLocked()
	o.mu.Unlock()
	return nil
}

// Stop halts admission. Active downloads keep running.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.store.SetProcessing(false)
	o.logger.Info().Msg("stopped queue processing")
}

// PauseAll halts admission and cancels every active download.
func (o *Orchestrator) PauseAll() {
	o.mu.Lock()
	o.running = false
	handles := make([]*handle, 0, len(o.active))
	for _, h := range o.active {
		handles = append(handles, h)
	}
	o.mu.Unlock()

	o.store.SetProcessing(false)
	for _, h := range handles {
		h.runner.Cancel()
	}
	o.logger.Info().Int("cancelled", len(handles)).Msg("paused all downloads")
}

// Running reports whether the queue is being processed.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// ActiveCount reports how many downloads are in flight.
func (o *Orchestrator) ActiveCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active)
}

// DownloadSingle starts one item immediately, bypassing both the
// concurrency limit and the running state. Starting an already active item
// is a no-op.
func (o *Orchestrator) DownloadSingle(id string) error {
	if !o.available() {
		return domain.ErrToolUnavailable
	}
	item, ok := o.store.Get(id)
	if !ok {
		return domain.ErrNotFound
	}

	o.mu.Lock()
	o.startLocked(item)
	o.mu.Unlock()
	return nil
}

// Cancel kills an active download; its status becomes cancelled, not
// failed. Inactive items are left alone.
func (o *Orchestrator) Cancel(id string) bool {
	o.mu.Lock()
	h, ok := o.active[id]
	o.mu.Unlock()
	if !ok {
		return false
	}

	o.store.Update(id, func(it *domain.QueueItem) {
		it.Status = domain.StatusCancelled
	})
	h.runner.Cancel()
	o.logger.Info().Str("id", id).Msg("cancelling download")
	return true
}

// Retry re-queues a failed item. The stored error message stays readable
// until the next terminal outcome.
func (o *Orchestrator) Retry(id string) bool {
	item, ok := o.store.Get(id)
	if !ok || item.Status != domain.StatusFailed {
		return false
	}

	o.store.Update(id, func(it *domain.QueueItem) {
		it.Status = domain.StatusPending
		it.Progress = 0
	})

	o.mu.Lock()
	if o.running {
		o.admitLocked()
	}
	o.mu.Unlock()
	return true
}

// Shutdown halts admission and kills active processes without writing
// terminal statuses, so the next load resets them to pending. It returns
// once every worker goroutine exits or ctx expires, then flushes the store.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.running = false
	o.draining = true
	handles := make([]*handle, 0, len(o.active))
	for _, h := range o.active {
		handles = append(handles, h)
	}
	o.mu.Unlock()

	for _, h := range handles {
		h.runner.Cancel()
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		o.logger.Warn().Msg("shutdown timed out waiting for workers")
		return ctx.Err()
	}
	return o.store.Flush()
}

// admitLocked fills free slots from the front of the queue. Callers hold
// o.mu; completion goroutines re-enter through finish.
func (o *Orchestrator) admitLocked() {
	if !o.running || o.draining {
		return
	}

	limit := o.cfg.Download.ConcurrentDownloads
	for len(o.active) < limit {
		item, ok := o.store.NextPending()
		if !ok {
			break
		}
		o.startLocked(item)
	}

	if len(o.active) == 0 && len(o.store.ListPending()) == 0 {
		o.running = false
		o.store.SetProcessing(false)
		o.bus.Publish(events.Event{Kind: events.KindAllFinished})
		o.logger.Info().Msg("all downloads completed")
	}
}

func (o *Orchestrator) startLocked(item domain.QueueItem) {
	if o.draining {
		return
	}
	if _, ok := o.active[item.ID]; ok {
		return
	}

	o.store.Update(item.ID, func(it *domain.QueueItem) {
		it.Status = domain.StatusDownloading
		it.Speed = ""
		it.ETA = ""
	})

	outputDir := item.OutputPath
	if outputDir == "" {
		outputDir = o.cfg.Download.OutputPath
	}
	job := ytdlp.Job{
		URL:        item.URL,
		OutputDir:  outputDir,
		FormatSpec: item.FormatSpec,
		Options:    item.Options.WithDefaults(o.cfg.DefaultOptions()),
	}

	h := &handle{runner: o.factory(), done: make(chan struct{})}
	o.active[item.ID] = h
	o.wg.Add(1)

	o.logger.Info().Str("id", item.ID).Str("title", item.DisplayTitle()).Msg("starting download")
	if snap, ok := o.store.Get(item.ID); ok {
		o.bus.Publish(events.Event{Kind: events.KindJobAdmitted, ItemID: item.ID, Item: &snap})
	}

	go o.runJob(item.ID, h, job)
}

func (o *Orchestrator) runJob(id string, h *handle, job ytdlp.Job) {
	defer o.wg.Done()
	defer close(h.done)

	out, err := h.runner.Run(context.Background(), job, func(p domain.DownloadProgress) {
		o.applyProgress(id, p)
	})
	o.finish(id, out, err)
}

// applyProgress maps a runner event onto the stored item and republishes it.
func (o *Orchestrator) applyProgress(id string, p domain.DownloadProgress) {
	status := domain.StatusDownloading
	if p.Status == domain.ProgressProcessing {
		status = domain.StatusProcessing
	}

	o.store.Update(id, func(it *domain.QueueItem) {
		it.Status = status
		it.Progress = p.Percent
		it.Speed = p.Speed
		it.ETA = p.ETA
		if p.Filename != "" && it.OutputFile == "" {
			it.OutputFile = p.Filename
		}
	})

	prog := p
	o.bus.Publish(events.Event{Kind: events.KindProgressUpdated, ItemID: id, Progress: &prog})
}

// finish applies a terminal outcome and admits the next pending item.
func (o *Orchestrator) finish(id, out string, err error) {
	o.mu.Lock()
	delete(o.active, id)
	draining := o.draining
	o.mu.Unlock()

	if draining {
		// In-flight statuses are left as-is; the load-time recovery rule
		// turns them back into pending.
		return
	}

	switch {
	case err == nil:
		o.store.Update(id, func(it *domain.QueueItem) {
			it.Status = domain.StatusCompleted
			it.Progress = 100
			it.OutputFile = out
			it.Speed = ""
			it.ETA = ""
			it.ErrorMessage = ""
		})
		o.logger.Info().Str("id", id).Str("output", out).Msg("download completed")
		o.publishFinished(id, true, out)

	case errors.Is(err, domain.ErrCancelled):
		o.store.Update(id, func(it *domain.QueueItem) {
			it.Status = domain.StatusCancelled
			it.Speed = ""
			it.ETA = ""
		})
		o.logger.Info().Str("id", id).Msg("download cancelled")
		o.publishFinished(id, false, "cancelled")

	default:
		msg := err.Error()
		o.store.Update(id, func(it *domain.QueueItem) {
			it.Status = domain.StatusFailed
			it.ErrorMessage = msg
			it.Speed = ""
			it.ETA = ""
		})
		o.logger.Error().Str("id", id).Str("error", msg).Msg("download failed")
		o.publishFinished(id, false, msg)
	}

	o.mu.Lock()
	o.admitLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) publishFinished(id string, success bool, message string) {
	ev := events.Event{Kind: events.KindJobFinished, ItemID: id, Success: success, Message: message}
	if snap, ok := o.store.Get(id); ok {
		ev.Item = &snap
	}
	o.bus.Publish(ev)
}
