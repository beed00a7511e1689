// Package queue owns the ordered download queue: in-memory list, JSON file
// persistence, and change notifications. It serializes access but contains
// no scheduling logic.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
)

// Stats are the queue counters by status bucket. Downloading includes the
// processing phase; waiting items count only toward Total.
type Stats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Downloading int `json:"downloading"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

// Store is the durable queue. Every mutating call rewrites the state file
// (temp file + rename) and publishes a queue_changed event. Persistence
// failures are logged and swallowed: the in-memory list stays authoritative
// until the next successful save.
type Store struct {
	mu         sync.Mutex
	path       string
	items      []*domain.QueueItem
	processing bool

	bus    *events.Bus
	logger zerolog.Logger
}

// Open loads the queue from path, applying the crash-recovery rule: items
// persisted as downloading or processing are reset to pending with zero
// progress, since no run survives a restart. A malformed file is logged and
// replaced by an empty queue.
func Open(path string, bus *events.Bus, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		bus:    bus,
		logger: logger.With().Str("component", "queue").Logger(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading queue file: %w", err)
	}

	var items []*domain.QueueItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("queue file malformed, starting empty")
		return s, nil
	}

	for _, it := range items {
		if it.Status.Active() {
			it.Status = domain.StatusPending
			it.Progress = 0
		}
	}
	s.items = items
	s.logger.Info().Int("items", len(items)).Msg("queue loaded")
	return s, nil
}

// Add appends an item and returns its ID, generating one if absent. The
// store keeps its own copy.
func (s *Store) Add(item *domain.QueueItem) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = ksuid.New().String()
	}
	cp := *item
	s.items = append(s.items, &cp)
	s.persistLocked()

	s.logger.Info().Str("id", cp.ID).Str("title", cp.Title).Msg("added to queue")
	s.notifyLocked(cp.ID, &cp)
	return cp.ID
}

// Get returns a snapshot of the item with the given ID.
func (s *Store) Get(id string) (domain.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it := s.findLocked(id); it != nil {
		return *it, true
	}
	return domain.QueueItem{}, false
}

// Update applies mutate to the item under the store lock, persists, and
// notifies. It reports whether the item existed. All mutation goes through
// here; callers never hold item pointers.
func (s *Store) Update(id string, mutate func(*domain.QueueItem)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findLocked(id)
	if it == nil {
		return false
	}
	mutate(it)
	s.persistLocked()
	s.notifyLocked(it.ID, it)
	return true
}

// Remove deletes the item; unknown IDs are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, it := range s.items {
		if it.ID == id {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	if removed {
		s.persistLocked()
		s.logger.Info().Str("id", id).Msg("removed from queue")
		s.notifyLocked(id, nil)
	}
}

// ClearCompleted drops every completed item.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, it := range s.items {
		if it.Status != domain.StatusCompleted {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.persistLocked()
	s.notifyLocked("", nil)
}

// ClearAll empties the queue.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked()
	s.notifyLocked("", nil)
}

// Move shifts the item by delta positions (negative is toward the front),
// clamping at the ends. Unknown IDs are a no-op. Order is the only
// admission priority, so this is how users reprioritize.
func (s *Store) Move(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, it := range s.items {
		if it.ID != id {
			continue
		}
		j := i + delta
		if j < 0 {
			j = 0
		}
		if j > len(s.items)-1 {
			j = len(s.items) - 1
		}
		if j == i {
			return
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		rest := append([]*domain.QueueItem{it}, s.items[j:]...)
		s.items = append(s.items[:j], rest...)
		s.persistLocked()
		s.notifyLocked(it.ID, it)
		return
	}
}

// List returns an ordered snapshot of the whole queue.
func (s *Store) List() []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.QueueItem, len(s.items))
	for i, it := range s.items {
		out[i] = *it
	}
	return out
}

// ListPending returns the not-yet-started items (pending and waiting).
func (s *Store) ListPending() []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.QueueItem
	for _, it := range s.items {
		if it.Status.Startable() {
			out = append(out, *it)
		}
	}
	return out
}

// NextPending returns the first pending item in list order.
func (s *Store) NextPending() (domain.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.Status == domain.StatusPending {
			return *it, true
		}
	}
	return domain.QueueItem{}, false
}

// Stats counts items per bucket.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.items)}
	for _, it := range s.items {
		switch {
		case it.Status == domain.StatusPending:
			st.Pending++
		case it.Status.Active():
			st.Downloading++
		case it.Status == domain.StatusCompleted:
			st.Completed++
		case it.Status == domain.StatusFailed:
			st.Failed++
		}
	}
	return st
}

// SetProcessing records whether an orchestrator run is in progress.
func (s *Store) SetProcessing(v bool) {
	s.mu.Lock()
	s.processing = v
	s.mu.Unlock()
}

// Processing reports whether an orchestrator run is in progress.
func (s *Store) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// Flush forces a save of the current state. Used at shutdown.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) findLocked(id string) *domain.QueueItem {
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// persistLocked saves and logs failures without propagating them.
func (s *Store) persistLocked() {
	if err := s.saveLocked(); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("queue save failed")
	}
}

// saveLocked writes the full list to a temp file and renames it over the
// state file, so a crash mid-write never corrupts the previous state.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding queue: %w", err)
	}
	if s.items == nil {
		data = []byte("[]")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "queue-*.json")
	if err != nil {
		return fmt.Errorf("creating temp queue file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp queue file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp queue file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing queue file: %w", err)
	}
	return nil
}

// notifyLocked publishes a queue_changed event, with a snapshot when one
// item is involved.
func (s *Store) notifyLocked(id string, it *domain.QueueItem) {
	if s.bus == nil {
		return
	}
	e := events.Event{Kind: events.KindQueueChanged, ItemID: id}
	if it != nil {
		cp := *it
		e.Item = &cp
	}
	s.bus.Publish(e)
}
