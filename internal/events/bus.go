// Package events carries queue and job notifications from the engine and
// store to observers (websocket hub, CLI) without any GUI event loop.
package events

import (
	"sync"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// Kind names the notification types exposed to observers.
type Kind string

const (
	KindJobAdmitted     Kind = "job_admitted"
	KindProgressUpdated Kind = "progress_updated"
	KindJobFinished     Kind = "job_finished"
	KindQueueChanged    Kind = "queue_changed"
	KindAllFinished     Kind = "all_finished"
)

// Event is one notification. Only the fields relevant to its Kind are set:
// Progress for progress updates, Success/Message for finished jobs, Item as
// a snapshot wherever one identifiable item is involved.
type Event struct {
	Kind     Kind                     `json:"kind"`
	ItemID   string                   `json:"item_id,omitempty"`
	Item     *domain.QueueItem        `json:"item,omitempty"`
	Progress *domain.DownloadProgress `json:"progress,omitempty"`
	Success  bool                     `json:"success,omitempty"`
	Message  string                   `json:"message,omitempty"`
}

// Subscription is one observer's ordered event feed. Delivery is
// at-least-once and in publish order; a subscriber that stops draining only
// grows its own backlog, it never stalls publishers.
type Subscription struct {
	mu      sync.Mutex
	backlog []Event
	wake    chan struct{}
	out     chan Event
	done    chan struct{}
}

// Events returns the receive side of the feed. The channel is closed after
// Unsubscribe.
func (s *Subscription) Events() <-chan Event { return s.out }

func (s *Subscription) push(e Event) {
	s.mu.Lock()
	s.backlog = append(s.backlog, e)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		if len(s.backlog) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				close(s.out)
				return
			}
		}
		e := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()

		select {
		case s.out <- e:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// Bus fans events out to any number of subscriptions.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new feed starting at the next published event.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		wake: make(chan struct{}, 1),
		out:  make(chan Event, 16),
		done: make(chan struct{}),
	}
	go s.pump()

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe detaches s and closes its channel. Undelivered backlog is
// dropped. Safe to call more than once.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.done)
	}
	b.mu.Unlock()
}

// Publish delivers e to every current subscription. Never blocks on slow
// subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	for s := range b.subs {
		s.push(e)
	}
	b.mu.RUnlock()
}
