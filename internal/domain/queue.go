package domain

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Status is the lifecycle state of a queue item. The string values are the
// tags persisted in the queue file.
type Status string

const (
	StatusPending     Status = "pending"
	StatusWaiting     Status = "waiting"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing" // post-download phase (merge/extract)
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Active reports whether the item currently owns a running process.
func (s Status) Active() bool {
	return s == StatusDownloading || s == StatusProcessing
}

// Terminal reports whether the item reached an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Startable reports whether the item is eligible for admission.
func (s Status) Startable() bool {
	return s == StatusPending || s == StatusWaiting
}

// ParseStatus maps a persisted tag back to a Status.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusWaiting, StatusDownloading, StatusProcessing,
		StatusCompleted, StatusFailed, StatusCancelled:
		return s, true
	}
	return "", false
}

// QueueItem represents one download job and its mutable execution state.
// Items are created pending and mutated only through the queue store.
type QueueItem struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  int     `json:"duration"` // seconds
	Status    Status  `json:"status"`
	Progress  float64 `json:"progress"`
	Speed     string  `json:"speed,omitempty"`
	ETA       string  `json:"eta,omitempty"`

	FormatSpec string `json:"format_spec"`
	Quality    string `json:"quality"`
	OutputPath string `json:"output_path"`

	// OutputFile is set only on success, ErrorMessage only on failure.
	// A failed item keeps its message until the next terminal outcome.
	OutputFile   string `json:"output_file,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	AddedTime time.Time       `json:"added_time"`
	Options   DownloadOptions `json:"options"`
}

// NewItem creates a pending queue item for url with generated identity.
func NewItem(url string) *QueueItem {
	return &QueueItem{
		ID:         ksuid.New().String(),
		URL:        url,
		Title:      "Unknown",
		Status:     StatusPending,
		FormatSpec: "best",
		Quality:    "best",
		AddedTime:  time.Now(),
	}
}

// DisplayTitle returns the title, falling back to the URL for items whose
// metadata was never resolved.
func (q *QueueItem) DisplayTitle() string {
	if q.Title != "" && q.Title != "Unknown" {
		return q.Title
	}
	return q.URL
}
