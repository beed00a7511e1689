package domain

// ProgressStatus classifies what the most recent output line said a job is
// doing. It is distinct from Status: progress states describe the process,
// queue statuses describe the item.
type ProgressStatus string

const (
	ProgressWaiting     ProgressStatus = "waiting"
	ProgressDownloading ProgressStatus = "downloading"
	ProgressProcessing  ProgressStatus = "processing"
	ProgressFinished    ProgressStatus = "finished"
	ProgressError       ProgressStatus = "error"
)

// DownloadProgress is the per-line snapshot emitted while a job runs. It is
// never persisted; consumers copy the fields they need into the queue item.
type DownloadProgress struct {
	Status       ProgressStatus `json:"status"`
	Percent      float64        `json:"percent"`
	Speed        string         `json:"speed,omitempty"`
	ETA          string         `json:"eta,omitempty"`
	Downloaded   string         `json:"downloaded,omitempty"`
	Total        string         `json:"total,omitempty"`
	Filename     string         `json:"filename,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
