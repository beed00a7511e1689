package controllers

import (
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/format"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
)

// AddRequest queues one or more URLs. URL and URLs combine; format_spec,
// when set, overrides the format/quality preset resolution.
type AddRequest struct {
	URL        string                 `json:"url"`
	URLs       []string               `json:"urls"`
	Title      string                 `json:"title"`
	Format     string                 `json:"format"`
	Quality    string                 `json:"quality"`
	FormatSpec string                 `json:"format_spec"`
	OutputPath string                 `json:"output_path"`
	Options    domain.DownloadOptions `json:"options"`
	StartNow   bool                   `json:"start_now"`
}

type AddResponse struct {
	IDs []string `json:"ids"`
}

type MoveRequest struct {
	Delta int `json:"delta"`
}

// EngineStatus reports the scheduler state alongside the queue counters.
type EngineStatus struct {
	Running bool        `json:"running"`
	Active  int         `json:"active"`
	Stats   queue.Stats `json:"stats"`
}

type ToolsResponse struct {
	AppVersion   string                `json:"app_version"`
	YtdlpVersion string                `json:"ytdlp_version,omitempty"`
	Tools        []platform.ToolStatus `json:"tools"`
}

type FormatsResponse struct {
	Qualities []format.Preset `json:"qualities"`
	Formats   []format.Preset `json:"formats"`
}
