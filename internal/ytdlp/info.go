package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// VideoFormat is one downloadable format from a video's format list.
type VideoFormat struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution"`
	Filesize   int64   `json:"filesize,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	TBR        float64 `json:"tbr,omitempty"`
}

func (f VideoFormat) IsVideoOnly() bool { return f.ACodec == "none" || f.ACodec == "" }

func (f VideoFormat) IsAudioOnly() bool { return f.VCodec == "none" || f.VCodec == "" }

// DisplayName renders a short label for format pickers.
func (f VideoFormat) DisplayName() string {
	first := f.Resolution
	if first == "" {
		first = f.Ext
	}
	parts := []string{first}
	if f.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%dfps", int(f.FPS)))
	}
	if f.VCodec != "" && f.VCodec != "none" {
		parts = append(parts, f.VCodec)
	}
	if f.Filesize > 0 {
		parts = append(parts, "~"+humanize.IBytes(uint64(f.Filesize)))
	}
	return strings.Join(parts, " | ")
}

// Chapter is a named time range within a video.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// VideoInfo is the metadata yt-dlp reports for a URL.
type VideoInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Duration    int64         `json:"duration"`
	Channel     string        `json:"channel,omitempty"`
	UploadDate  string        `json:"upload_date,omitempty"`
	Description string        `json:"description,omitempty"`
	ViewCount   int64         `json:"view_count"`
	Formats     []VideoFormat `json:"formats,omitempty"`
	Chapters    []Chapter     `json:"chapters,omitempty"`
}

// rawInfo mirrors the yt-dlp JSON shape, including the alternate fields the
// extractor may emit instead of the preferred ones.
type rawInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	WebpageURL  string      `json:"webpage_url"`
	URL         string      `json:"url"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Channel     string      `json:"channel"`
	Uploader    string      `json:"uploader"`
	UploadDate  string      `json:"upload_date"`
	Description string      `json:"description"`
	ViewCount   int64       `json:"view_count"`
	Formats     []rawFormat `json:"formats"`
	Chapters    []Chapter   `json:"chapters"`
}

type rawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	FormatNote     string  `json:"format_note"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	FPS            float64 `json:"fps"`
	TBR            float64 `json:"tbr"`
}

func infoFromRaw(raw rawInfo) VideoInfo {
	info := VideoInfo{
		ID:          raw.ID,
		Title:       raw.Title,
		URL:         raw.WebpageURL,
		Thumbnail:   raw.Thumbnail,
		Duration:    int64(raw.Duration),
		Channel:     raw.Channel,
		UploadDate:  raw.UploadDate,
		Description: raw.Description,
		ViewCount:   raw.ViewCount,
		Chapters:    raw.Chapters,
	}
	if info.Title == "" {
		info.Title = "Unknown"
	}
	if info.URL == "" {
		info.URL = raw.URL
	}
	if info.Channel == "" {
		info.Channel = raw.Uploader
	}
	for _, f := range raw.Formats {
		vf := VideoFormat{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Filesize:   int64(f.Filesize),
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			FPS:        f.FPS,
			TBR:        f.TBR,
		}
		if vf.Resolution == "" {
			vf.Resolution = f.FormatNote
		}
		if vf.Filesize == 0 {
			vf.Filesize = int64(f.FilesizeApprox)
		}
		info.Formats = append(info.Formats, vf)
	}
	return info
}

// ExtractInfo fetches metadata for a URL without downloading anything.
func (c *Client) ExtractInfo(ctx context.Context, url string) (*VideoInfo, error) {
	if !c.Available() {
		return nil, domain.ErrToolUnavailable
	}
	args := append(baseArgs(c.ffmpegDir), "--dump-json", "--no-download", url)

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Info().Str("url", url).Msg("extracting video info")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("extract info: %s", msg)
	}

	var raw rawInfo
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}
	info := infoFromRaw(raw)
	return &info, nil
}
