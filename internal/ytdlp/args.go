package ytdlp

import (
	"path/filepath"
	"strings"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// Job describes a single download invocation.
type Job struct {
	URL        string
	OutputDir  string
	FormatSpec string
	Options    domain.DownloadOptions
}

// baseArgs are the flags shared by every invocation, downloads and
// metadata extraction alike.
func baseArgs(ffmpegDir string) []string {
	args := make([]string, 0, 24)
	if ffmpegDir != "" {
		args = append(args, "--ffmpeg-location", ffmpegDir)
	}
	return append(args, "--no-playlist", "--encoding", "utf-8")
}

// BuildArgs assembles the yt-dlp argument vector for a job. Argument order
// is load-bearing: extra args may override earlier flags, and the URL must
// come last.
func BuildArgs(job Job, ffmpegDir string) []string {
	args := baseArgs(ffmpegDir)

	args = append(args,
		"-f", job.FormatSpec,
		"-o", filepath.Join(job.OutputDir, "%(title)s.%(ext)s"),
		"--newline",
		"--progress",
	)

	o := job.Options
	if o.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if o.EmbedMetadata {
		args = append(args, "--embed-metadata")
	}
	if o.EmbedSubtitles {
		langs := o.SubtitleLangs
		if len(langs) == 0 {
			langs = []string{"en"}
		}
		args = append(args, "--embed-subs", "--sub-langs", strings.Join(langs, ","))
	}

	if o.ClipStart != "" || o.ClipEnd != "" {
		start := o.ClipStart
		if start == "" {
			start = "0:00"
		}
		section := "*" + start + "-" + o.ClipEnd
		args = append(args, "--download-sections", section, "--force-keyframes-at-cuts")
	}

	if o.RateLimit != "" {
		args = append(args, "-r", o.RateLimit)
	}
	if o.Proxy != "" {
		args = append(args, "--proxy", o.Proxy)
	}
	if o.CookiesFile != "" {
		args = append(args, "--cookies", o.CookiesFile)
	}

	args = append(args, o.ExtraArgs...)

	if o.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", o.MergeOutputFormat)
	}

	args = append(args, job.URL)
	return args
}
