package ytdlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// The progress line protocol. Each rule is a pattern plus a transform on
// the running accumulator; rules are evaluated in order and the first match
// wins. The error-marker scan for the capture buffer runs independently of
// these rules (see Runner), so a progress line that also mentions an error
// is still captured.
//
// The patterns mirror yt-dlp's output and must not be reordered:
//
//	[download]  45.5% of ~125.32MiB at 2.35MiB/s ETA 00:25
//	[download] Destination: video.mp4
//	[download] 100% of 125.32MiB in 00:53
//	[Merger] Merging formats into "video.mp4"
//	ERROR: unable to download video data
var (
	progressRe    = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+~?(\S+)\s+at\s+(\S+)\s+ETA\s+(\S+)`)
	destinationRe = regexp.MustCompile(`\[download\]\s+Destination:\s+(.+)`)
	completeRe    = regexp.MustCompile(`\[download\]\s+100%\s+of\s+(\S+)`)
	errorMarkerRe = regexp.MustCompile(`(?i)error:`)
)

type parseRule struct {
	name  string
	apply func(line string, p *domain.DownloadProgress) bool
}

var parseRules = []parseRule{
	{"progress", func(line string, p *domain.DownloadProgress) bool {
		m := progressRe.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		p.Percent, _ = strconv.ParseFloat(m[1], 64)
		p.Total = m[2]
		p.Speed = m[3]
		p.ETA = m[4]
		p.Status = domain.ProgressDownloading
		return true
	}},
	{"destination", func(line string, p *domain.DownloadProgress) bool {
		m := destinationRe.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		p.Filename = m[1]
		return true
	}},
	{"download complete", func(line string, p *domain.DownloadProgress) bool {
		m := completeRe.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		p.Percent = 100
		p.Total = m[1]
		p.Status = domain.ProgressProcessing
		return true
	}},
	{"post-processing", func(line string, p *domain.DownloadProgress) bool {
		if !strings.Contains(line, "[Merger]") && !strings.Contains(line, "[ExtractAudio]") {
			return false
		}
		p.Status = domain.ProgressProcessing
		return true
	}},
	{"error", func(line string, p *domain.DownloadProgress) bool {
		if !HasErrorMarker(line) {
			return false
		}
		p.Status = domain.ProgressError
		p.ErrorMessage = StripErrorMarker(line)
		return true
	}},
}

// ParseLine folds one output line into the accumulator and returns the new
// state. Unmatched lines leave it unchanged.
func ParseLine(line string, acc domain.DownloadProgress) domain.DownloadProgress {
	for _, r := range parseRules {
		if r.apply(line, &acc) {
			return acc
		}
	}
	return acc
}

// HasErrorMarker reports whether the line contains the case-insensitive
// "error:" marker.
func HasErrorMarker(line string) bool {
	return errorMarkerRe.MatchString(line)
}

// StripErrorMarker removes the marker and surrounding whitespace.
func StripErrorMarker(line string) string {
	return strings.TrimSpace(errorMarkerRe.ReplaceAllString(line, ""))
}
