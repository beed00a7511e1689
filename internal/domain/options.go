package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DownloadOptions enumerates the recognized per-item download parameters.
// Zero values mean "unset"; WithDefaults fills unset fields from configured
// defaults before the job reaches a runner.
type DownloadOptions struct {
	EmbedThumbnail    bool     `json:"embed_thumbnail,omitempty" mapstructure:"embed_thumbnail"`
	EmbedMetadata     bool     `json:"embed_metadata,omitempty" mapstructure:"embed_metadata"`
	EmbedSubtitles    bool     `json:"embed_subtitles,omitempty" mapstructure:"embed_subtitles"`
	SubtitleLangs     []string `json:"subtitle_langs,omitempty" mapstructure:"subtitle_langs"`
	ClipStart         string   `json:"clip_start,omitempty" mapstructure:"clip_start"`
	ClipEnd           string   `json:"clip_end,omitempty" mapstructure:"clip_end"`
	RateLimit         string   `json:"rate_limit,omitempty" mapstructure:"rate_limit"`
	Proxy             string   `json:"proxy,omitempty" mapstructure:"proxy"`
	CookiesFile       string   `json:"cookies_file,omitempty" mapstructure:"cookies_file"`
	ExtraArgs         []string `json:"extra_args,omitempty" mapstructure:"extra_args"`
	MergeOutputFormat string   `json:"merge_output_format,omitempty" mapstructure:"merge_output_format"`
}

// rate limits follow the downloader's -r syntax: a number with an optional
// K/M/G suffix, e.g. "50K" or "4.2M".
var rateLimitRe = regexp.MustCompile(`^\d+(\.\d+)?[KkMmGg]?$`)

// Validate rejects malformed option values before an item is accepted into
// the queue.
func (o DownloadOptions) Validate() error {
	if o.ClipStart != "" {
		if _, err := ParseTimecode(o.ClipStart); err != nil {
			return fmt.Errorf("clip_start: %w", err)
		}
	}
	if o.ClipEnd != "" {
		if _, err := ParseTimecode(o.ClipEnd); err != nil {
			return fmt.Errorf("clip_end: %w", err)
		}
	}
	if o.RateLimit != "" && !rateLimitRe.MatchString(o.RateLimit) {
		return fmt.Errorf("rate_limit %q: want a number with optional K/M/G suffix", o.RateLimit)
	}
	if o.Proxy != "" {
		u, err := url.Parse(o.Proxy)
		if err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy %q: want scheme://host", o.Proxy)
		}
	}
	return nil
}

// WithDefaults returns a copy of o with unset string fields filled from d.
// Boolean flags are left as stored: the producer decides them at add time.
func (o DownloadOptions) WithDefaults(d DownloadOptions) DownloadOptions {
	if len(o.SubtitleLangs) == 0 {
		o.SubtitleLangs = d.SubtitleLangs
	}
	if o.RateLimit == "" {
		o.RateLimit = d.RateLimit
	}
	if o.Proxy == "" {
		o.Proxy = d.Proxy
	}
	if o.CookiesFile == "" {
		o.CookiesFile = d.CookiesFile
	}
	if o.MergeOutputFormat == "" {
		o.MergeOutputFormat = d.MergeOutputFormat
	}
	return o
}

// ParseTimecode converts "HH:MM:SS", "MM:SS" or plain seconds to seconds.
func ParseTimecode(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad timecode %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad timecode %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}
