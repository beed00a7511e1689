package platform

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FormatDuration renders seconds as H:MM:SS, or MM:SS under an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "00:00:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename strips characters that are invalid in filenames on at
// least one supported platform, trims dots and spaces, and caps the length.
func SanitizeFilename(name string) string {
	s := invalidFilenameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, ". ")
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// IsValidURL accepts http(s) URLs with a host.
func IsValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DefaultDownloadDir is the user's Downloads folder, falling back to the
// working directory when no home is known.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
