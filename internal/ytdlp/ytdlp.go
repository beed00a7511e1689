// Package ytdlp wraps the yt-dlp binary: argument construction, process
// supervision, progress-line parsing, and metadata extraction.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// Client wraps a located yt-dlp binary. ffmpegDir is passed to every
// invocation via --ffmpeg-location so post-processing works on systems
// where ffmpeg is not on PATH.
type Client struct {
	bin       string
	ffmpegDir string
	logger    zerolog.Logger
}

// New builds a client around the yt-dlp binary at bin. ffmpegPath may be
// empty when ffmpeg was not found; downloads still work, merging does not.
func New(bin, ffmpegPath string, logger zerolog.Logger) (*Client, error) {
	if bin == "" {
		return nil, domain.ErrToolUnavailable
	}
	c := &Client{bin: bin, logger: logger}
	if ffmpegPath != "" {
		c.ffmpegDir = filepath.Dir(ffmpegPath)
	}
	return c, nil
}

// Path returns the wrapped binary path.
func (c *Client) Path() string { return c.bin }

// Available reports whether the wrapped binary still exists on disk.
func (c *Client) Available() bool {
	if c.bin == "" {
		return false
	}
	_, err := os.Stat(c.bin)
	return err == nil
}

// Version reports the yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	if !c.Available() {
		return "", domain.ErrToolUnavailable
	}
	out, err := exec.CommandContext(ctx, c.bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp --version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Runner returns a single-use runner bound to this client's binary.
func (c *Client) Runner() *Runner {
	return &Runner{bin: c.bin, ffmpegDir: c.ffmpegDir, logger: c.logger}
}
