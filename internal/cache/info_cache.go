// Package cache provides a file-backed cache for extracted video metadata,
// so repeated lookups of the same URL skip the yt-dlp round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

// InfoCache stores VideoInfo JSON on disk, one file per URL.
type InfoCache struct {
	dir string
	ttl time.Duration
}

// NewInfoCache builds a cache rooted at dir. Entries older than ttl are
// treated as misses; a zero ttl disables expiry.
func NewInfoCache(dir string, ttl time.Duration) *InfoCache {
	return &InfoCache{dir: dir, ttl: ttl}
}

// The URL is hashed into the filename so arbitrary URLs stay filesystem-safe.
func entryName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16]) + ".json"
}

func (c *InfoCache) entryPath(url string) string {
	return filepath.Join(c.dir, entryName(url))
}

// Get returns the cached info for url, or nil on a miss. Expired and
// unreadable entries are removed.
func (c *InfoCache) Get(url string) *ytdlp.VideoInfo {
	path := c.entryPath(url)
	st, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if c.ttl > 0 && time.Since(st.ModTime()) > c.ttl {
		os.Remove(path)
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var info ytdlp.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		os.Remove(path)
		return nil
	}
	return &info
}

// Put stores info for url.
func (c *InfoCache) Put(url string, info *ytdlp.VideoInfo) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(c.entryPath(url), data, 0o644)
}

// Clear removes every cached entry.
func (c *InfoCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
