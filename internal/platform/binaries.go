package platform

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// External binaries the app shells out to. yt-dlp is required; ffmpeg is
// optional but needed for merging separate video/audio streams, embedding
// and clip cuts.
const (
	YtdlpName  = "yt-dlp"
	FFmpegName = "ffmpeg"
)

// ToolStatus describes one external binary lookup.
type ToolStatus struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Available bool   `json:"available"`
	Required  bool   `json:"required"`
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// LocateTool finds an external binary. The override, when non-empty, wins
// unconditionally. Otherwise the search order is: next to our own
// executable, a bin/ subfolder next to it, then the system PATH.
func LocateTool(name, override string) (string, bool) {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override, true
		}
		return "", false
	}

	bin := exeName(name)
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, candidate := range []string{
			filepath.Join(dir, bin),
			filepath.Join(dir, "bin", bin),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}

	if path, err := exec.LookPath(bin); err == nil {
		return path, true
	}
	return "", false
}

// LocateYtdlp resolves the downloader binary.
func LocateYtdlp(override string) (string, bool) {
	return LocateTool(YtdlpName, override)
}

// LocateFFmpeg resolves ffmpeg.
func LocateFFmpeg(override string) (string, bool) {
	return LocateTool(FFmpegName, override)
}

// CheckDependencies reports the lookup status of every external tool.
// Overrides come from configuration and may be empty.
func CheckDependencies(ytdlpOverride, ffmpegOverride string) []ToolStatus {
	statuses := make([]ToolStatus, 0, 2)

	ytdlp, ok := LocateYtdlp(ytdlpOverride)
	statuses = append(statuses, ToolStatus{Name: YtdlpName, Path: ytdlp, Available: ok, Required: true})

	ffmpeg, ok := LocateFFmpeg(ffmpegOverride)
	statuses = append(statuses, ToolStatus{Name: FFmpegName, Path: ffmpeg, Available: ok, Required: false})

	return statuses
}
