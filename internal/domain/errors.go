package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolUnavailable indicates the downloader binary could not be located.
// It blocks admission entirely rather than failing individual jobs.
var ErrToolUnavailable = errors.New("yt-dlp not found")

// ErrCancelled marks a job terminated by user request; it is a terminal
// outcome but not a failure.
var ErrCancelled = errors.New("cancelled")

// ErrNotFound indicates an unknown queue item ID.
var ErrNotFound = errors.New("queue item not found")

// ProcessLaunchError wraps a failure to spawn the external process.
type ProcessLaunchError struct {
	Err error
}

func (e *ProcessLaunchError) Error() string { return e.Err.Error() }

func (e *ProcessLaunchError) Unwrap() error { return e.Err }

// ProcessExitError reports a nonzero downloader exit. Lines holds the error
// lines captured from the output stream, oldest first, at most the last
// three.
type ProcessExitError struct {
	Code  int
	Lines []string
}

func (e *ProcessExitError) Error() string {
	if len(e.Lines) > 0 {
		return strings.Join(e.Lines, "\n")
	}
	return fmt.Sprintf("download failed with exit code %d", e.Code)
}
