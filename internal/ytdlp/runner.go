package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

// errorLineLimit caps how many error-marked output lines are kept for the
// failure message.
const errorLineLimit = 3

// Runner supervises a single yt-dlp process. One runner belongs to exactly
// one job; Run may be called once. Cancel is safe from any goroutine, before
// or during Run.
type Runner struct {
	bin       string
	ffmpegDir string
	logger    zerolog.Logger

	mu        sync.Mutex
	cancelled bool
	stop      context.CancelFunc
}

// Cancel flags the runner as cancelled and kills the process if one is
// running. A blocked output read is unblocked by the kill.
func (r *Runner) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	stop := r.stop
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (r *Runner) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// Run spawns yt-dlp for the job and blocks until it exits. Stdout and
// stderr are merged into one stream; every non-empty line is folded into a
// progress accumulator and reported through onProgress in order. On success
// the returned path is the announced destination file, or the output
// directory when no destination line was seen.
//
// Outcomes: nil error on exit 0, domain.ErrCancelled when Cancel was called
// or the context was cancelled, *domain.ProcessLaunchError when the process
// could not be spawned, *domain.ProcessExitError on a non-zero exit.
func (r *Runner) Run(ctx context.Context, job Job, onProgress func(domain.DownloadProgress)) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return "", domain.ErrCancelled
	}
	r.stop = cancel
	r.mu.Unlock()

	args := BuildArgs(job, r.ffmpegDir)
	cmd := exec.CommandContext(runCtx, r.bin, args...)
	// A killed yt-dlp can leave an ffmpeg child holding the output pipe;
	// WaitDelay bounds how long Wait stalls on it.
	cmd.WaitDelay = 5 * time.Second

	// A single pipe carries both streams so line order is preserved the way
	// yt-dlp emitted it.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Debug().Str("url", job.URL).Strs("args", args).Msg("starting yt-dlp")

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return "", &domain.ProcessLaunchError{Err: err}
	}

	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitCh <- err
	}()

	acc := domain.DownloadProgress{Status: domain.ProgressDownloading}
	var errLines []string

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if r.isCancelled() {
			// Keep draining so the process's output copier is never blocked,
			// but stop parsing and reporting.
			cancel()
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if HasErrorMarker(line) {
			errLines = append(errLines, line)
			if len(errLines) > errorLineLimit {
				errLines = errLines[len(errLines)-errorLineLimit:]
			}
			r.logger.Warn().Str("line", line).Msg("yt-dlp error output")
		}
		acc = ParseLine(line, acc)
		if onProgress != nil {
			onProgress(acc)
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		cancel()
		go io.Copy(io.Discard, pr) //nolint:errcheck
		<-waitCh
		if r.isCancelled() {
			return "", domain.ErrCancelled
		}
		return "", fmt.Errorf("read yt-dlp output: %w", scanErr)
	}

	waitErr := <-waitCh
	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 0 {
		waitErr = nil
	}

	if r.isCancelled() {
		return "", domain.ErrCancelled
	}
	if waitErr == nil {
		acc.Status = domain.ProgressFinished
		acc.Percent = 100
		if onProgress != nil {
			onProgress(acc)
		}
		// The destination file when one was announced, else the directory.
		out := acc.Filename
		if out == "" {
			out = job.OutputDir
		}
		return out, nil
	}
	if runCtx.Err() != nil {
		// Killed by context cancellation rather than by a yt-dlp failure.
		return "", domain.ErrCancelled
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return "", &domain.ProcessExitError{Code: exitErr.ExitCode(), Lines: errLines}
	}
	return "", fmt.Errorf("yt-dlp: %w", waitErr)
}
