// Package snapshot watches a capture folder while the player's scene filter
// writes frame images, reporting how many new frames appeared within a bounded
// wait budget.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"framerip/internal/logging"
	"framerip/internal/services"
)

// Result reports one monitored capture window.
type Result struct {
	FramesDelta int
	Elapsed     time.Duration
}

// Wait records the initial count of prefix-matched files in folder, then polls
// at the given interval until maxWait elapses or ctx is cancelled, tracking the
// highest count observed. Producing zero frames is a valid outcome and never an
// error; the caller decides how to record it.
func Wait(ctx context.Context, logger *slog.Logger, folder, prefix string, maxWait, poll time.Duration) (Result, error) {
	log := logging.WithComponent(logger, "snapshot")
	start := time.Now()

	initial, err := countFrames(folder, prefix)
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, "snapshot", "count frames", folder, err)
	}
	highest := initial
	log.Debug("monitoring capture folder",
		logging.String("folder", folder),
		logging.String("prefix", prefix),
		logging.Int("initial_frames", initial),
		logging.Duration("budget", maxWait))

	deadline := start.Add(maxWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Result{FramesDelta: highest - initial, Elapsed: time.Since(start)}, ctx.Err()
		case <-time.After(poll):
		}
		count, err := countFrames(folder, prefix)
		if err != nil {
			// The folder can transiently disappear or be unreadable while the
			// player holds files open; keep the last good count.
			log.Debug("frame count failed; keeping last count", logging.Error(err))
			continue
		}
		if count > highest {
			highest = count
		}
	}

	result := Result{FramesDelta: highest - initial, Elapsed: time.Since(start)}
	log.Debug("capture window closed",
		logging.Int("frames_delta", result.FramesDelta),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func countFrames(folder, prefix string) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			count++
		}
	}
	return count, nil
}
