// Package desktop captures the primary display at a fixed cadence, as the
// fallback strategy when the player cannot write frames itself (no scene
// filter, DRM-protected output paths, or capture of live playback artifacts).
package desktop

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	"framerip/internal/logging"
	"framerip/internal/services"
)

// Options configures one capture session.
type Options struct {
	Folder   string
	Prefix   string
	Format   string // png (default) or jpg
	FPS      float64
	Duration time.Duration
}

// Result reports what one capture session achieved.
type Result struct {
	FramesSaved int
	AchievedFPS float64
	Elapsed     time.Duration
}

const jpegQuality = 90

// The capture backend is held in vars so tests can exercise the pacing loop
// without a display server.
var (
	numDisplays   = screenshot.NumActiveDisplays
	displayBounds = screenshot.GetDisplayBounds
	captureRect   = screenshot.CaptureRect
)

// Interval converts a target frame rate into the per-frame sleep interval.
// Never below one millisecond.
func Interval(fps float64) time.Duration {
	if fps <= 0 {
		return time.Second
	}
	ms := int(math.Round(1000 / fps))
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// FrameName builds the zero-padded sequential filename for one saved frame.
func FrameName(prefix string, index int, format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext != "jpg" {
		ext = "png"
	}
	return fmt.Sprintf("%s%05d.%s", prefix, index, ext)
}

// Capture grabs the primary display repeatedly until the configured duration
// elapses. One warm-up grab primes the capture pipeline before any frame is
// saved. Pacing is best effort: each iteration sleeps the interval minus its
// own processing cost, so a slow disk lowers the achieved rate rather than
// queueing work.
func Capture(ctx context.Context, logger *slog.Logger, opts Options) (Result, error) {
	log := logging.WithComponent(logger, "desktop")

	if numDisplays() < 1 {
		return Result{}, services.Wrap(services.ErrDependencyMissing, "desktop", "probe displays",
			"no active display available for capture", nil)
	}
	bounds := displayBounds(0)
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Result{}, services.Wrap(services.ErrStartup, "desktop", "probe displays",
			fmt.Sprintf("primary display has non-positive bounds %v", bounds), nil)
	}
	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrIO, "desktop", "create folder", opts.Folder, err)
	}

	interval := Interval(opts.FPS)
	log.Info("starting desktop capture",
		logging.String("folder", opts.Folder),
		logging.Float64("fps", opts.FPS),
		logging.Duration("interval", interval),
		logging.Duration("duration", opts.Duration),
		logging.String("bounds", bounds.String()))

	// Warm-up frame: the first grab on most backends is measurably slower and
	// would skew pacing if it counted.
	if _, err := captureRect(bounds); err != nil {
		return Result{}, services.Wrap(services.ErrDependencyMissing, "desktop", "warm up",
			"display capture unavailable", err)
	}

	start := time.Now()
	deadline := start.Add(opts.Duration)
	saved := 0
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			break
		}
		iterStart := time.Now()

		img, err := captureRect(bounds)
		if err != nil {
			log.Warn("frame grab failed", logging.Error(err))
		} else {
			name := FrameName(opts.Prefix, saved+1, opts.Format)
			if err := writeFrame(filepath.Join(opts.Folder, name), img, opts.Format); err != nil {
				return result(saved, start), err
			}
			saved++
		}

		if sleep := interval - time.Since(iterStart); sleep > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(sleep):
			}
		}
	}

	res := result(saved, start)
	log.Info("desktop capture finished",
		logging.Int("frames_saved", res.FramesSaved),
		logging.Float64("achieved_fps", res.AchievedFPS),
		logging.Duration("elapsed", res.Elapsed))
	return res, ctx.Err()
}

func result(saved int, start time.Time) Result {
	elapsed := time.Since(start)
	achieved := 0.0
	if elapsed > 0 {
		achieved = float64(saved) / elapsed.Seconds()
	}
	return Result{FramesSaved: saved, AchievedFPS: achieved, Elapsed: elapsed}
}

func writeFrame(path string, img image.Image, format string) error {
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return services.Wrap(services.ErrIO, "desktop", "create frame file", path, err)
	}
	defer file.Close()

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpg", "jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		return services.Wrap(services.ErrIO, "desktop", "encode frame", path, err)
	}
	return nil
}
