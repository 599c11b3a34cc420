package desktop_test

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"framerip/internal/desktop"
	"framerip/internal/logging"
	"framerip/internal/services"
)

func fakeDisplay(t *testing.T, grabs *atomic.Int64) {
	t.Helper()
	bounds := image.Rect(0, 0, 8, 8)
	restore := desktop.SwapBackendForTest(
		func() int { return 1 },
		func(int) image.Rectangle { return bounds },
		func(rect image.Rectangle) (*image.RGBA, error) {
			if grabs != nil {
				grabs.Add(1)
			}
			return image.NewRGBA(rect), nil
		},
	)
	t.Cleanup(restore)
}

func TestInterval(t *testing.T) {
	cases := []struct {
		fps  float64
		want time.Duration
	}{
		{2, 500 * time.Millisecond},
		{30, 33 * time.Millisecond},
		{1, time.Second},
		{2000, time.Millisecond}, // clamps at 1ms
		{0, time.Second},
		{-5, time.Second},
	}
	for _, tc := range cases {
		if got := desktop.Interval(tc.fps); got != tc.want {
			t.Fatalf("Interval(%v) = %v, want %v", tc.fps, got, tc.want)
		}
	}
}

func TestFrameName(t *testing.T) {
	cases := []struct {
		prefix, format string
		index          int
		want           string
	}{
		{"desk_", "png", 1, "desk_00001.png"},
		{"desk_", "jpg", 42, "desk_00042.jpg"},
		{"desk_", "jpeg", 7, "desk_00007.jpg"},
		{"desk_", "bmp", 3, "desk_00003.png"}, // unknown formats fall back to png
		{"desk_", "", 123456, "desk_123456.png"},
	}
	for _, tc := range cases {
		if got := desktop.FrameName(tc.prefix, tc.index, tc.format); got != tc.want {
			t.Fatalf("FrameName(%q, %d, %q) = %q, want %q", tc.prefix, tc.index, tc.format, got, tc.want)
		}
	}
}

func TestCapturePacingAndAchievedFPS(t *testing.T) {
	var grabs atomic.Int64
	fakeDisplay(t, &grabs)

	dir := t.TempDir()
	result, err := desktop.Capture(context.Background(), logging.NewNop(), desktop.Options{
		Folder:   dir,
		Prefix:   "desk_",
		Format:   "png",
		FPS:      10,
		Duration: time.Second,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	// 1s at 10fps should land near 10 frames; pacing is best effort, not
	// hard real-time.
	if result.FramesSaved < 5 || result.FramesSaved > 13 {
		t.Fatalf("frames saved = %d, expected ~10", result.FramesSaved)
	}
	derived := float64(result.FramesSaved) / result.Elapsed.Seconds()
	if math.Abs(result.AchievedFPS-derived) > 0.01 {
		t.Fatalf("achieved fps = %v, want frames/elapsed = %v", result.AchievedFPS, derived)
	}
	// The warm-up grab primes the backend but saves nothing.
	if got := grabs.Load(); got != int64(result.FramesSaved)+1 {
		t.Fatalf("grabs = %d, want %d saved + 1 warm-up", got, result.FramesSaved)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != result.FramesSaved {
		t.Fatalf("%d files on disk, result says %d", len(entries), result.FramesSaved)
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "desk_") || !strings.HasSuffix(entry.Name(), ".png") {
			t.Fatalf("unexpected frame file %q", entry.Name())
		}
	}
}

func TestCaptureNoDisplay(t *testing.T) {
	restore := desktop.SwapBackendForTest(
		func() int { return 0 },
		func(int) image.Rectangle { return image.Rectangle{} },
		func(rect image.Rectangle) (*image.RGBA, error) { return nil, errors.New("no backend") },
	)
	t.Cleanup(restore)

	_, err := desktop.Capture(context.Background(), logging.NewNop(), desktop.Options{
		Folder:   t.TempDir(),
		Prefix:   "desk_",
		FPS:      2,
		Duration: 100 * time.Millisecond,
	})
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected dependency error without a display, got %v", err)
	}
}

func TestCaptureRejectsEmptyBounds(t *testing.T) {
	restore := desktop.SwapBackendForTest(
		func() int { return 1 },
		func(int) image.Rectangle { return image.Rectangle{} },
		func(rect image.Rectangle) (*image.RGBA, error) { return image.NewRGBA(rect), nil },
	)
	t.Cleanup(restore)

	_, err := desktop.Capture(context.Background(), logging.NewNop(), desktop.Options{
		Folder:   t.TempDir(),
		Prefix:   "desk_",
		FPS:      2,
		Duration: 100 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "non-positive") {
		t.Fatalf("expected bounds error, got %v", err)
	}
}

func TestWriteFrameFormats(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	for _, format := range []string{"png", "jpg"} {
		path := filepath.Join(dir, "frame."+format)
		if err := desktop.WriteFrameForTest(path, img, format); err != nil {
			t.Fatalf("write %s frame: %v", format, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s frame is empty", format)
		}
	}
}
