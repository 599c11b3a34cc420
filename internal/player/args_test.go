package player_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"framerip/internal/config"
	"framerip/internal/logging"
	"framerip/internal/player"
)

func TestSceneRatio(t *testing.T) {
	cases := []struct {
		source, requested float64
		want              int
	}{
		{29.97, 10, 3},
		{30, 1, 30},
		{25, 25, 1},
		{24, 60, 1}, // upsampling clamps to 1
		{23.976, 2, 12},
		{0, 10, 1},
		{30, 0, 1},
	}
	for _, tc := range cases {
		if got := player.SceneRatio(tc.source, tc.requested); got != tc.want {
			t.Fatalf("SceneRatio(%v, %v) = %d, want %d", tc.source, tc.requested, got, tc.want)
		}
	}
}

func TestSceneRatioNeverBelowOne(t *testing.T) {
	for _, source := range []float64{0.1, 1, 23.976, 29.97, 60, 240} {
		for _, requested := range []float64{0.5, 1, 10, 30, 120} {
			if got := player.SceneRatio(source, requested); got < 1 {
				t.Fatalf("SceneRatio(%v, %v) = %d, below 1", source, requested, got)
			}
		}
	}
}

func TestResolveSceneFormatPrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.Player.SceneFormat = "jpg"

	// Explicit parameter beats config override.
	if got := player.ResolveSceneFormat("jpeg", &cfg); got != "jpeg" {
		t.Fatalf("explicit format lost: %q", got)
	}
	// Config override beats default.
	if got := player.ResolveSceneFormat("", &cfg); got != "jpg" {
		t.Fatalf("config override lost: %q", got)
	}
	// Default applies when nothing else is usable.
	cfg.Player.SceneFormat = ""
	if got := player.ResolveSceneFormat("", &cfg); got != "png" {
		t.Fatalf("expected png default, got %q", got)
	}
	// Invalid explicit value falls through to the config override.
	cfg.Player.SceneFormat = "jpg"
	if got := player.ResolveSceneFormat("bmp", &cfg); got != "jpg" {
		t.Fatalf("invalid explicit should fall through, got %q", got)
	}
	// Invalid everywhere lands on the default.
	if got := player.ResolveSceneFormat("bmp", nil); got != "png" {
		t.Fatalf("expected png default, got %q", got)
	}
}

func TestBaseArgs(t *testing.T) {
	cfg := config.Default()
	args := player.BaseArgs(&cfg, 0)
	joined := strings.Join(args, " ")
	for _, want := range []string{"--intf dummy", "--no-loop", "--no-repeat", "--rate=1", "--play-and-exit"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("base args missing %q: %v", want, args)
		}
	}
	if strings.Contains(joined, "--stop-time") {
		t.Fatalf("stop-time should be absent without a duration cap: %v", args)
	}

	args = player.BaseArgs(&cfg, 89.6)
	if !contains(args, "--stop-time=90") {
		t.Fatalf("expected stop time rounded to nearest second: %v", args)
	}

	cfg.Player.BaseArgs = []string{"--no-osd"}
	args = player.BaseArgs(&cfg, 0)
	if !contains(args, "--no-osd") {
		t.Fatalf("config base args not appended: %v", args)
	}
}

func TestSnapshotArgs(t *testing.T) {
	cfg := config.Default()
	args := player.SnapshotArgs(&cfg, "/tmp/out", "/videos/clip.mp4", 29.97, 10, "")
	want := []string{
		"--video-filter=scene",
		"--vout=dummy",
		"--scene-path=/tmp/out",
		"--scene-prefix=clip_",
		"--scene-format=png",
		"--scene-ratio=3",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("SnapshotArgs = %v, want %v", args, want)
	}

	cfg.Player.SceneArgs = []string{"--scene-replace"}
	args = player.SnapshotArgs(&cfg, "/tmp/out", "/videos/clip.mp4", 29.97, 10, "jpg")
	if !contains(args, "--scene-format=jpg") {
		t.Fatalf("explicit format not applied: %v", args)
	}
	if !contains(args, "--scene-replace") {
		t.Fatalf("config scene args not appended: %v", args)
	}
}

func TestDesktopUIArgs(t *testing.T) {
	cfg := config.Default()
	if args := player.DesktopUIArgs(&cfg); len(args) != 0 {
		t.Fatalf("expected no flags by default, got %v", args)
	}
	cfg.Desktop.Fullscreen = true
	cfg.Desktop.AlwaysOnTop = true
	cfg.Desktop.MinimalView = true
	cfg.Player.DesktopArgs = []string{"--no-video-deco"}
	args := player.DesktopUIArgs(&cfg)
	want := []string{"--fullscreen", "--video-on-top", "--qt-minimal-view", "--no-video-deco"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("DesktopUIArgs = %v, want %v", args, want)
	}
}

func TestAssembleOrderAndBlankExtras(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	argv := player.Assemble(logger, "/videos/a.mp4",
		[]string{"--video-filter=scene"},
		[]string{"--play-and-exit"},
		[]string{"--extra", "", "  ", "--more"})

	want := []string{"/videos/a.mp4", "--video-filter=scene", "--play-and-exit", "--extra", "--more"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("Assemble = %v, want %v", argv, want)
	}
	if warnings := strings.Count(buf.String(), "WARN"); warnings != 2 {
		t.Fatalf("expected one warning per blank extra, got %d: %q", warnings, buf.String())
	}
}

func TestScenePrefix(t *testing.T) {
	cases := map[string]string{
		"/videos/clip.mp4":   "clip_",
		"movie.mkv":          "movie_",
		"/videos/no-ext":     "no-ext_",
		"":                   "frame_",
	}
	for path, want := range cases {
		if got := player.ScenePrefix(path); got != want {
			t.Fatalf("ScenePrefix(%q) = %q, want %q", path, got, want)
		}
	}
}

func contains(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}
