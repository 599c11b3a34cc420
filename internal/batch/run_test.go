package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framerip/internal/batch"
	"framerip/internal/config"
	"framerip/internal/logging"
	"framerip/internal/resume"
	"framerip/internal/runstore"
)

// testConfig builds a config whose player is a shell script and whose wait
// budgets are short enough for tests.
func testConfig(t *testing.T, playerScript string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SaveFolder = filepath.Join(root, "frames")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Player.Binary = playerScript
	cfg.Capture.PollIntervalMS = 20
	cfg.Capture.StopWaitMS = 300
	cfg.Capture.ProcessWaitTimeout = 2
	cfg.Capture.StartupTimeout = 1
	cfg.Capture.MaxSnapshotWait = 1
	cfg.Tools.FFprobe = "definitely-not-ffprobe"
	cfg.Tools.MetadataTool = "definitely-not-mediainfo"
	return &cfg
}

func writePlayer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write player script: %v", err)
	}
	return path
}

func newContext(t *testing.T, cfg *config.Config) *batch.RunContext {
	t.Helper()
	rc, err := batch.NewRunContext(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new run context: %v", err)
	}
	return rc
}

// framePlayer exits immediately but leaves a detached writer that drops two
// frame files into the save folder while the monitor is polling.
func framePlayer(t *testing.T, saveFolder string) string {
	return writePlayer(t, `
base=$(basename "$1")
base=${base%.*}
(
  sleep 0.2
  echo frame > "`+saveFolder+`/${base}_00001.png"
  echo frame > "`+saveFolder+`/${base}_00002.png"
) >/dev/null 2>&1 &
exit 0
`)
}

func TestRunProcessesVideos(t *testing.T) {
	saveProbe := t.TempDir()
	cfg := testConfig(t, framePlayer(t, saveProbe))
	cfg.Paths.SaveFolder = saveProbe

	history, err := runstore.OpenPath(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	rc := newContext(t, cfg)
	videos := []string{"/videos/a.mp4", "/videos/b.mp4"}
	if err := rc.Run(context.Background(), batch.Options{
		Mode:    batch.ModeSnapshot,
		Videos:  videos,
		History: history,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if rc.Stats.Processed != 2 || rc.Stats.Attempted != 2 {
		t.Fatalf("stats = %+v", rc.Stats)
	}
	if rc.Stats.FramesSaved != 4 {
		t.Fatalf("frames saved = %d, want 4", rc.Stats.FramesSaved)
	}
	if rc.ExitCode != 0 {
		t.Fatalf("exit code = %d", rc.ExitCode)
	}

	set, err := resume.LoadSkipSet(rc.ResumeLogPath)
	if err != nil {
		t.Fatalf("load skip set: %v", err)
	}
	for _, video := range videos {
		if _, ok := set[resume.NormalizePath(video)]; !ok {
			t.Fatalf("outcome not recorded for %s", video)
		}
	}

	records, err := history.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].RunID != rc.RunID || records[0].Processed != 2 {
		t.Fatalf("history record = %+v", records)
	}
}

func TestRunSkipsRecordedVideos(t *testing.T) {
	cfg := testConfig(t, writePlayer(t, "exit 0\n"))
	rc := newContext(t, cfg)

	video := "/videos/seen.mp4"
	if err := resume.Append(logging.NewNop(), rc.ResumeLogPath, resume.StatusProcessed, video, "earlier run"); err != nil {
		t.Fatalf("seed outcome log: %v", err)
	}

	if err := rc.Run(context.Background(), batch.Options{Mode: batch.ModeSnapshot, Videos: []string{video}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rc.Stats.SkippedAlready != 1 {
		t.Fatalf("skippedAlready = %d, want 1", rc.Stats.SkippedAlready)
	}
	if rc.Stats.Attempted != 0 {
		t.Fatalf("skipped video must not be attempted: %+v", rc.Stats)
	}
}

func TestRunContinuesAfterStartupFailure(t *testing.T) {
	cfg := testConfig(t, writePlayer(t, `
case "$1" in
*bad*) echo "cannot open input" >&2; exit 1 ;;
esac
exit 0
`))
	rc := newContext(t, cfg)

	err := rc.Run(context.Background(), batch.Options{
		Mode:   batch.ModeSnapshot,
		Videos: []string{"/videos/bad.mp4", "/videos/good.mp4"},
	})
	if err != nil {
		t.Fatalf("startup failure must not abort the batch: %v", err)
	}
	if rc.Stats.Failures != 1 {
		t.Fatalf("failures = %d, want 1", rc.Stats.Failures)
	}
	if rc.Stats.Processed != 1 {
		t.Fatalf("processed = %d, want 1", rc.Stats.Processed)
	}
	if rc.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", rc.ExitCode)
	}

	data, err := os.ReadFile(rc.ResumeLogPath)
	if err != nil {
		t.Fatalf("read outcome log: %v", err)
	}
	if !strings.Contains(string(data), "Failed") || !strings.Contains(string(data), "cannot open input") {
		t.Fatalf("failure outcome not recorded: %q", data)
	}
}

func TestRunRecordsTimedOutCapture(t *testing.T) {
	cfg := testConfig(t, writePlayer(t, "sleep 30\n"))
	rc := newContext(t, cfg)

	if err := rc.Run(context.Background(), batch.Options{
		Mode:   batch.ModeSnapshot,
		Videos: []string{"/videos/slow.mp4"},
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rc.Stats.TimedOutProcessed != 1 {
		t.Fatalf("timedOutProcessed = %d, want 1: %+v", rc.Stats.TimedOutProcessed, rc.Stats)
	}
	if rc.Stats.Failures != 0 {
		t.Fatalf("a timed-out capture is not a failure: %+v", rc.Stats)
	}

	data, err := os.ReadFile(rc.ResumeLogPath)
	if err != nil {
		t.Fatalf("read outcome log: %v", err)
	}
	if !strings.Contains(string(data), "TimedOutProcessed") {
		t.Fatalf("timed-out outcome not recorded: %q", data)
	}
}

func TestRunRecordsMidBudgetExitAsProcessed(t *testing.T) {
	// Player outlives the startup window but finishes well inside the monitor
	// budget; that is a completed capture, not a timed-out one.
	cfg := testConfig(t, writePlayer(t, "sleep 1.3\nexit 0\n"))
	cfg.Capture.MaxSnapshotWait = 3
	rc := newContext(t, cfg)

	if err := rc.Run(context.Background(), batch.Options{
		Mode:   batch.ModeSnapshot,
		Videos: []string{"/videos/mid.mp4"},
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rc.Stats.Processed != 1 {
		t.Fatalf("processed = %d, want 1: %+v", rc.Stats.Processed, rc.Stats)
	}
	if rc.Stats.TimedOutProcessed != 0 {
		t.Fatalf("mid-budget exit misclassified as timed out: %+v", rc.Stats)
	}
}

func TestRunCropperFailureSetsExitCode(t *testing.T) {
	saveProbe := t.TempDir()
	cfg := testConfig(t, framePlayer(t, saveProbe))
	cfg.Paths.SaveFolder = saveProbe
	cfg.Cropper.Enabled = true
	cfg.Cropper.Script = "/opt/crop.py"
	cfg.Cropper.Interpreter = "definitely-not-python"

	rc := newContext(t, cfg)
	err := rc.Run(context.Background(), batch.Options{
		Mode:   batch.ModeSnapshot,
		Videos: []string{"/videos/a.mp4"},
	})
	if err == nil {
		t.Fatal("expected cropper failure to surface")
	}
	if rc.Stats.Processed != 1 {
		t.Fatalf("capture should finish before the cropper runs: %+v", rc.Stats)
	}
	if rc.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", rc.ExitCode)
	}
}
