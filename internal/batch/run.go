package batch

import (
	"context"
	"fmt"
	"time"

	"framerip/internal/cropper"
	"framerip/internal/desktop"
	"framerip/internal/logging"
	"framerip/internal/media/fps"
	"framerip/internal/player"
	"framerip/internal/resume"
	"framerip/internal/runstore"
	"framerip/internal/services"
	"framerip/internal/snapshot"
)

// Options selects what one batch run captures and how.
type Options struct {
	Mode            Mode
	Videos          []string
	SceneFormat     string // explicit override; wins over config
	ExtraPlayerArgs []string
	History         *runstore.Store // optional run-history sink
}

// Run processes every video sequentially. Per-video failures are recorded in
// the outcome log and the batch continues; configuration, dependency, and
// audit-trail failures abort immediately. The returned error is the aborting
// failure, or the cropper failure when the capture loop itself completed.
func (rc *RunContext) Run(ctx context.Context, opts Options) error {
	log := rc.Logger
	rc.Stats.StartTime = time.Now()
	rc.Stats.TotalFiles = len(opts.Videos)

	skipSet, err := resume.LoadSkipSet(rc.ResumeLogPath)
	if err != nil {
		return err
	}
	log.Info("batch starting",
		logging.String("run_id", rc.RunID),
		logging.String("mode", string(opts.Mode)),
		logging.Int("videos", len(opts.Videos)),
		logging.Int("skip_set", len(skipSet)))

	detector := fps.New(log, rc.Config.Tools.FFprobe, rc.Config.Tools.MetadataTool)
	timings := player.TimingsFromConfig(rc.Config)

	var abortErr error
	for _, video := range opts.Videos {
		if err := ctx.Err(); err != nil {
			abortErr = err
			break
		}
		normalized := resume.NormalizePath(video)
		if _, seen := skipSet[normalized]; seen {
			rc.Stats.SkippedAlready++
			log.Info("skipping video with recorded outcome", logging.String("video", video))
			if err := resume.Append(log, rc.ResumeLogPath, resume.StatusSkipped, video, "outcome already recorded"); err != nil {
				return err
			}
			continue
		}

		rc.Stats.Attempted++
		status, reason, frames, videoErr := rc.processOne(ctx, opts, detector, timings, video)
		rc.Stats.FramesSaved += frames
		switch status {
		case resume.StatusProcessed:
			rc.Stats.Processed++
		case resume.StatusTimedOutProcessed:
			rc.Stats.TimedOutProcessed++
		case resume.StatusFailed:
			rc.Stats.Failures++
		}
		if err := resume.Append(log, rc.ResumeLogPath, status, video, reason); err != nil {
			return err
		}
		skipSet[normalized] = struct{}{}

		if videoErr != nil {
			log.Error("video failed", logging.String("video", video), logging.Error(videoErr))
			if services.Fatal(videoErr) {
				abortErr = videoErr
				break
			}
			continue
		}
		log.Info("video done",
			logging.String("video", video),
			logging.String("status", string(status)),
			logging.Int("frames", frames))
	}

	if rc.Stats.Failures > 0 || abortErr != nil {
		rc.ExitCode = 1
	}

	var cropErr error
	if abortErr == nil && rc.Config.Cropper.Enabled {
		cropErr = rc.runCropper(ctx)
	}

	rc.persistHistory(ctx, opts)
	log.Info("batch finished", logging.String("summary", rc.Summary()))

	if abortErr != nil {
		return abortErr
	}
	return cropErr
}

// processOne captures a single video and reports the outcome to record. The
// returned error is nil for any outcome that counts as processed.
func (rc *RunContext) processOne(ctx context.Context, opts Options, detector *fps.Detector, timings player.Timings, video string) (resume.Status, string, int, error) {
	cfg := rc.Config
	log := rc.Logger

	sourceFPS := detector.Detect(ctx, video)
	if sourceFPS == 0 {
		sourceFPS = fps.DefaultFPS
	}

	var modeArgs []string
	if opts.Mode == ModeDesktop {
		modeArgs = player.DesktopUIArgs(cfg)
	} else {
		modeArgs = player.SnapshotArgs(cfg, rc.SaveFolder, video, sourceFPS, rc.RequestedFPS, opts.SceneFormat)
	}
	baseArgs := player.BaseArgs(cfg, float64(cfg.Capture.VideoDuration))
	argv := player.Assemble(log, video, modeArgs, baseArgs, opts.ExtraPlayerArgs)

	handle, err := player.Launch(ctx, log, timings, rc.Registry, cfg.Player.Binary, argv)
	if err != nil {
		return resume.StatusFailed, err.Error(), 0, err
	}

	var frames int
	var captureErr error
	if opts.Mode == ModeDesktop {
		result, err := desktop.Capture(ctx, log, desktop.Options{
			Folder:   rc.SaveFolder,
			Prefix:   player.ScenePrefix(video),
			Format:   player.ResolveSceneFormat(opts.SceneFormat, cfg),
			FPS:      cfg.Desktop.FPS,
			Duration: time.Duration(cfg.Desktop.Duration) * time.Second,
		})
		frames = result.FramesSaved
		captureErr = err
	} else {
		result, err := snapshot.Wait(ctx, log, rc.SaveFolder, player.ScenePrefix(video),
			time.Duration(cfg.Capture.MaxSnapshotWait)*time.Second, timings.PollInterval)
		frames = result.FramesDelta
		captureErr = err
	}

	// Desktop capture always stops the player itself after the configured
	// duration; only the snapshot path can run out its wait budget.
	timedOut := opts.Mode != ModeDesktop && !handle.Exited()
	if stopErr := player.Stop(log, timings, handle); stopErr != nil {
		log.Warn("player stop incomplete", logging.String("video", video), logging.Error(stopErr))
	}
	if captureErr != nil {
		return resume.StatusFailed, captureErr.Error(), frames, captureErr
	}

	if timedOut {
		return resume.StatusTimedOutProcessed,
			fmt.Sprintf("capture budget exhausted with %d frames", frames), frames, nil
	}
	return resume.StatusProcessed, fmt.Sprintf("%d frames", frames), frames, nil
}

func (rc *RunContext) runCropper(ctx context.Context) error {
	cfg := rc.Config
	result, err := cropper.Run(ctx, rc.Logger, cropper.Options{
		Script:      cfg.Cropper.Script,
		Interpreter: cfg.Cropper.Interpreter,
		InputFolder: rc.SaveFolder,
		AutoInstall: cfg.Cropper.AutoInstall,
	})
	if err != nil {
		rc.ExitCode = 1
		rc.Logger.Error("cropper failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Error(err))
		return err
	}
	return nil
}

func (rc *RunContext) persistHistory(ctx context.Context, opts Options) {
	if opts.History == nil {
		return
	}
	rec := runstore.Record{
		RunID:          rc.RunID,
		Mode:           string(opts.Mode),
		SaveFolder:     rc.SaveFolder,
		StartedAt:      rc.Stats.StartTime,
		FinishedAt:     time.Now(),
		TotalFiles:     rc.Stats.TotalFiles,
		Attempted:      rc.Stats.Attempted,
		Processed:      rc.Stats.Processed,
		TimedOut:       rc.Stats.TimedOutProcessed,
		SkippedAlready: rc.Stats.SkippedAlready,
		Failures:       rc.Stats.Failures,
		FramesSaved:    rc.Stats.FramesSaved,
	}
	if err := opts.History.Save(ctx, rec); err != nil {
		rc.Logger.Warn("failed to persist run history", logging.Error(err))
	}
}
