// Package batch orchestrates a capture run over a list of videos: skip-set
// check, frame-rate detection, player launch, capture, shutdown, and outcome
// recording, with an optional cropping pass at the end.
package batch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"framerip/internal/config"
	"framerip/internal/logging"
	"framerip/internal/pidfile"
	"framerip/internal/services"
)

// SchemaVersion identifies the shape of the run context and its on-disk
// artifacts. Bump when the outcome-log or registry format changes.
const SchemaVersion = 1

// Mode selects the capture strategy for a run.
type Mode string

const (
	// ModeSnapshot has the player write frames itself via its scene filter.
	ModeSnapshot Mode = "snapshot"
	// ModeDesktop plays to screen and grabs the display at a fixed cadence.
	ModeDesktop Mode = "desktop"
)

// Stats holds the mutable per-run counters. All counters only ever increase
// within a run.
type Stats struct {
	TotalFiles        int
	Attempted         int
	Processed         int
	TimedOutProcessed int
	SkippedAlready    int
	Failures          int
	FramesSaved       int
	StartTime         time.Time
}

// RunContext aggregates everything one batch invocation needs. It lives in
// memory only and is discarded at process exit; durable state is the pid
// registry file, the outcome log, and the run-history database.
type RunContext struct {
	SchemaVersion int
	Config        *config.Config
	Logger        *slog.Logger
	RunID         string
	SaveFolder    string
	RequestedFPS  float64
	Registry      *pidfile.Registry
	ResumeLogPath string
	Stats         Stats
	ExitCode      int
}

// NewRunContext prepares the run identity and on-disk scaffolding for a batch.
func NewRunContext(cfg *config.Config, logger *slog.Logger) (*RunContext, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "new run", "configuration is required", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrIO, "batch", "prepare directories", "", err)
	}

	runID := uuid.NewString()
	registry, err := pidfile.New(cfg.Paths.StateDir, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "batch", "init pid registry", "", err)
	}

	return &RunContext{
		SchemaVersion: SchemaVersion,
		Config:        cfg,
		Logger:        logging.WithComponent(logger, "batch"),
		RunID:         runID,
		SaveFolder:    cfg.Paths.SaveFolder,
		RequestedFPS:  cfg.Capture.RequestedFPS,
		Registry:      registry,
		ResumeLogPath: filepath.Join(cfg.Paths.StateDir, "outcomes.log"),
	}, nil
}

// Summary renders the one-line run outcome used by logs and the CLI.
func (rc *RunContext) Summary() string {
	elapsed := time.Duration(0)
	if !rc.Stats.StartTime.IsZero() {
		elapsed = time.Since(rc.Stats.StartTime).Round(time.Second)
	}
	return fmt.Sprintf("%d/%d processed (%d timed out, %d skipped, %d failed), %d frames in %s",
		rc.Stats.Processed+rc.Stats.TimedOutProcessed,
		rc.Stats.TotalFiles,
		rc.Stats.TimedOutProcessed,
		rc.Stats.SkippedAlready,
		rc.Stats.Failures,
		rc.Stats.FramesSaved,
		elapsed)
}
