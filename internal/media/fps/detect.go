package fps

import (
	"context"
	"log/slog"

	"framerip/internal/logging"
)

// DefaultFPS is the documented substitute callers apply when detection
// returns the sentinel 0.0.
const DefaultFPS = 30.0

// Strategy is one probe in the detection chain. It returns the detected rate
// and whether the probe produced a usable value; a false result hands the
// video to the next strategy.
type Strategy struct {
	Name  string
	Probe func(ctx context.Context, path string) (float64, bool)
}

// Detector resolves a video's native frame rate by trying an ordered list of
// strategies; the first strictly positive result wins.
type Detector struct {
	Logger     *slog.Logger
	Strategies []Strategy
}

// New builds the standard chain: ffprobe, then the OS metadata tool. Either
// binary may be absent; availability is re-checked on every call because the
// result depends on the execution environment, not the detector.
func New(logger *slog.Logger, ffprobeBinary, metadataBinary string) *Detector {
	return &Detector{
		Logger: logging.WithComponent(logger, "fps"),
		Strategies: []Strategy{
			ffprobeStrategy(ffprobeBinary),
			metadataStrategy(metadataBinary),
		},
	}
}

// Detect returns the native frame rate of the video at path, or 0.0 when
// every strategy fails. It never returns a negative value and never errors;
// the full-fallback case emits exactly one warning.
func (d *Detector) Detect(ctx context.Context, path string) float64 {
	for _, strategy := range d.Strategies {
		rate, ok := strategy.Probe(ctx, path)
		if ok && rate > 0 {
			if d.Logger != nil {
				d.Logger.Debug("frame rate detected",
					logging.String("strategy", strategy.Name),
					logging.Float64("fps", rate),
					logging.String("video", path))
			}
			return rate
		}
	}
	if d.Logger != nil {
		d.Logger.Warn("frame rate detection failed; caller falls back to default",
			logging.String("video", path),
			logging.Float64("default_fps", DefaultFPS))
	}
	return 0.0
}
