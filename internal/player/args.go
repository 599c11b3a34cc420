package player

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"framerip/internal/config"
)

// DefaultSceneFormat is the hard-coded image format when neither an explicit
// parameter nor a config override supplies one.
const DefaultSceneFormat = "png"

var validSceneFormats = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// SceneRatio computes the divisor applied to the source frame rate to
// approximate the requested output rate. Always at least 1.
func SceneRatio(sourceFPS, requestedFPS float64) int {
	if sourceFPS <= 0 || requestedFPS <= 0 {
		return 1
	}
	ratio := int(math.Round(sourceFPS / requestedFPS))
	if ratio < 1 {
		return 1
	}
	return ratio
}

// ScenePrefix derives the snapshot filename prefix from the video's base name.
func ScenePrefix(videoPath string) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "frame"
	}
	return base + "_"
}

// ResolveSceneFormat applies the documented precedence for the snapshot image
// format: explicit parameter, then config override, then the default. Values
// outside {png, jpg, jpeg} fall through to the next level.
func ResolveSceneFormat(explicit string, cfg *config.Config) string {
	if format, ok := normalizeSceneFormat(explicit); ok {
		return format
	}
	if cfg != nil {
		if format, ok := normalizeSceneFormat(cfg.Player.SceneFormat); ok {
			return format
		}
	}
	return DefaultSceneFormat
}

func normalizeSceneFormat(format string) (string, bool) {
	format = strings.ToLower(strings.TrimSpace(format))
	if _, ok := validSceneFormats[format]; ok {
		return format, true
	}
	return "", false
}

// BaseArgs builds the common player arguments: no UI chrome, no loop/repeat,
// fixed playback rate, play-and-exit, plus an optional stop time (rounded to
// the nearest whole second) when a per-video duration cap is set.
func BaseArgs(cfg *config.Config, stopTimeSeconds float64) []string {
	args := []string{
		"--intf", "dummy",
		"--no-loop",
		"--no-repeat",
		"--rate=1",
		"--play-and-exit",
	}
	if stopTimeSeconds > 0 {
		args = append(args, fmt.Sprintf("--stop-time=%d", int(math.Round(stopTimeSeconds))))
	}
	if cfg != nil {
		args = append(args, cfg.Player.BaseArgs...)
	}
	return args
}

// SnapshotArgs builds the scene-filter arguments that make the player write
// frame images itself. explicitFormat may be empty; the config override and
// default apply in that order.
func SnapshotArgs(cfg *config.Config, outDir, videoPath string, sourceFPS, requestedFPS float64, explicitFormat string) []string {
	args := []string{
		"--video-filter=scene",
		"--vout=dummy",
		"--scene-path=" + outDir,
		"--scene-prefix=" + ScenePrefix(videoPath),
		"--scene-format=" + ResolveSceneFormat(explicitFormat, cfg),
		fmt.Sprintf("--scene-ratio=%d", SceneRatio(sourceFPS, requestedFPS)),
	}
	if cfg != nil {
		args = append(args, cfg.Player.SceneArgs...)
	}
	return args
}

// DesktopUIArgs builds the player UI flags used alongside desktop capture,
// where the player renders to screen and the engine grabs the display.
func DesktopUIArgs(cfg *config.Config) []string {
	var args []string
	if cfg != nil {
		if cfg.Desktop.Fullscreen {
			args = append(args, "--fullscreen")
		}
		if cfg.Desktop.AlwaysOnTop {
			args = append(args, "--video-on-top")
		}
		if cfg.Desktop.MinimalView {
			args = append(args, "--qt-minimal-view")
		}
		args = append(args, cfg.Player.DesktopArgs...)
	}
	return args
}

// Assemble produces the final argument vector in the fixed order: target
// media path, mode-specific args, common/base args, then caller-supplied
// extras. Blank extras are dropped with a warning, never silently merged.
func Assemble(logger *slog.Logger, mediaPath string, modeArgs, baseArgs, extras []string) []string {
	argv := make([]string, 0, 1+len(modeArgs)+len(baseArgs)+len(extras))
	argv = append(argv, mediaPath)
	argv = append(argv, modeArgs...)
	argv = append(argv, baseArgs...)
	for _, extra := range extras {
		if strings.TrimSpace(extra) == "" {
			if logger != nil {
				logger.Warn("dropping blank extra player argument")
			}
			continue
		}
		argv = append(argv, extra)
	}
	return argv
}
