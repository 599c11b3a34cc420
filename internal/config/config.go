package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SaveFolder string `toml:"save_folder"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Player contains the media-player binary and argument override groups.
// The override groups extend (never replace) the built-in argument sets; an
// explicit function parameter still wins over any value set here.
type Player struct {
	Binary      string   `toml:"binary"`
	BaseArgs    []string `toml:"base_args"`
	SceneFormat string   `toml:"scene_format"`
	SceneArgs   []string `toml:"scene_args"`
	DesktopArgs []string `toml:"desktop_args"`
}

// Capture contains timing and cadence settings for a batch run.
type Capture struct {
	PollIntervalMS     int     `toml:"poll_interval_ms"`
	StopWaitMS         int     `toml:"stop_wait_ms"`
	ProcessWaitTimeout int     `toml:"process_wait_timeout"`
	StartupTimeout     int     `toml:"startup_timeout"`
	MaxSnapshotWait    int     `toml:"max_snapshot_wait"`
	RequestedFPS       float64 `toml:"requested_fps"`
	VideoDuration      int     `toml:"video_duration"`
}

// Desktop contains the direct display-capture fallback settings.
type Desktop struct {
	Fullscreen  bool    `toml:"fullscreen"`
	AlwaysOnTop bool    `toml:"always_on_top"`
	MinimalView bool    `toml:"minimal_view"`
	FPS         float64 `toml:"fps"`
	Duration    int     `toml:"duration"`
}

// Tools names the external probing binaries.
type Tools struct {
	FFprobe      string `toml:"ffprobe"`
	MetadataTool string `toml:"metadata_tool"`
}

// Cropper contains the optional post-capture cropping step.
type Cropper struct {
	Enabled     bool   `toml:"enabled"`
	Script      string `toml:"script"`
	Interpreter string `toml:"interpreter"`
	AutoInstall bool   `toml:"auto_install"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framerip.
//
// Sections by subsystem:
//   - Paths: snapshot destination, state dir (pid registry, resume log,
//     run history), log dir
//   - Player: binary and argument override groups
//   - Capture: poll interval, stop wait, process wait timeout, startup
//     window, snapshot wait budget, requested fps, per-video duration cap
//   - Desktop: display-capture cadence and player UI flags
//   - Tools: ffprobe and metadata-tool binaries for frame-rate detection
//   - Cropper: optional cropping subprocess
//   - Logging: format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Player  Player  `toml:"player"`
	Capture Capture `toml:"capture"`
	Desktop Desktop `toml:"desktop"`
	Tools   Tools   `toml:"tools"`
	Cropper Cropper `toml:"cropper"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/framerip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("framerip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.SaveFolder, &c.Paths.StateDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Player.Binary = strings.TrimSpace(c.Player.Binary)
	c.Player.SceneFormat = strings.ToLower(strings.TrimSpace(c.Player.SceneFormat))
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.MetadataTool = strings.TrimSpace(c.Tools.MetadataTool)
	c.Cropper.Interpreter = strings.TrimSpace(c.Cropper.Interpreter)
	if c.Cropper.Script != "" {
		expanded, err := expandPath(c.Cropper.Script)
		if err != nil {
			return err
		}
		c.Cropper.Script = expanded
	}
	return nil
}

// EnsureDirectories creates the directories a batch run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SaveFolder, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
