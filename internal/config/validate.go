package config

import (
	"errors"
	"fmt"
	"strings"
)

var allowedSceneFormats = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// Validate ensures the configuration is usable. Timing values are checked
// again by the launcher right before a process starts, but a broken file
// should fail here, once, at load time.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDesktop(); err != nil {
		return err
	}
	if err := c.validateCropper(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SaveFolder) == "" {
		return errors.New("paths.save_folder must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.Binary == "" {
		return errors.New("player.binary must be set")
	}
	if c.Player.SceneFormat != "" {
		if _, ok := allowedSceneFormats[c.Player.SceneFormat]; !ok {
			return fmt.Errorf("player.scene_format must be one of png, jpg, jpeg; got %q", c.Player.SceneFormat)
		}
	}
	return nil
}

func (c *Config) validateCapture() error {
	if err := ensurePositiveMap(map[string]int{
		"capture.poll_interval_ms":     c.Capture.PollIntervalMS,
		"capture.stop_wait_ms":         c.Capture.StopWaitMS,
		"capture.process_wait_timeout": c.Capture.ProcessWaitTimeout,
		"capture.startup_timeout":      c.Capture.StartupTimeout,
		"capture.max_snapshot_wait":    c.Capture.MaxSnapshotWait,
	}); err != nil {
		return err
	}
	if c.Capture.RequestedFPS <= 0 {
		return errors.New("capture.requested_fps must be positive")
	}
	if c.Capture.VideoDuration < 0 {
		return errors.New("capture.video_duration must be >= 0 (0 disables the cap)")
	}
	return nil
}

func (c *Config) validateDesktop() error {
	if c.Desktop.FPS <= 0 {
		return errors.New("desktop.fps must be positive")
	}
	if c.Desktop.Duration <= 0 {
		return errors.New("desktop.duration must be positive")
	}
	return nil
}

func (c *Config) validateCropper() error {
	if !c.Cropper.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Cropper.Script) == "" {
		return errors.New("cropper.script must be set when cropper.enabled is true")
	}
	if c.Cropper.Interpreter == "" {
		return errors.New("cropper.interpreter must be set when cropper.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
