package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"framerip/internal/config"
)

// Requirement defines an external tool a capture run relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForConfig derives the requirement list from the active configuration. The
// player is the only hard requirement; everything else degrades to a fallback
// or is skipped when its feature is off.
func ForConfig(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "player",
			Command:     cfg.Player.Binary,
			Description: "media player used for playback and snapshot capture",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "primary frame-rate probe",
			Optional:    true,
		},
		{
			Name:        "metadata tool",
			Command:     cfg.Tools.MetadataTool,
			Description: "fallback frame-rate probe",
			Optional:    true,
		},
	}
	if cfg.Cropper.Enabled {
		reqs = append(reqs, Requirement{
			Name:        "cropper interpreter",
			Command:     cfg.Cropper.Interpreter,
			Description: "interpreter for the post-capture cropping script",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
