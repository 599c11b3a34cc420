package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks missing or invalid run-configuration values.
	// Fatal: raised before any child process starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrStartup marks a player process that exited non-zero inside the
	// startup window. Fatal for the current video only.
	ErrStartup = errors.New("startup failure")
	// ErrDependencyMissing marks cropper preflight failures when required
	// interpreter packages are absent and auto-install is disabled.
	ErrDependencyMissing = errors.New("dependency missing")
	// ErrInstallFailure marks a failed package-installer invocation.
	ErrInstallFailure = errors.New("install failure")
	// ErrIO marks registry or outcome-log writes that failed after retries.
	// Audit-trail loss must never be silent.
	ErrIO = errors.New("io error")
	// ErrExternalTool marks a child process that ran but exited non-zero.
	ErrExternalTool = errors.New("external tool error")
	// ErrTimeout marks a bounded wait that expired. The snapshot monitor
	// never raises it; a timed-out capture is a recorded outcome.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StartupError reports a player process that died during the startup window.
// Stderr carries the captured output verbatim so the failure can be diagnosed
// without re-running the video.
type StartupError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *StartupError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d during startup window", e.Binary, e.ExitCode)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func (e *StartupError) Unwrap() error { return ErrStartup }

// Fatal reports whether an error should abort the whole batch rather than
// fail a single video.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrDependencyMissing) ||
		errors.Is(err, ErrInstallFailure) ||
		errors.Is(err, ErrIO)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
