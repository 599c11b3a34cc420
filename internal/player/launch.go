package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"framerip/internal/config"
	"framerip/internal/logging"
	"framerip/internal/pidfile"
	"framerip/internal/services"
)

// Timings carries the wall-clock budgets the supervisor and terminator
// enforce. Every wait in this package is a bounded polling loop against
// these values; there are no OS-level process timeouts.
type Timings struct {
	PollInterval  time.Duration
	StopWait      time.Duration
	ProcessWait   time.Duration
	StartupWindow time.Duration
}

// TimingsFromConfig converts the validated config integers into durations.
func TimingsFromConfig(cfg *config.Config) Timings {
	return Timings{
		PollInterval:  time.Duration(cfg.Capture.PollIntervalMS) * time.Millisecond,
		StopWait:      time.Duration(cfg.Capture.StopWaitMS) * time.Millisecond,
		ProcessWait:   time.Duration(cfg.Capture.ProcessWaitTimeout) * time.Second,
		StartupWindow: time.Duration(cfg.Capture.StartupTimeout) * time.Second,
	}
}

func (t Timings) validate() error {
	checks := []struct {
		name  string
		value time.Duration
	}{
		{"poll interval", t.PollInterval},
		{"stop wait", t.StopWait},
		{"process wait timeout", t.ProcessWait},
		{"startup window", t.StartupWindow},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return services.Wrap(services.ErrConfiguration, "launch", "validate timings",
				fmt.Sprintf("%s missing or not positive", check.name), nil)
		}
	}
	return nil
}

// Handle is the supervised player process for one capture session.
type Handle struct {
	binary string
	cmd    *exec.Cmd
	done   chan error

	stdout *boundedBuffer
	stderr *boundedBuffer

	registry *pidfile.Registry

	mu      sync.Mutex
	exited  bool
	exitErr error
}

// PID returns the child process id, or 0 when the process never started.
func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Stdout returns the output drained so far.
func (h *Handle) Stdout() string { return h.stdout.String() }

// Stderr returns the error output drained so far.
func (h *Handle) Stderr() string { return h.stderr.String() }

// Exited reports whether the child is known to have finished.
func (h *Handle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

// ExitErr returns the Wait error recorded when the child finished, nil for a
// clean exit or while the child is still running.
func (h *Handle) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

func (h *Handle) markExited(err error) {
	h.mu.Lock()
	h.exited = true
	h.exitErr = err
	h.mu.Unlock()
}

// Launch starts the player with argv, redirecting and draining stdout/stderr
// so pipe back-pressure can never stall the child, then watches the startup
// window for an early non-zero exit. Timing values are validated before any
// process starts. On success the child pid is registered with the registry.
func Launch(ctx context.Context, logger *slog.Logger, timings Timings, registry *pidfile.Registry, binary string, argv []string) (*Handle, error) {
	if err := timings.validate(); err != nil {
		return nil, err
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "launch", "resolve binary", "player binary not set", nil)
	}

	log := logging.WithComponent(logger, "player")

	handle := &Handle{
		binary:   binary,
		done:     make(chan error, 1),
		stdout:   newBoundedBuffer(),
		stderr:   newBoundedBuffer(),
		registry: registry,
	}
	cmd := exec.CommandContext(ctx, binary, argv...) //nolint:gosec
	cmd.Stdout = handle.stdout
	cmd.Stderr = handle.stderr
	handle.cmd = cmd

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrStartup, "launch", "start player", binary, err)
	}
	log.Debug("player started",
		logging.Int("pid", cmd.Process.Pid),
		logging.String("binary", binary),
		logging.Int("argc", len(argv)))

	// The exec package drains both pipes concurrently; Wait reaps the child
	// and the drain goroutines together. The exit is recorded here, not by
	// whoever receives from done, so Exited() flips as soon as the child
	// dies even when nobody is waiting yet.
	go func() {
		waitErr := cmd.Wait()
		handle.markExited(waitErr)
		handle.done <- waitErr
	}()

	deadline := time.Now().Add(timings.StartupWindow)
	for {
		select {
		case <-handle.done:
			code := cmd.ProcessState.ExitCode()
			if code != 0 {
				return nil, &services.StartupError{
					Binary:   binary,
					ExitCode: code,
					Stderr:   handle.stderr.String(),
				}
			}
			// A clean exit inside the window means the player finished the
			// whole file faster than the watchdog; nothing to supervise.
			log.Debug("player exited cleanly within startup window")
			return handle, nil
		case <-time.After(timings.PollInterval):
		}
		if time.Now().After(deadline) {
			break
		}
	}

	if registry != nil {
		if err := registry.Register(cmd.Process.Pid); err != nil {
			log.Warn("failed to register pid", logging.Error(err), logging.Int("pid", cmd.Process.Pid))
		}
	}
	return handle, nil
}

// boundedBuffer collects child output under a lock and caps retained bytes so
// a chatty player cannot grow memory without bound. The pipe itself is always
// drained; only retention is capped.
type boundedBuffer struct {
	mu    sync.Mutex
	data  []byte
	limit int
}

const defaultBufferLimit = 64 * 1024

func newBoundedBuffer() *boundedBuffer {
	return &boundedBuffer{limit: defaultBufferLimit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := b.limit - len(b.data); remaining > 0 {
		if len(p) <= remaining {
			b.data = append(b.data, p...)
		} else {
			b.data = append(b.data, p[:remaining]...)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}
