package player

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"framerip/internal/logging"
	"framerip/internal/services"
)

// Stop shuts the player down: graceful signal first, then a bounded grace
// wait, then a force kill with a bounded exit-confirmation wait. The pid is
// unregistered regardless of which path terminated the process.
func Stop(logger *slog.Logger, timings Timings, handle *Handle) error {
	if handle == nil {
		return nil
	}
	log := logging.WithComponent(logger, "player")
	defer func() {
		if handle.registry != nil {
			if err := handle.registry.Unregister(handle.PID()); err != nil {
				log.Warn("failed to unregister pid", logging.Error(err), logging.Int("pid", handle.PID()))
			}
		}
	}()

	if handle.Exited() {
		return nil
	}

	if err := handle.cmd.Process.Signal(unix.SIGTERM); err != nil {
		// Process may have exited between the check and the signal.
		log.Debug("graceful signal failed", logging.Error(err))
	}
	if waitExit(handle, timings.StopWait, timings.PollInterval) {
		log.Debug("player exited after graceful signal", logging.Int("pid", handle.PID()))
		return nil
	}

	log.Warn("player ignored graceful shutdown; force killing",
		logging.Int("pid", handle.PID()),
		logging.Duration("grace", timings.StopWait))
	if err := handle.cmd.Process.Kill(); err != nil {
		log.Debug("kill failed", logging.Error(err))
	}
	if waitExit(handle, timings.ProcessWait, timings.PollInterval) {
		return nil
	}
	return services.Wrap(services.ErrTimeout, "stop", "confirm exit",
		"player still running after force kill", nil)
}

func waitExit(handle *Handle, budget, poll time.Duration) bool {
	deadline := time.Now().Add(budget)
	for {
		select {
		case <-handle.done:
			return true
		case <-time.After(poll):
		}
		if time.Now().After(deadline) {
			return false
		}
	}
}
