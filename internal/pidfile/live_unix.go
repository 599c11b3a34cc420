//go:build unix

package pidfile

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive reports whether a recorded pid still refers to a running process.
// EPERM means the process exists but belongs to another user.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Terminate force-kills a recorded pid. Used by the orphan-cleanup pass after
// a crashed run; a vanished process is not an error.
func Terminate(pid int) error {
	if pid <= 0 {
		return nil
	}
	err := unix.Kill(pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
