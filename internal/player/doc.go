// Package player builds argument vectors for the external media player and
// supervises its process lifecycle: launch with a startup watchdog, drained
// output pipes, pid registration, and graceful-then-forced termination.
package player
