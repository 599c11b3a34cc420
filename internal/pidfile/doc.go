// Package pidfile tracks the live child process ids of one capture run in a
// plain-text file, one id per line. Entries are appended when a player starts
// and removed at clean exit; a crashed run leaves them behind for the cleanup
// command to probe and kill.
package pidfile
