// Package logging builds the slog loggers used across framerip: a compact
// console handler for interactive use and a JSON handler for machine
// consumption, plus attr helpers and component tagging.
package logging
