// Package logging wires log/slog for the daemon and CLI.
//
// Construction goes through Options/New or NewFromConfig, which honors the
// [logging] config section (level, format) and appends the daemon log file
// when a log directory is configured. Attr helpers keep call sites terse and
// NewNop provides a silent logger for tests.
package logging
