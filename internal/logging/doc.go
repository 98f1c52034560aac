// Package logging assembles structured slog loggers and formatting helpers used
// across crashqueue.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized field keys so the queue, file store, and
// delivery loop tag log lines with the same minidump and event identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
