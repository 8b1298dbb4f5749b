// Package logging assembles structured slog loggers and formatting helpers used
// across squeeze.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so encode code can tag log lines
// with session IDs and profile names automatically. The package also provides
// a no-op logger for tests and wiring code that cannot fail, plus a progress
// sampler that keeps per-frame encoder statistics from flooding the log.
package logging
