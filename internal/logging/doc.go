// Package logging assembles structured slog loggers and attribute helpers
// used across Freighter components.
//
// It centralizes level and output plumbing (console/JSON handlers, optional
// log file fan-out) and exposes the shared attribute keys so engine, tracker,
// and CLI code tag log lines with the same task and session fields. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
