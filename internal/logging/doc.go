// Package logging assembles the structured slog loggers used across the
// renderer.
//
// It owns the console and JSON handlers, picks a format from the output
// terminal when none is configured, and exposes a no-op logger for tests and
// wiring code that cannot fail. Prefer these constructors over hand-rolled
// slog setup so every component emits log lines with the same shape.
package logging
