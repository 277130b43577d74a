// Package logging assembles structured slog loggers and formatting helpers used
// across assetprep.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes field helpers so pipeline code tags log lines with the
// relative path, format, codec, and run identifier consistently. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
