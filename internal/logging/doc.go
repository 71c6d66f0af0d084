// Package logging assembles structured slog loggers and formatting helpers used
// across the shelving pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, stamps every record with the run identifier, and exposes
// context-aware helpers so stage code can tag log lines with the pipeline
// stage and order directory being processed. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
