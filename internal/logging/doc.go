// Package logging assembles the structured slog loggers used across Lenscap.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers so command and service code
// emits fields with consistent keys. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
