// Package logging builds the slog loggers used across asiread: a compact
// console handler for interactive use and a JSON handler for structured
// capture. The "component" attribute is rendered as a message prefix in
// console output.
package logging
