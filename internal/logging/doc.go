// Package logging builds slog loggers for the pipeline: a human-readable
// console handler for interactive use and a JSON handler for log files and
// machine consumption. Helpers attach standard item/phase attributes pulled
// from the request context.
package logging
