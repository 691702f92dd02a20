// Package config loads, defaults, and validates the TOML configuration that
// drives the reconciliation pipeline: library/state paths, confidence
// thresholds, external source ordering and rate limits, and fixing behavior.
package config
