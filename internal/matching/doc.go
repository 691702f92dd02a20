// Package matching scores local album metadata against external catalog
// candidates and classifies the result. It is pure computation: no I/O, no
// clock, and deterministic output for a given input list (ties keep the
// first-encountered candidate).
package matching
