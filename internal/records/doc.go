// Package records is the durable source of truth for per-item pipeline
// state. Each item gets one JSON file keyed by an id derived from its
// location, holding the last known status and a phase history; a singleton
// session record, an append-only error ledger, and write-once checkpoints
// live alongside. All writes go through an atomic temp-then-rename so a
// crash never leaves a torn record.
package records
