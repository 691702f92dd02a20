// Package queue persists reconciliation work items in SQLite and exposes
// helpers for driving their lifecycle.
//
// The Store is a dumb, crash-safe ledger: every mutation commits before the
// call returns, and no method validates that a status transition is a legal
// edge. Legality is the orchestrator's responsibility. Queue state is a
// derived index over the record store; it can be rebuilt from per-album
// records plus the priority/metadata overlay persisted here.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or columns, update schema.sql and bump schemaVersion.
package queue
