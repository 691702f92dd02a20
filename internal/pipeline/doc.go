// Package pipeline sequences the reconciliation run: scan the library into
// the queue, validate queued items against external catalogs, and apply
// approved corrections. Transition legality lives here; the queue itself
// never second-guesses a status change. Per-item errors are absorbed into
// the error ledger and the item's status; only persistence failures and a
// missing library root abort a run.
package pipeline
