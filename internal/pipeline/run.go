package pipeline

import (
	"context"

	"curator/internal/logging"
	"curator/internal/queue"
)

// ResultCode classifies a full run at the orchestration boundary.
type ResultCode string

const (
	// ResultSuccess: every processed item is terminal and nothing failed.
	ResultSuccess ResultCode = "success"
	// ResultPartial: some items failed or are waiting on review.
	ResultPartial ResultCode = "partial"
	// ResultHardError: the run aborted on an unrecoverable error.
	ResultHardError ResultCode = "hard_error"
)

// ValidateSummary counts classification outcomes for one validate pass.
type ValidateSummary struct {
	AutoApproved int
	NeedsReview  int
	Rejected     int
	NotFound     int
	Failed       int
}

// FixSummary counts fix outcomes for one fix pass.
type FixSummary struct {
	Fixed   int
	Partial int
	Failed  int
}

// RunSummary is what a batch run always ends with, success or not.
type RunSummary struct {
	Scanned  int
	Validate ValidateSummary
	Fix      FixSummary
	Stats    queue.Statistics
	Code     ResultCode
	DryRun   bool
}

// Run executes the full pipeline: scan, validate, fix. It never aborts on
// per-item trouble; the summary reports what happened either way.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	ctx = RequestContext(ctx)
	summary := RunSummary{DryRun: o.dryRun}

	scanned, err := o.ScanPass(ctx)
	summary.Scanned = scanned
	if err != nil {
		summary.Code = ResultHardError
		return summary, err
	}

	summary.Validate, err = o.ValidatePass(ctx)
	if err != nil {
		summary.Code = ResultHardError
		return summary, err
	}

	summary.Fix, err = o.FixPass(ctx)
	if err != nil {
		summary.Code = ResultHardError
		return summary, err
	}

	stats, err := o.queue.Stats(ctx)
	if err != nil {
		summary.Code = ResultHardError
		return summary, err
	}
	summary.Stats = stats

	pendingReview := stats.PendingReview
	if o.dryRun {
		// The queue was never written; the trace counts are the only
		// record of what would be waiting on review.
		pendingReview += summary.Validate.NeedsReview + summary.Validate.NotFound
	}
	if summary.Validate.Failed > 0 || summary.Fix.Failed > 0 || summary.Fix.Partial > 0 ||
		stats.Failed > 0 || pendingReview > 0 {
		summary.Code = ResultPartial
	} else {
		summary.Code = ResultSuccess
	}

	if !o.dryRun {
		if _, err := o.records.CreateCheckpoint(); err != nil {
			// A missed checkpoint costs audit detail, not correctness.
			o.logger.Warn("checkpoint failed", logging.Error(err))
		}
	}

	o.logger.Info("run complete",
		logging.String("result", string(summary.Code)),
		logging.Int("scanned", summary.Scanned),
		logging.Int("fixed", summary.Fix.Fixed),
		logging.Int("pending_review", stats.PendingReview),
		logging.Int("failed", stats.Failed),
		logging.Bool("dry_run", o.dryRun))
	return summary, nil
}
