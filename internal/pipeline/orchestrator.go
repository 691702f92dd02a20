package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/fixer"
	"curator/internal/logging"
	"curator/internal/matching"
	"curator/internal/queue"
	"curator/internal/records"
	"curator/internal/scanner"
	"curator/internal/services"
)

// Searcher is the slice of the catalog registry the orchestrator needs.
type Searcher interface {
	Search(ctx context.Context, title, artist string) ([]catalog.Candidate, string, error)
}

// Orchestrator drives items through the pipeline one at a time, in
// priority order. All collaborators are injected once at construction; the
// orchestrator holds no hidden global state.
type Orchestrator struct {
	cfg     *config.Config
	queue   *queue.Store
	records *records.Store
	sources Searcher
	engine  *matching.Engine
	fixer   *fixer.Fixer
	scanner *scanner.Scanner
	logger  *slog.Logger
	dryRun  bool

	// preview carries items through a dry run in memory, standing in for
	// the queue writes a real run would make. Nil outside dry runs.
	preview []*queue.Item
}

// Options bundles orchestrator construction parameters.
type Options struct {
	Config  *config.Config
	Queue   *queue.Store
	Records *records.Store
	Sources Searcher
	Fixer   *fixer.Fixer
	Logger  *slog.Logger
	DryRun  bool
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil || opts.Queue == nil || opts.Records == nil {
		return nil, errors.New("pipeline: config, queue, and records are required")
	}
	o := &Orchestrator{
		cfg:     opts.Config,
		queue:   opts.Queue,
		records: opts.Records,
		sources: opts.Sources,
		engine: matching.NewEngine(matching.Thresholds{
			AutoApprove: opts.Config.Thresholds.AutoApprove,
			Review:      opts.Config.Thresholds.Review,
		}),
		fixer:   opts.Fixer,
		scanner: scanner.New(opts.Config.Paths.LibraryDir, opts.Logger),
		logger:  logging.WithComponent(opts.Logger, "pipeline"),
		dryRun:  opts.DryRun,
	}
	if o.fixer == nil {
		o.fixer = fixer.New(opts.Config, opts.Logger, fixer.WithDryRun(opts.DryRun))
	}
	return o, nil
}

// ScanPass walks the library and enqueues every album folder. A missing
// library root is a hard error; nothing else in a run can proceed without
// it.
func (o *Orchestrator) ScanPass(ctx context.Context) (int, error) {
	ctx = services.WithPhase(ctx, "scan")
	if _, err := os.Stat(o.cfg.Paths.LibraryDir); err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "scan", "library root", o.cfg.Paths.LibraryDir, err)
	}

	albums, err := o.scanner.Scan(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "scan", "walk library", "", err)
	}

	enqueued := 0
	for _, album := range albums {
		id := records.DeriveID(album.Path)
		metadata := map[string]any{
			metaTitle:      album.Local.Title,
			metaArtist:     album.Local.Artist,
			metaTrackCount: album.Local.TrackCount,
			metaGenre:      album.Local.Genre,
			metaHasArtwork: album.Local.HasArtwork,
			metaIssues:     album.Issues,
		}
		if o.dryRun {
			o.preview = append(o.preview, &queue.Item{
				ID:       id,
				Location: album.Path,
				Status:   queue.StatusScanned,
				Priority: queue.PriorityForIssueCount(len(album.Issues)),
				Metadata: metadata,
			})
			enqueued++
			continue
		}
		priority := queue.PriorityForIssueCount(len(album.Issues))
		if _, err := o.queue.Enqueue(ctx, id, album.Path, queue.StatusScanned, priority, metadata); err != nil {
			return enqueued, services.Wrap(services.ErrPersistence, "scan", "enqueue", album.Path, err)
		}
		if _, err := o.records.SaveItemState(album.Path, "scanned", metadata); err != nil {
			return enqueued, services.Wrap(services.ErrPersistence, "scan", "save record", album.Path, err)
		}
		enqueued++
	}
	o.logger.Info("scan pass complete", logging.Int("albums", enqueued), logging.Bool("dry_run", o.dryRun))
	return enqueued, nil
}

// ValidatePass reconciles every scanned item against external catalogs and
// classifies the outcome. Per-item failures are logged and reflected in the
// item's status; the pass continues with the next item.
func (o *Orchestrator) ValidatePass(ctx context.Context) (ValidateSummary, error) {
	ctx = services.WithPhase(ctx, "validate")
	var summary ValidateSummary

	var items []*queue.Item
	if o.preview != nil {
		items = o.previewByStatus(queue.StatusScanned)
	} else {
		var err error
		items, err = o.queue.ItemsByStatus(ctx, queue.StatusScanned)
		if err != nil {
			return summary, services.Wrap(services.ErrPersistence, "validate", "list scanned", "", err)
		}
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		itemCtx := services.WithItemID(ctx, item.ID)
		if err := o.validateItem(itemCtx, item, &summary); err != nil {
			if services.IsFatal(err) {
				return summary, err
			}
			o.absorbItemError(itemCtx, item, err)
			summary.Failed++
		}
	}
	o.logger.Info("validate pass complete",
		logging.Int("items", len(items)),
		logging.Int("auto_approved", summary.AutoApproved),
		logging.Int("needs_review", summary.NeedsReview),
		logging.Int("rejected", summary.Rejected),
		logging.Int("not_found", summary.NotFound),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (o *Orchestrator) validateItem(ctx context.Context, item *queue.Item, summary *ValidateSummary) error {
	local := localFromItem(item)
	logger := logging.WithContext(ctx, o.logger)

	candidates, sourceName, err := o.sources.Search(ctx, local.Title, local.Artist)
	if err != nil && len(candidates) == 0 {
		// Collaborator trouble is recoverable; the item just has no
		// candidates this pass.
		logger.Warn("all sources failed", logging.Error(err))
	}

	outcome := o.engine.Match(local, candidates)
	outcome.Corrections = matching.BuildCorrections(local, outcome.Best)

	result := map[string]any{
		metaConfidence:     outcome.Confidence,
		metaClassification: string(outcome.Classification),
		metaScores:         asMetadataValue(outcome.Scores),
	}
	if outcome.Best != nil {
		result[metaMatch] = asMetadataValue(outcome.Best)
		result[metaCorrections] = asMetadataValue(outcome.Corrections)
	}

	var status queue.Status
	switch outcome.Classification {
	case matching.ClassAutoApproved:
		status = queue.StatusValidated
		summary.AutoApproved++
	case matching.ClassNeedsReview:
		status = queue.StatusNeedsReview
		summary.NeedsReview++
	case matching.ClassRejected:
		status = queue.StatusRejected
		summary.Rejected++
	case matching.ClassNotFound:
		// No candidates anywhere: a human should look rather than the
		// item silently rotting in a rejected state.
		status = queue.StatusNeedsReview
		summary.NotFound++
		if !o.dryRun {
			if err := o.records.LogError(item.Location, "not_found", fmt.Sprintf("no candidates for %q by %q", local.Title, local.Artist)); err != nil {
				logger.Warn("error ledger write failed", logging.Error(err))
			}
		}
	default:
		return services.Wrap(services.ErrValidation, "validate", "classify", string(outcome.Classification), nil)
	}

	logger.Info("validated item",
		logging.String("source", sourceName),
		logging.Float64(logging.FieldConfidence, outcome.Confidence),
		logging.String(logging.FieldStatus, string(status)),
		logging.Int("corrections", len(outcome.Corrections)))

	if o.dryRun {
		previewUpdate(item, status, result)
		return nil
	}
	if err := o.queue.UpdateStatus(ctx, item.ID, status, result); err != nil {
		return services.Wrap(services.ErrPersistence, "validate", "update status", item.ID, err)
	}
	if _, err := o.records.SaveItemState(item.Location, "validated", result); err != nil {
		return services.Wrap(services.ErrPersistence, "validate", "save record", item.Location, err)
	}
	return nil
}

// FixPass applies stored corrections to every validated or approved item.
func (o *Orchestrator) FixPass(ctx context.Context) (FixSummary, error) {
	ctx = services.WithPhase(ctx, "fix")
	var summary FixSummary

	var items []*queue.Item
	if o.preview != nil {
		items = o.previewByStatus(queue.StatusValidated, queue.StatusApproved)
	} else {
		var err error
		items, err = o.queue.ReadyToFix(ctx)
		if err != nil {
			return summary, services.Wrap(services.ErrPersistence, "fix", "list ready", "", err)
		}
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		itemCtx := services.WithItemID(ctx, item.ID)
		if err := o.fixItem(itemCtx, item, &summary); err != nil {
			if services.IsFatal(err) {
				return summary, err
			}
			o.absorbItemError(itemCtx, item, err)
			summary.Failed++
		}
	}
	o.logger.Info("fix pass complete",
		logging.Int("items", len(items)),
		logging.Int("fixed", summary.Fixed),
		logging.Int("partial", summary.Partial),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (o *Orchestrator) fixItem(ctx context.Context, item *queue.Item, summary *FixSummary) error {
	logger := logging.WithContext(ctx, o.logger)

	corrections, err := correctionsFromItem(item)
	if err != nil {
		return services.Wrap(services.ErrValidation, "fix", "stored corrections", item.ID, err)
	}

	result := o.fixer.Apply(ctx, item.Location, corrections)
	patch := map[string]any{metaFixResult: asMetadataValue(result)}

	if !o.dryRun {
		for _, failure := range result.Errors {
			if err := o.records.LogError(item.Location, "correction_failure", failure); err != nil {
				logger.Warn("error ledger write failed", logging.Error(err))
			}
		}
	}

	var status queue.Status
	if result.Success() {
		status = queue.StatusFixed
		summary.Fixed++
	} else {
		// Some corrections landed; a human decides whether to retry the
		// rest. The item is not terminal.
		status = queue.StatusNeedsReview
		summary.Partial++
	}
	logger.Info("fixed item",
		logging.String(logging.FieldStatus, string(status)),
		logging.Int("corrections", len(corrections)),
		logging.Int("errors", len(result.Errors)),
		logging.String("new_path", result.NewPath))

	if o.dryRun {
		previewUpdate(item, status, patch)
		return nil
	}
	if result.NewPath != item.Location {
		// Later phases must see the current location.
		if err := o.queue.Relocate(ctx, item.ID, result.NewPath); err != nil {
			return services.Wrap(services.ErrPersistence, "fix", "relocate", item.ID, err)
		}
	}
	if err := o.queue.UpdateStatus(ctx, item.ID, status, patch); err != nil {
		return services.Wrap(services.ErrPersistence, "fix", "update status", item.ID, err)
	}
	// Records stay keyed by the pre-rename location so the item keeps one
	// identity for the whole run; the queue carries the current path.
	if _, err := o.records.SaveItemState(item.Location, "fixed", patch); err != nil {
		return services.Wrap(services.ErrPersistence, "fix", "save record", item.Location, err)
	}

	if status == queue.StatusFixed {
		return o.verifyItem(ctx, item.ID, item.Location, result.NewPath)
	}
	return nil
}

// verifyItem confirms the fixed folder is where the fix result says it is.
func (o *Orchestrator) verifyItem(ctx context.Context, id, recordLocation, currentPath string) error {
	if _, err := os.Stat(currentPath); err != nil {
		if logErr := o.records.LogError(recordLocation, "storage_failure", "fixed location missing: "+err.Error()); logErr != nil {
			o.logger.Warn("error ledger write failed", logging.Error(logErr))
		}
		if err := o.queue.UpdateStatus(ctx, id, queue.StatusFailed, nil); err != nil {
			return services.Wrap(services.ErrPersistence, "verify", "update status", id, err)
		}
		return nil
	}
	if err := o.queue.UpdateStatus(ctx, id, queue.StatusVerified, nil); err != nil {
		return services.Wrap(services.ErrPersistence, "verify", "update status", id, err)
	}
	if _, err := o.records.SaveItemState(recordLocation, "verified", nil); err != nil {
		return services.Wrap(services.ErrPersistence, "verify", "save record", recordLocation, err)
	}
	return nil
}

// previewUpdate mirrors a queue transition on an in-memory item so later
// passes of a dry run see the same statuses a real run would persist.
func previewUpdate(item *queue.Item, status queue.Status, patch map[string]any) {
	item.Status = status
	if len(patch) == 0 {
		return
	}
	if item.Metadata == nil {
		item.Metadata = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		item.Metadata[key] = value
	}
}

func (o *Orchestrator) previewByStatus(statuses ...queue.Status) []*queue.Item {
	var items []*queue.Item
	for _, item := range o.preview {
		for _, status := range statuses {
			if item.Status == status {
				items = append(items, item)
				break
			}
		}
	}
	return items
}

// absorbItemError records a per-item failure and moves the item to the
// status the error taxonomy dictates. Absorbing never aborts the pass.
func (o *Orchestrator) absorbItemError(ctx context.Context, item *queue.Item, itemErr error) {
	logger := logging.WithContext(ctx, o.logger)
	logger.Error("item failed", logging.Error(itemErr))

	if o.dryRun {
		return
	}
	if err := o.records.LogError(item.Location, "item_failure", itemErr.Error()); err != nil {
		logger.Warn("error ledger write failed", logging.Error(err))
	}
	status := services.FailureStatus(itemErr)
	if err := o.queue.UpdateStatus(ctx, item.ID, status, map[string]any{"error": itemErr.Error()}); err != nil {
		logger.Error("status update after failure also failed", logging.Error(err))
	}
}

// RequestContext stamps a fresh correlation id onto the context for one run.
func RequestContext(ctx context.Context) context.Context {
	return services.WithRequestID(ctx, uuid.NewString())
}
