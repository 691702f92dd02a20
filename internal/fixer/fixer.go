// Package fixer applies approved corrections to album folders. Corrections
// are applied independently: one failure is recorded and the rest still
// run. When backups are enabled the whole folder is copied aside before the
// first mutation; a failed backup is logged and fixing proceeds.
package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"curator/internal/config"
	"curator/internal/fileutil"
	"curator/internal/logging"
	"curator/internal/matching"
	"curator/internal/textutil"
)

// OutcomeStatus tags one correction's result.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// CorrectionResult pairs a proposed correction with what happened to it.
// The proposal itself is never mutated.
type CorrectionResult struct {
	Correction matching.Correction `json:"correction"`
	Status     OutcomeStatus       `json:"status"`
	Error      string              `json:"error,omitempty"`
}

// Result is the overall outcome for one item.
type Result struct {
	// NewPath is the item's current location after fixing. Callers must
	// use it for subsequent phases; a rename makes the old path stale.
	NewPath    string             `json:"new_path"`
	BackupPath string             `json:"backup_path,omitempty"`
	Outcomes   []CorrectionResult `json:"outcomes"`
	Errors     []string           `json:"errors,omitempty"`
}

// Success reports whether every correction applied cleanly. Skipped
// corrections do not count against success.
func (r Result) Success() bool { return len(r.Errors) == 0 }

// Fixer executes corrections against the filesystem.
type Fixer struct {
	cfg     *config.Config
	artwork ArtworkFetcher
	tags    TagWriter
	logger  *slog.Logger
	dryRun  bool
}

// Option customizes a Fixer.
type Option func(*Fixer)

// WithArtworkFetcher replaces the default HTTP artwork fetcher.
func WithArtworkFetcher(fetcher ArtworkFetcher) Option {
	return func(f *Fixer) { f.artwork = fetcher }
}

// WithTagWriter installs a tag-writing collaborator. Without one, genre
// corrections are reported as skipped rather than failed.
func WithTagWriter(writer TagWriter) Option {
	return func(f *Fixer) { f.tags = writer }
}

// WithDryRun makes Apply trace its decisions without touching anything.
func WithDryRun(dryRun bool) Option {
	return func(f *Fixer) { f.dryRun = dryRun }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fixer {
	f := &Fixer{
		cfg:     cfg,
		artwork: NewHTTPArtworkFetcher(time.Duration(cfg.Sources.RequestTimeout) * time.Second),
		logger:  logging.WithComponent(logger, "fixer"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply runs every correction against the item at location and collects
// per-correction outcomes. The returned NewPath reflects any rename.
func (f *Fixer) Apply(ctx context.Context, location string, corrections []matching.Correction) Result {
	result := Result{NewPath: location}
	if len(corrections) == 0 {
		return result
	}

	if f.cfg.Fixing.BackupEnabled && !f.dryRun && f.anyMutating(corrections) {
		backupPath, err := f.backup(location)
		if err != nil {
			f.logger.Warn("backup failed, continuing without one",
				logging.String("location", location),
				logging.Error(err))
		} else {
			result.BackupPath = backupPath
		}
	}

	current := location
	for _, correction := range corrections {
		outcome := f.applyOne(ctx, &current, correction)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Status == OutcomeFailed {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", correction.Kind, outcome.Error))
		}
	}
	result.NewPath = current
	return result
}

// anyMutating reports whether at least one correction would touch the
// filesystem. An all-skipped batch takes no backup.
func (f *Fixer) anyMutating(corrections []matching.Correction) bool {
	for _, correction := range corrections {
		if !correction.IsSafe {
			continue
		}
		switch correction.Kind {
		case matching.KindFormattingOnly, matching.KindMissingCover:
			return true
		case matching.KindMissingGenre:
			if f.tags != nil {
				return true
			}
		}
	}
	return false
}

func (f *Fixer) applyOne(ctx context.Context, current *string, correction matching.Correction) CorrectionResult {
	outcome := CorrectionResult{Correction: correction}

	if !correction.IsSafe {
		outcome.Status = OutcomeSkipped
		outcome.Error = "correction is not safe for unattended application"
		return outcome
	}

	var err error
	switch correction.Kind {
	case matching.KindFormattingOnly:
		var newPath string
		newPath, err = f.rename(*current, correction.SuggestedValue)
		if err == nil {
			*current = newPath
		}
	case matching.KindMissingCover:
		err = f.embedArtwork(ctx, *current, correction.SuggestedValue)
	case matching.KindMissingGenre:
		if f.tags == nil {
			outcome.Status = OutcomeSkipped
			outcome.Error = "no tag writer configured"
			return outcome
		}
		if !f.dryRun {
			err = f.tags.WriteGenre(ctx, *current, correction.SuggestedValue)
		}
	default:
		outcome.Status = OutcomeSkipped
		outcome.Error = fmt.Sprintf("no applier for kind %q", correction.Kind)
		return outcome
	}

	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Error = err.Error()
		f.logger.Warn("correction failed",
			logging.String("kind", string(correction.Kind)),
			logging.String("location", *current),
			logging.Error(err))
		return outcome
	}
	outcome.Status = OutcomeApplied
	return outcome
}

// rename moves the album folder to a filesystem-safe version of the
// suggested title. Collisions and over-length paths are per-correction
// failures, never a crash.
func (f *Fixer) rename(current, suggested string) (string, error) {
	parent := filepath.Dir(current)
	safeName := textutil.SafeFolderName(suggested, f.cfg.Fixing.ColonReplacement, 0)
	if safeName == "" {
		return "", fmt.Errorf("suggested name %q sanitizes to nothing", suggested)
	}
	target := filepath.Join(parent, safeName)
	if target == current {
		return current, nil
	}
	if len(target) > f.cfg.Fixing.MaxPathLength {
		return "", fmt.Errorf("target path exceeds %d characters: %s", f.cfg.Fixing.MaxPathLength, target)
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("target already exists: %s", target)
	}
	if f.dryRun {
		return target, nil
	}
	if err := os.Rename(current, target); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	f.logger.Info("renamed album folder",
		logging.String("from", current),
		logging.String("to", target))
	return target, nil
}

func (f *Fixer) embedArtwork(ctx context.Context, dir, artworkURL string) error {
	if f.artwork == nil {
		return fmt.Errorf("no artwork fetcher configured")
	}
	if f.dryRun {
		return nil
	}
	data, err := f.artwork.Fetch(ctx, artworkURL)
	if err != nil {
		return fmt.Errorf("fetch artwork: %w", err)
	}
	target := filepath.Join(dir, "folder.jpg")
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return fmt.Errorf("write artwork: %w", err)
	}
	f.logger.Info("saved cover art", logging.String("path", target))
	return nil
}

// backup copies the album folder into the backup directory under a
// timestamped name.
func (f *Fixer) backup(location string) (string, error) {
	if f.cfg.Paths.BackupDir == "" {
		return "", fmt.Errorf("no backup directory configured")
	}
	if err := os.MkdirAll(f.cfg.Paths.BackupDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405"), textutil.SanitizeToken(filepath.Base(location)))
	target := filepath.Join(f.cfg.Paths.BackupDir, name)
	if err := fileutil.CopyDir(location, target); err != nil {
		return "", err
	}
	f.logger.Info("backed up album folder",
		logging.String("from", location),
		logging.String("to", target))
	return target, nil
}
