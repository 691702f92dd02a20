package fixer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/logging"
	"curator/internal/matching"
	"curator/internal/testsupport"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (s *stubFetcher) Fetch(context.Context, string) ([]byte, error) { return s.data, s.err }

type stubTagWriter struct {
	genres map[string]string
	err    error
}

func (s *stubTagWriter) WriteGenre(_ context.Context, dir, genre string) error {
	if s.err != nil {
		return s.err
	}
	if s.genres == nil {
		s.genres = map[string]string{}
	}
	s.genres[dir] = genre
	return nil
}

func makeAlbum(t *testing.T, root, artist, album string) string {
	t.Helper()
	dir := filepath.Join(root, artist, album)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "01.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestApplyRenameFormattingOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Keith Jarrett", "Shine_ The Complete Classics")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{
		matching.ClassifyTitle("Shine_ The Complete Classics", "Shine - The Complete Classics"),
	})

	if !result.Success() {
		t.Fatalf("errors = %v", result.Errors)
	}
	want := filepath.Join(filepath.Dir(dir), "Shine - The Complete Classics")
	if result.NewPath != want {
		t.Fatalf("new path = %q, want %q", result.NewPath, want)
	}
	if _, err := os.Stat(result.NewPath); err != nil {
		t.Fatalf("renamed folder missing: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("old folder should be gone")
	}
}

func TestApplyRenameColonReplacement(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Old Name")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindFormattingOnly,
		Field:          "title",
		CurrentValue:   "Old Name",
		SuggestedValue: "Shine: The Complete Classics",
		IsSafe:         true,
	}})

	if !result.Success() {
		t.Fatalf("errors = %v", result.Errors)
	}
	if base := filepath.Base(result.NewPath); base != "Shine - The Complete Classics" {
		t.Fatalf("renamed to %q", base)
	}
}

func TestApplyRenameCollisionIsNonFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Old Name")
	makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "New Name")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindFormattingOnly,
		SuggestedValue: "New Name",
		IsSafe:         true,
	}})

	if result.Success() {
		t.Fatal("collision must be reported as a failure")
	}
	if result.NewPath != dir {
		t.Fatalf("path must be unchanged on collision, got %q", result.NewPath)
	}
	if result.Outcomes[0].Status != OutcomeFailed {
		t.Fatalf("outcome = %+v", result.Outcomes[0])
	}
}

func TestApplyRenamePathLengthGuard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	cfg.Fixing.MaxPathLength = 20
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "A", "B")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindFormattingOnly,
		SuggestedValue: "A Very Long Replacement Album Title",
		IsSafe:         true,
	}})

	if result.Success() {
		t.Fatal("over-length target must fail")
	}
	if !strings.Contains(result.Errors[0], "exceeds") {
		t.Fatalf("error = %v", result.Errors)
	}
}

func TestApplyPartialFailureIsolation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	tags := &stubTagWriter{}
	fixer := New(cfg, logging.NewNop(),
		WithArtworkFetcher(&stubFetcher{err: errors.New("network down")}),
		WithTagWriter(tags),
	)

	// [ok, fails, ok]: genre write, artwork fetch, rename.
	corrections := []matching.Correction{
		{Kind: matching.KindMissingGenre, SuggestedValue: "Jazz", IsSafe: true},
		{Kind: matching.KindMissingCover, SuggestedValue: "https://art.test/x.jpg", IsSafe: true},
		{Kind: matching.KindFormattingOnly, SuggestedValue: "Album Renamed", IsSafe: true},
	}
	result := fixer.Apply(context.Background(), dir, corrections)

	if len(result.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(result.Outcomes))
	}
	statuses := []OutcomeStatus{result.Outcomes[0].Status, result.Outcomes[1].Status, result.Outcomes[2].Status}
	if statuses[0] != OutcomeApplied || statuses[1] != OutcomeFailed || statuses[2] != OutcomeApplied {
		t.Fatalf("statuses = %v", statuses)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
	if result.Success() {
		t.Fatal("partial result must not be success")
	}
	if filepath.Base(result.NewPath) != "Album Renamed" {
		t.Fatalf("later corrections must still run: %q", result.NewPath)
	}
}

func TestApplyEmbedsArtwork(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop(), WithArtworkFetcher(&stubFetcher{data: []byte("jpeg-bytes")}))
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindMissingCover,
		SuggestedValue: "https://art.test/front.jpg",
		IsSafe:         true,
	}})

	if !result.Success() {
		t.Fatalf("errors = %v", result.Errors)
	}
	data, err := os.ReadFile(filepath.Join(dir, "folder.jpg"))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("folder.jpg = (%q, %v)", data, err)
	}
}

func TestApplyUnsafeCorrectionSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupsDisabled())
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{
		matching.ClassifyTitle("Album", "Completely Different Title"),
	})

	if result.Outcomes[0].Status != OutcomeSkipped {
		t.Fatalf("unsafe correction must be skipped: %+v", result.Outcomes[0])
	}
	if !result.Success() {
		t.Fatal("skips do not count as failures")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("folder must be untouched")
	}
}

func TestApplyBackupBeforeMutation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindFormattingOnly,
		SuggestedValue: "Album Fixed",
		IsSafe:         true,
	}})

	if !result.Success() {
		t.Fatalf("errors = %v", result.Errors)
	}
	if result.BackupPath == "" {
		t.Fatal("expected a backup path")
	}
	if _, err := os.Stat(filepath.Join(result.BackupPath, "01.mp3")); err != nil {
		t.Fatalf("backup contents missing: %v", err)
	}
}

func TestApplyBackupFailureDoesNotBlock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.BackupDir = ""
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{{
		Kind:           matching.KindFormattingOnly,
		SuggestedValue: "Album Fixed",
		IsSafe:         true,
	}})

	if !result.Success() {
		t.Fatalf("fixing must proceed without a backup: %v", result.Errors)
	}
	if result.BackupPath != "" {
		t.Fatalf("backup path = %q, want empty", result.BackupPath)
	}
}

func TestApplyAllSkippedBatchTakesNoBackup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop())
	result := fixer.Apply(context.Background(), dir, []matching.Correction{
		matching.ClassifyTitle("Album", "Completely Different Title"),
		{Kind: matching.KindMissingGenre, SuggestedValue: "Jazz", IsSafe: true},
	})

	for _, outcome := range result.Outcomes {
		if outcome.Status != OutcomeSkipped {
			t.Fatalf("expected all skips, got %+v", outcome)
		}
	}
	if result.BackupPath != "" {
		t.Fatalf("backup path = %q, want none when nothing mutates", result.BackupPath)
	}
	entries, err := os.ReadDir(cfg.Paths.BackupDir)
	if err == nil && len(entries) != 0 {
		t.Fatalf("backup dir not empty: %d entries", len(entries))
	}
}

func TestApplyDryRunMutatesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := makeAlbum(t, cfg.Paths.LibraryDir, "Artist", "Album")

	fixer := New(cfg, logging.NewNop(),
		WithDryRun(true),
		WithArtworkFetcher(&stubFetcher{data: []byte("jpeg")}),
	)
	result := fixer.Apply(context.Background(), dir, []matching.Correction{
		{Kind: matching.KindFormattingOnly, SuggestedValue: "Album Fixed", IsSafe: true},
		{Kind: matching.KindMissingCover, SuggestedValue: "https://art.test/x.jpg", IsSafe: true},
	})

	if !result.Success() {
		t.Fatalf("errors = %v", result.Errors)
	}
	// Decision trace is identical to a real run, filesystem is untouched.
	if filepath.Base(result.NewPath) != "Album Fixed" {
		t.Fatalf("dry-run trace new path = %q", result.NewPath)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("original folder must still exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "folder.jpg")); !os.IsNotExist(err) {
		t.Fatal("dry-run must not write artwork")
	}
	entries, err := os.ReadDir(cfg.Paths.BackupDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatal("dry-run must not create backups")
	}
}
