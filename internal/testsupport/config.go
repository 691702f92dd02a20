// Package testsupport provides helpers shared by package tests: configs
// seeded with per-test temp directories and pre-opened queue and record
// stores wired to them.
package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithThresholds overrides the classification thresholds on the test config.
func WithThresholds(autoApprove, review float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Thresholds.AutoApprove = autoApprove
		cfg.Thresholds.Review = review
	}
}

// WithBackupsDisabled turns off pre-fix backups on the test config.
func WithBackupsDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Fixing.BackupEnabled = false
	}
}
