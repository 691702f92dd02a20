package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	StateDir   string `toml:"state_dir"`
	BackupDir  string `toml:"backup_dir"`
	LogDir     string `toml:"log_dir"`
}

// Thresholds contains confidence floors for match classification.
type Thresholds struct {
	// AutoApprove is the confidence floor for automatic acceptance.
	AutoApprove float64 `toml:"auto_approve"`
	// Review is the confidence floor below which a match is rejected outright.
	Review float64 `toml:"review"`
}

// Sources contains external catalog configuration. Intervals are minimum
// seconds between requests; each source enforces its own gate so callers
// never add throttling.
type Sources struct {
	Priority             []string `toml:"priority"`
	MusicBrainzUserAgent string   `toml:"musicbrainz_user_agent"`
	MusicBrainzInterval  float64  `toml:"musicbrainz_interval"`
	ITunesCountry        string   `toml:"itunes_country"`
	ITunesInterval       float64  `toml:"itunes_interval"`
	DiscogsToken         string   `toml:"discogs_token"`
	DiscogsInterval      float64  `toml:"discogs_interval"`
	SpotifyClientID      string   `toml:"spotify_client_id"`
	SpotifyClientSecret  string   `toml:"spotify_client_secret"`
	SpotifyInterval      float64  `toml:"spotify_interval"`
	RequestTimeout       int      `toml:"request_timeout"`
}

// Fixing contains configuration for the fix applier.
type Fixing struct {
	BackupEnabled    bool   `toml:"backup_enabled"`
	MaxPathLength    int    `toml:"max_path_length"`
	ColonReplacement string `toml:"colon_replacement"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Curator.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Thresholds Thresholds `toml:"thresholds"`
	Sources    Sources    `toml:"sources"`
	Fixing     Fixing     `toml:"fixing"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found (defaults apply either way).
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.LibraryDir,
		&c.Paths.StateDir,
		&c.Paths.BackupDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Sources.ITunesCountry = strings.ToLower(strings.TrimSpace(c.Sources.ITunesCountry))

	// Credentials may come from the environment instead of the file so the
	// config can be committed without secrets.
	if c.Sources.DiscogsToken == "" {
		c.Sources.DiscogsToken = os.Getenv("DISCOGS_TOKEN")
	}
	if c.Sources.SpotifyClientID == "" {
		c.Sources.SpotifyClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if c.Sources.SpotifyClientSecret == "" {
		c.Sources.SpotifyClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}

	normalized := make([]string, 0, len(c.Sources.Priority))
	for _, name := range c.Sources.Priority {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			normalized = append(normalized, name)
		}
	}
	c.Sources.Priority = normalized
	return nil
}

// EnsureDirectories creates required directories for pipeline operation.
// BackupDir is created on a best-effort basis so runs succeed when backup
// storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.BackupDir) != "" {
		_ = os.MkdirAll(c.Paths.BackupDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
