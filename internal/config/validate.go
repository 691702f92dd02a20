package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownSources = map[string]struct{}{
	"musicbrainz": {},
	"itunes":      {},
	"discogs":     {},
	"spotify":     {},
}

var knownLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var knownLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks the configuration for invalid or inconsistent values.
// All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	for name, value := range map[string]string{
		"paths.library_dir": c.Paths.LibraryDir,
		"paths.state_dir":   c.Paths.StateDir,
		"paths.log_dir":     c.Paths.LogDir,
	} {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, fmt.Sprintf("%s must be set", name))
		}
	}

	if c.Thresholds.AutoApprove <= 0 || c.Thresholds.AutoApprove > 1 {
		problems = append(problems, "thresholds.auto_approve must be in (0, 1]")
	}
	if c.Thresholds.Review <= 0 || c.Thresholds.Review > 1 {
		problems = append(problems, "thresholds.review must be in (0, 1]")
	}
	if c.Thresholds.Review > c.Thresholds.AutoApprove {
		problems = append(problems, "thresholds.review must not exceed thresholds.auto_approve")
	}

	if len(c.Sources.Priority) == 0 {
		problems = append(problems, "sources.priority must name at least one source")
	}
	for _, name := range c.Sources.Priority {
		if _, ok := knownSources[name]; !ok {
			problems = append(problems, fmt.Sprintf("sources.priority contains unknown source %q", name))
		}
	}
	if strings.TrimSpace(c.Sources.MusicBrainzUserAgent) == "" {
		problems = append(problems, "sources.musicbrainz_user_agent must be set")
	}
	if c.Sources.MusicBrainzInterval < 0 {
		problems = append(problems, "sources.musicbrainz_interval must not be negative")
	}
	if c.Sources.ITunesInterval < 0 {
		problems = append(problems, "sources.itunes_interval must not be negative")
	}
	if c.Sources.DiscogsInterval < 0 {
		problems = append(problems, "sources.discogs_interval must not be negative")
	}
	if c.Sources.SpotifyInterval < 0 {
		problems = append(problems, "sources.spotify_interval must not be negative")
	}
	for _, name := range c.Sources.Priority {
		if name == "spotify" && (c.Sources.SpotifyClientID == "" || c.Sources.SpotifyClientSecret == "") {
			problems = append(problems, "sources.spotify_client_id and sources.spotify_client_secret must be set when spotify is in sources.priority")
		}
	}
	if c.Sources.RequestTimeout <= 0 {
		problems = append(problems, "sources.request_timeout must be positive")
	}

	if c.Fixing.MaxPathLength <= 0 {
		problems = append(problems, "fixing.max_path_length must be positive")
	}
	if strings.ContainsAny(c.Fixing.ColonReplacement, `/\`) {
		problems = append(problems, "fixing.colon_replacement must not contain path separators")
	}

	if _, ok := knownLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format must be one of console, json (got %q)", c.Logging.Format))
	}
	if _, ok := knownLogLevels[c.Logging.Level]; !ok {
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
