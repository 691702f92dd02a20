package config

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: "~/Music",
			StateDir:   "~/.local/share/curator",
			BackupDir:  "~/.local/share/curator/backups",
			LogDir:     "~/.local/share/curator/logs",
		},
		Thresholds: Thresholds{
			AutoApprove: 0.95,
			Review:      0.70,
		},
		Sources: Sources{
			Priority:             []string{"musicbrainz", "itunes"},
			MusicBrainzUserAgent: "curator/1.0 (https://github.com/curator-project/curator)",
			MusicBrainzInterval:  1.0,
			ITunesCountry:        "us",
			ITunesInterval:       0.5,
			DiscogsInterval:      1.0,
			SpotifyInterval:      0.5,
			RequestTimeout:       15,
		},
		Fixing: Fixing{
			BackupEnabled:    true,
			MaxPathLength:    250,
			ColonReplacement: " -",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
