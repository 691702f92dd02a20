package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curator/internal/config"
	"curator/internal/logging"
)

var errStatusNotFound = errors.New("catalog: not found")

func isNotFound(err error) bool {
	return errors.Is(err, errStatusNotFound)
}

// Registry holds the configured sources in query order.
type Registry struct {
	sources []Source
	logger  *slog.Logger
}

// NewRegistry builds the source list from the configured priority order.
// Unknown source names were rejected at config validation.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	timeout := time.Duration(cfg.Sources.RequestTimeout) * time.Second

	var sources []Source
	for _, name := range cfg.Sources.Priority {
		switch name {
		case "musicbrainz":
			sources = append(sources, NewMusicBrainz(MusicBrainzOptions{
				UserAgent: cfg.Sources.MusicBrainzUserAgent,
				Interval:  secondsToInterval(cfg.Sources.MusicBrainzInterval),
				Timeout:   timeout,
				Logger:    logger,
			}))
		case "itunes":
			sources = append(sources, NewITunes(ITunesOptions{
				Country:  cfg.Sources.ITunesCountry,
				Interval: secondsToInterval(cfg.Sources.ITunesInterval),
				Timeout:  timeout,
				Logger:   logger,
			}))
		case "discogs":
			sources = append(sources, NewDiscogs(DiscogsOptions{
				UserAgent: cfg.Sources.MusicBrainzUserAgent,
				Token:     cfg.Sources.DiscogsToken,
				Interval:  secondsToInterval(cfg.Sources.DiscogsInterval),
				Timeout:   timeout,
				Logger:    logger,
			}))
		case "spotify":
			sources = append(sources, NewSpotify(SpotifyOptions{
				ClientID:     cfg.Sources.SpotifyClientID,
				ClientSecret: cfg.Sources.SpotifyClientSecret,
				Interval:     secondsToInterval(cfg.Sources.SpotifyInterval),
				Timeout:      timeout,
				Logger:       logger,
			}))
		default:
			return nil, fmt.Errorf("catalog: unknown source %q", name)
		}
	}
	return &Registry{
		sources: sources,
		logger:  logging.WithComponent(logger, "catalog"),
	}, nil
}

// NewRegistryFromSources wraps an explicit source list, in order. Used by
// tests and embedders that bring their own clients.
func NewRegistryFromSources(logger *slog.Logger, sources ...Source) *Registry {
	return &Registry{sources: sources, logger: logging.WithComponent(logger, "catalog")}
}

// Sources returns the sources in query order.
func (r *Registry) Sources() []Source { return r.sources }

// Search queries sources in priority order and returns the first non-empty
// candidate list along with the source that produced it. A source error
// moves on to the next source; the last error is returned only when every
// source failed or came back empty.
func (r *Registry) Search(ctx context.Context, title, artist string) ([]Candidate, string, error) {
	var lastErr error
	for _, source := range r.sources {
		candidates, err := source.Search(ctx, title, artist)
		if err != nil {
			r.logger.Warn("source search failed",
				logging.String("source", source.Name()),
				logging.Error(err))
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			return candidates, source.Name(), nil
		}
	}
	return nil, "", lastErr
}
