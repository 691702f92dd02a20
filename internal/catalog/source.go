package catalog

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Candidate is one album record returned by an external catalog.
type Candidate struct {
	SourceName string         `json:"source_name"`
	SourceID   string         `json:"source_id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist"`
	Year       int            `json:"year,omitempty"`
	TrackCount int            `json:"track_count,omitempty"`
	Genre      string         `json:"genre,omitempty"`
	ArtworkURL string         `json:"artwork_url,omitempty"`
	Raw        map[string]any `json:"-"`
}

// Source is the uniform contract every external catalog implements.
type Source interface {
	// Name identifies the source in config and logs.
	Name() string
	// Search returns candidates ordered by the source's own relevance.
	// No results is an empty slice, never an error.
	Search(ctx context.Context, title, artist string) ([]Candidate, error)
	// Lookup fetches the full record for a source id, nil when absent.
	Lookup(ctx context.Context, sourceID string) (*Candidate, error)
}

// newGate builds a limiter allowing one request per interval, with an
// initial token so the first request never waits.
func newGate(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func secondsToInterval(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
