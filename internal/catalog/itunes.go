package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"curator/internal/logging"
)

const itunesBaseURL = "https://itunes.apple.com"

// ITunes queries the iTunes Search API for albums.
type ITunes struct {
	httpClient *http.Client
	baseURL    string
	country    string
	gate       *rate.Limiter
	logger     *slog.Logger
}

// ITunesOptions configures the client. Zero values fall back to the public
// service defaults.
type ITunesOptions struct {
	BaseURL  string
	Country  string
	Interval time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewITunes(opts ITunesOptions) *ITunes {
	if opts.BaseURL == "" {
		opts.BaseURL = itunesBaseURL
	}
	if opts.Country == "" {
		opts.Country = "us"
	}
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &ITunes{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		country:    opts.Country,
		gate:       newGate(opts.Interval),
		logger:     logging.WithComponent(opts.Logger, "itunes"),
	}
}

func (i *ITunes) Name() string { return "itunes" }

type itunesResponse struct {
	Results []itunesCollection `json:"results"`
}

type itunesCollection struct {
	CollectionID     int64  `json:"collectionId"`
	CollectionName   string `json:"collectionName"`
	ArtistName       string `json:"artistName"`
	TrackCount       int    `json:"trackCount"`
	ArtworkURL       string `json:"artworkUrl100"`
	PrimaryGenreName string `json:"primaryGenreName"`
	ReleaseDate      string `json:"releaseDate"`
}

// Search queries the album index by a combined artist/title term.
func (i *ITunes) Search(ctx context.Context, title, artist string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("term", strings.TrimSpace(artist+" "+title))
	params.Set("entity", "album")
	params.Set("country", i.country)
	params.Set("limit", "5")
	endpoint := i.baseURL + "/search?" + params.Encode()

	var result itunesResponse
	if err := i.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(result.Results))
	for _, collection := range result.Results {
		candidates = append(candidates, toITunesCandidate(collection))
	}
	i.logger.Debug("album search", logging.String("title", title), logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// Lookup fetches one album by collection id.
func (i *ITunes) Lookup(ctx context.Context, sourceID string) (*Candidate, error) {
	params := url.Values{}
	params.Set("id", sourceID)
	params.Set("entity", "album")
	endpoint := i.baseURL + "/lookup?" + params.Encode()

	var result itunesResponse
	if err := i.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	for _, collection := range result.Results {
		if collection.CollectionName != "" {
			candidate := toITunesCandidate(collection)
			return &candidate, nil
		}
	}
	return nil, nil
}

func toITunesCandidate(collection itunesCollection) Candidate {
	candidate := Candidate{
		SourceName: "itunes",
		SourceID:   fmt.Sprintf("%d", collection.CollectionID),
		Title:      collection.CollectionName,
		Artist:     collection.ArtistName,
		TrackCount: collection.TrackCount,
		Genre:      collection.PrimaryGenreName,
		ArtworkURL: collection.ArtworkURL,
	}
	if len(collection.ReleaseDate) >= 4 {
		var year int
		if _, err := fmt.Sscanf(collection.ReleaseDate[:4], "%d", &year); err == nil {
			candidate.Year = year
		}
	}
	return candidate
}

func (i *ITunes) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := i.gate.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("itunes: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("itunes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("itunes: unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("itunes: decode response: %w", err)
	}
	return nil
}
