package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"curator/internal/logging"
)

const discogsBaseURL = "https://api.discogs.com"

// Discogs queries the Discogs database. A personal access token raises the
// rate limit from 25 to 60 requests per minute; without one the client still
// works, just slower.
type Discogs struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	token      string
	gate       *rate.Limiter
	logger     *slog.Logger
}

// DiscogsOptions configures the client. Zero values fall back to the public
// service defaults.
type DiscogsOptions struct {
	BaseURL   string
	UserAgent string
	Token     string
	Interval  time.Duration
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewDiscogs(opts DiscogsOptions) *Discogs {
	if opts.BaseURL == "" {
		opts.BaseURL = discogsBaseURL
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Discogs{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		token:      opts.Token,
		gate:       newGate(opts.Interval),
		logger:     logging.WithComponent(opts.Logger, "discogs"),
	}
}

func (d *Discogs) Name() string { return "discogs" }

type discogsSearchResponse struct {
	Results []discogsSearchResult `json:"results"`
}

type discogsSearchResult struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Year  string   `json:"year"`
	Genre []string `json:"genre"`
	Thumb string   `json:"thumb"`
}

type discogsRelease struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Genres    []string `json:"genres"`
	Tracklist []struct {
		Position string `json:"position"`
		Title    string `json:"title"`
	} `json:"tracklist"`
	Images []struct {
		URI string `json:"uri"`
	} `json:"images"`
}

// Search queries the release database. Discogs folds artist and album into a
// single "Artist - Album" title in search results; it is split back apart
// here.
func (d *Discogs) Search(ctx context.Context, title, artist string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", title)
	params.Set("type", "release")
	params.Set("per_page", strconv.Itoa(searchLimit))
	if !strings.EqualFold(artist, "various artists") {
		params.Set("artist", artist)
	}
	endpoint := d.baseURL + "/database/search?" + params.Encode()

	var result discogsSearchResponse
	if err := d.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(result.Results))
	for _, item := range result.Results {
		candidates = append(candidates, d.toSearchCandidate(item))
	}
	d.logger.Debug("release search", logging.String("title", title), logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// Lookup fetches one release with its tracklist.
func (d *Discogs) Lookup(ctx context.Context, sourceID string) (*Candidate, error) {
	endpoint := d.baseURL + "/releases/" + url.PathEscape(sourceID)

	var release discogsRelease
	if err := d.getJSON(ctx, endpoint, &release); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	candidate := Candidate{
		SourceName: d.Name(),
		SourceID:   strconv.FormatInt(release.ID, 10),
		Title:      release.Title,
		Year:       release.Year,
		TrackCount: len(release.Tracklist),
	}
	if len(release.Artists) > 0 {
		candidate.Artist = release.Artists[0].Name
	}
	if len(release.Genres) > 0 {
		candidate.Genre = release.Genres[0]
	}
	if len(release.Images) > 0 {
		candidate.ArtworkURL = release.Images[0].URI
	}
	return &candidate, nil
}

func (d *Discogs) toSearchCandidate(item discogsSearchResult) Candidate {
	candidate := Candidate{
		SourceName: d.Name(),
		SourceID:   strconv.FormatInt(item.ID, 10),
		Title:      item.Title,
		Artist:     "Various Artists",
		ArtworkURL: item.Thumb,
	}
	if artist, title, ok := strings.Cut(item.Title, " - "); ok {
		candidate.Artist = artist
		candidate.Title = title
	}
	if year, err := strconv.Atoi(item.Year); err == nil {
		candidate.Year = year
	}
	if len(item.Genre) > 0 {
		candidate.Genre = item.Genre[0]
	}
	return candidate
}

func (d *Discogs) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := d.gate.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("discogs: build request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Discogs token="+d.token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discogs: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errStatusNotFound
	case http.StatusTooManyRequests:
		return fmt.Errorf("discogs: rate limited (429)")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discogs: unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("discogs: decode response: %w", err)
	}
	return nil
}
