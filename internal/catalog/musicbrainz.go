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
	"time"

	"golang.org/x/time/rate"

	"curator/internal/logging"
)

const (
	musicBrainzBaseURL  = "https://musicbrainz.org/ws/2"
	coverArtArchiveBase = "https://coverartarchive.org/release"
	searchLimit         = 5
)

// MusicBrainz queries the MusicBrainz release index. The service requires a
// descriptive User-Agent and at most one request per second; both are
// enforced here, not by callers.
type MusicBrainz struct {
	httpClient *http.Client
	baseURL    string
	coverBase  string
	userAgent  string
	gate       *rate.Limiter
	logger     *slog.Logger
}

// MusicBrainzOptions configures the client. Zero values fall back to the
// public service defaults.
type MusicBrainzOptions struct {
	BaseURL         string
	CoverArtBaseURL string
	UserAgent       string
	Interval        time.Duration
	Timeout         time.Duration
	Logger          *slog.Logger
}

func NewMusicBrainz(opts MusicBrainzOptions) *MusicBrainz {
	if opts.BaseURL == "" {
		opts.BaseURL = musicBrainzBaseURL
	}
	if opts.CoverArtBaseURL == "" {
		opts.CoverArtBaseURL = coverArtArchiveBase
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &MusicBrainz{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		coverBase:  opts.CoverArtBaseURL,
		userAgent:  opts.UserAgent,
		gate:       newGate(opts.Interval),
		logger:     logging.WithComponent(opts.Logger, "musicbrainz"),
	}
}

func (m *MusicBrainz) Name() string { return "musicbrainz" }

type mbReleaseSearch struct {
	Releases []mbRelease `json:"releases"`
}

type mbRelease struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	TrackCount   int    `json:"track-count"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Media []struct {
		TrackCount int `json:"track-count"`
	} `json:"media"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Search queries the release index by title and artist.
func (m *MusicBrainz) Search(ctx context.Context, title, artist string) ([]Candidate, error) {
	query := fmt.Sprintf(`release:%q AND artist:%q`, title, artist)
	endpoint := fmt.Sprintf("%s/release/?query=%s&fmt=json&limit=%d", m.baseURL, url.QueryEscape(query), searchLimit)

	var result mbReleaseSearch
	if err := m.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(result.Releases))
	for _, release := range result.Releases {
		candidates = append(candidates, m.toCandidate(release))
	}
	m.logger.Debug("release search", logging.String("title", title), logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// Lookup fetches one release with its recordings and genres.
func (m *MusicBrainz) Lookup(ctx context.Context, sourceID string) (*Candidate, error) {
	endpoint := fmt.Sprintf("%s/release/%s?fmt=json&inc=recordings+genres", m.baseURL, url.PathEscape(sourceID))

	var release mbRelease
	if err := m.getJSON(ctx, endpoint, &release); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	candidate := m.toCandidate(release)
	return &candidate, nil
}

func (m *MusicBrainz) toCandidate(release mbRelease) Candidate {
	candidate := Candidate{
		SourceName: m.Name(),
		SourceID:   release.ID,
		Title:      release.Title,
		TrackCount: release.TrackCount,
	}
	if len(release.ArtistCredit) > 0 {
		candidate.Artist = release.ArtistCredit[0].Name
	}
	if candidate.TrackCount == 0 {
		for _, medium := range release.Media {
			candidate.TrackCount += medium.TrackCount
		}
	}
	if len(release.Date) >= 4 {
		if year, err := strconv.Atoi(release.Date[:4]); err == nil {
			candidate.Year = year
		}
	}
	if len(release.Genres) > 0 {
		candidate.Genre = release.Genres[0].Name
	}
	if release.ID != "" {
		candidate.ArtworkURL = fmt.Sprintf("%s/%s/front", m.coverBase, release.ID)
	}
	return candidate
}

func (m *MusicBrainz) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := m.gate.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("musicbrainz: build request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("musicbrainz: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errStatusNotFound
	case http.StatusServiceUnavailable:
		return fmt.Errorf("musicbrainz: service unavailable (503)")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("musicbrainz: unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("musicbrainz: decode response: %w", err)
	}
	return nil
}
