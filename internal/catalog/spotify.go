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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"curator/internal/logging"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Spotify queries the Spotify Web API using the client-credentials grant.
// The access token is fetched lazily and refreshed shortly before expiry.
type Spotify struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	gate         *rate.Limiter
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// SpotifyOptions configures the client. ClientID and ClientSecret are
// required; zero values elsewhere fall back to the public service defaults.
type SpotifyOptions struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Interval     time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
}

func NewSpotify(opts SpotifyOptions) *Spotify {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Spotify{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		baseURL:      opts.BaseURL,
		tokenURL:     opts.TokenURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		gate:         newGate(opts.Interval),
		logger:       logging.WithComponent(opts.Logger, "spotify"),
	}
}

func (s *Spotify) Name() string { return "spotify" }

type spotifySearchResponse struct {
	Albums struct {
		Items []spotifyAlbum `json:"items"`
	} `json:"albums"`
}

type spotifyAlbum struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	ReleaseDate string `json:"release_date"`
	TotalTracks int    `json:"total_tracks"`
}

// Search queries the album index with a fielded query.
func (s *Spotify) Search(ctx context.Context, title, artist string) ([]Candidate, error) {
	query := fmt.Sprintf("album:%q", title)
	if !strings.EqualFold(artist, "various artists") {
		query += fmt.Sprintf(" artist:%q", artist)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("limit", strconv.Itoa(searchLimit))
	endpoint := s.baseURL + "/search?" + params.Encode()

	var result spotifySearchResponse
	if err := s.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(result.Albums.Items))
	for _, album := range result.Albums.Items {
		candidates = append(candidates, toSpotifyCandidate(album))
	}
	s.logger.Debug("album search", logging.String("title", title), logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// Lookup fetches one album by id.
func (s *Spotify) Lookup(ctx context.Context, sourceID string) (*Candidate, error) {
	endpoint := s.baseURL + "/albums/" + url.PathEscape(sourceID)

	var album spotifyAlbum
	if err := s.getJSON(ctx, endpoint, &album); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	candidate := toSpotifyCandidate(album)
	return &candidate, nil
}

func toSpotifyCandidate(album spotifyAlbum) Candidate {
	candidate := Candidate{
		SourceName: "spotify",
		SourceID:   album.ID,
		Title:      album.Name,
		TrackCount: album.TotalTracks,
	}
	if len(album.Artists) > 0 {
		candidate.Artist = album.Artists[0].Name
	}
	if len(album.Images) > 0 {
		candidate.ArtworkURL = album.Images[0].URL
	}
	if len(album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(album.ReleaseDate[:4]); err == nil {
			candidate.Year = year
		}
	}
	return candidate
}

func (s *Spotify) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := s.gate.Wait(ctx); err != nil {
		return err
	}
	token, err := s.ensureToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("spotify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errStatusNotFound
	case http.StatusUnauthorized:
		// Token revoked out of band; drop it so the next call re-authenticates.
		s.mu.Lock()
		s.accessToken = ""
		s.mu.Unlock()
		return fmt.Errorf("spotify: unauthorized (401)")
	case http.StatusTooManyRequests:
		return fmt.Errorf("spotify: rate limited (429)")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("spotify: unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify: decode response: %w", err)
	}
	return nil
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Spotify) ensureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("spotify: build token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("spotify: token request status %d: %s", resp.StatusCode, body)
	}

	var token spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("spotify: decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("spotify: empty access token")
	}

	s.accessToken = token.AccessToken
	// Refresh a minute early so in-flight requests do not race expiry.
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return s.accessToken, nil
}
