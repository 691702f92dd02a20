package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curator/internal/logging"
)

func TestMusicBrainzSearch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		if r.URL.Query().Get("fmt") != "json" {
			t.Errorf("missing fmt=json: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"releases":[{
			"id":"mbid-1",
			"title":"Modal Soul",
			"date":"2005-11-11",
			"artist-credit":[{"name":"Nujabes"}],
			"media":[{"track-count":14}]
		}]}`))
	}))
	defer server.Close()

	client := NewMusicBrainz(MusicBrainzOptions{
		BaseURL:         server.URL,
		CoverArtBaseURL: "https://coverartarchive.test/release",
		UserAgent:       "curator-test/1.0 (test@example.com)",
		Interval:        time.Nanosecond,
		Logger:          logging.NewNop(),
	})

	candidates, err := client.Search(context.Background(), "Modal Soul", "Nujabes")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotUserAgent != "curator-test/1.0 (test@example.com)" {
		t.Fatalf("user agent = %q", gotUserAgent)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.SourceName != "musicbrainz" || c.SourceID != "mbid-1" {
		t.Fatalf("candidate = %+v", c)
	}
	if c.Artist != "Nujabes" || c.Year != 2005 || c.TrackCount != 14 {
		t.Fatalf("candidate fields = %+v", c)
	}
	if c.ArtworkURL != "https://coverartarchive.test/release/mbid-1/front" {
		t.Fatalf("artwork url = %q", c.ArtworkURL)
	}
}

func TestMusicBrainzSearchEmptyIsNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"releases":[]}`))
	}))
	defer server.Close()

	client := NewMusicBrainz(MusicBrainzOptions{BaseURL: server.URL, Interval: time.Nanosecond, Logger: logging.NewNop()})

	candidates, err := client.Search(context.Background(), "does not exist", "nobody")
	if err != nil {
		t.Fatalf("empty result must not error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %d, want 0", len(candidates))
	}
}

func TestMusicBrainzLookupAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewMusicBrainz(MusicBrainzOptions{BaseURL: server.URL, Interval: time.Nanosecond, Logger: logging.NewNop()})

	candidate, err := client.Lookup(context.Background(), "missing-id")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if candidate != nil {
		t.Fatalf("expected nil for absent id, got %+v", candidate)
	}
}

func TestITunesSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("entity") != "album" {
			t.Errorf("missing entity=album: %s", r.URL.String())
		}
		w.Write([]byte(`{"results":[{
			"collectionId": 42,
			"collectionName": "Buddha-Bar, Vol. 7",
			"artistName": "Various Artists",
			"trackCount": 16,
			"artworkUrl100": "https://art.test/cover.jpg",
			"primaryGenreName": "Electronic",
			"releaseDate": "2005-05-03T07:00:00Z"
		}]}`))
	}))
	defer server.Close()

	client := NewITunes(ITunesOptions{BaseURL: server.URL, Interval: time.Nanosecond, Logger: logging.NewNop()})

	candidates, err := client.Search(context.Background(), "Buddha-Bar, Vol. 7", "Various Artists")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.SourceID != "42" || c.TrackCount != 16 || c.Genre != "Electronic" || c.Year != 2005 {
		t.Fatalf("candidate = %+v", c)
	}
}

func TestDiscogsSearchSplitsCombinedTitle(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("type") != "release" {
			t.Errorf("missing type=release: %s", r.URL.String())
		}
		w.Write([]byte(`{"results":[{
			"id": 7931,
			"title": "Nujabes - Modal Soul",
			"year": "2005",
			"genre": ["Hip Hop"],
			"thumb": "https://img.test/thumb.jpg"
		}]}`))
	}))
	defer server.Close()

	client := NewDiscogs(DiscogsOptions{
		BaseURL:  server.URL,
		Token:    "tok123",
		Interval: time.Nanosecond,
		Logger:   logging.NewNop(),
	})

	candidates, err := client.Search(context.Background(), "Modal Soul", "Nujabes")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotAuth != "Discogs token=tok123" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Artist != "Nujabes" || c.Title != "Modal Soul" {
		t.Fatalf("combined title not split: %+v", c)
	}
	if c.SourceID != "7931" || c.Year != 2005 || c.Genre != "Hip Hop" {
		t.Fatalf("candidate = %+v", c)
	}
}

func TestDiscogsLookupCountsTracklist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": 7931,
			"title": "Modal Soul",
			"year": 2005,
			"artists": [{"name": "Nujabes"}],
			"genres": ["Hip Hop"],
			"tracklist": [{"position":"1","title":"Feather"},{"position":"2","title":"Ordinary Joe"}],
			"images": [{"uri":"https://img.test/full.jpg"}]
		}`))
	}))
	defer server.Close()

	client := NewDiscogs(DiscogsOptions{BaseURL: server.URL, Interval: time.Nanosecond, Logger: logging.NewNop()})

	candidate, err := client.Lookup(context.Background(), "7931")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if candidate == nil {
		t.Fatal("expected candidate")
	}
	if candidate.TrackCount != 2 || candidate.Artist != "Nujabes" || candidate.ArtworkURL != "https://img.test/full.jpg" {
		t.Fatalf("candidate = %+v", candidate)
	}
}

func TestSpotifySearchAuthenticatesOnce(t *testing.T) {
	tokenCalls := 0
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		w.Write([]byte(`{"access_token":"bearer-1","expires_in":3600}`))
	}))
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-1" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"albums":{"items":[{
			"id": "sp-1",
			"name": "Modal Soul",
			"artists": [{"name": "Nujabes"}],
			"images": [{"url": "https://img.test/640.jpg"}],
			"release_date": "2005-11-11",
			"total_tracks": 14
		}]}}`))
	}))
	defer api.Close()

	client := NewSpotify(SpotifyOptions{
		BaseURL:      api.URL,
		TokenURL:     auth.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Interval:     time.Nanosecond,
		Logger:       logging.NewNop(),
	})

	for i := 0; i < 2; i++ {
		candidates, err := client.Search(context.Background(), "Modal Soul", "Nujabes")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("candidates = %d, want 1", len(candidates))
		}
		c := candidates[0]
		if c.SourceID != "sp-1" || c.TrackCount != 14 || c.Year != 2005 {
			t.Fatalf("candidate = %+v", c)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token fetched %d times, want 1", tokenCalls)
	}
}

func TestSpotifyLookupAbsent(t *testing.T) {
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"bearer-1","expires_in":3600}`))
	}))
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer api.Close()

	client := NewSpotify(SpotifyOptions{
		BaseURL: api.URL, TokenURL: auth.URL,
		ClientID: "id", ClientSecret: "secret",
		Interval: time.Nanosecond, Logger: logging.NewNop(),
	})

	candidate, err := client.Lookup(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if candidate != nil {
		t.Fatalf("expected nil for absent id, got %+v", candidate)
	}
}

type stubSource struct {
	name       string
	candidates []Candidate
	err        error
	calls      int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(context.Context, string, string) ([]Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

func (s *stubSource) Lookup(context.Context, string) (*Candidate, error) { return nil, nil }

func TestRegistrySearchFallsThrough(t *testing.T) {
	empty := &stubSource{name: "first"}
	full := &stubSource{name: "second", candidates: []Candidate{{SourceName: "second", Title: "hit"}}}
	registry := NewRegistryFromSources(logging.NewNop(), empty, full)

	candidates, sourceName, err := registry.Search(context.Background(), "t", "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sourceName != "second" || len(candidates) != 1 {
		t.Fatalf("result = (%v, %q)", candidates, sourceName)
	}
	if empty.calls != 1 || full.calls != 1 {
		t.Fatalf("call counts = %d, %d", empty.calls, full.calls)
	}
}

func TestRegistrySearchSkipsFailingSource(t *testing.T) {
	failing := &stubSource{name: "broken", err: context.DeadlineExceeded}
	working := &stubSource{name: "working", candidates: []Candidate{{Title: "hit"}}}
	registry := NewRegistryFromSources(logging.NewNop(), failing, working)

	candidates, sourceName, err := registry.Search(context.Background(), "t", "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sourceName != "working" || len(candidates) != 1 {
		t.Fatalf("result = (%v, %q)", candidates, sourceName)
	}
}

func TestRegistrySearchAllEmpty(t *testing.T) {
	registry := NewRegistryFromSources(logging.NewNop(), &stubSource{name: "a"}, &stubSource{name: "b"})

	candidates, sourceName, err := registry.Search(context.Background(), "t", "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if candidates != nil || sourceName != "" {
		t.Fatalf("expected empty result, got (%v, %q)", candidates, sourceName)
	}
}
