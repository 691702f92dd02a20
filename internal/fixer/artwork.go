package fixer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ArtworkFetcher retrieves cover art bytes for an artwork URL.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, artworkURL string) ([]byte, error)
}

// TagWriter writes tag fields into every track of an album folder. Format
// specific writing lives behind this boundary.
type TagWriter interface {
	WriteGenre(ctx context.Context, dir, genre string) error
}

const maxArtworkBytes = 10 << 20

type httpArtworkFetcher struct {
	client *http.Client
}

// NewHTTPArtworkFetcher downloads artwork over plain HTTP GET.
func NewHTTPArtworkFetcher(timeout time.Duration) ArtworkFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpArtworkFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *httpArtworkFetcher) Fetch(ctx context.Context, artworkURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxArtworkBytes {
		return nil, fmt.Errorf("artwork larger than %d bytes", maxArtworkBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artwork fetch: empty response")
	}
	return data, nil
}
