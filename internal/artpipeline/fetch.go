package artpipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxImageBytes = 64 << 20

// ArtSource looks up the art URL and type line of a printing.
type ArtSource interface {
	ArtForPrint(ctx context.Context, set, number string) (artURL, typeLine string, err error)
}

// Fetcher downloads source art.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Upscaler transforms original art into a higher resolution image.
type Upscaler interface {
	Upscale(ctx context.Context, img []byte, model string, factor int) ([]byte, error)
}

// HTTPFetcher downloads art over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", target)
	}
	return data, nil
}
