package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrFetchFailure wraps every failure to retrieve photo bytes.
var ErrFetchFailure = errors.New("photo fetch failed")

const DefaultMaxBytes = 20 << 20

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: unsupported url %q", ErrFetchFailure, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: error creating request: %v", ErrFetchFailure, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error doing request: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code: %d - status: %s", ErrFetchFailure, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: error reading body: %v", ErrFetchFailure, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrFetchFailure, f.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrFetchFailure)
	}
	return body, nil
}

// FileFetcher reads photos from the local filesystem and falls back to an
// HTTP fetcher for http(s) URLs.
type FileFetcher struct {
	HTTP     Fetcher
	MaxBytes int64
}

func (f *FileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if f.HTTP == nil {
			return nil, fmt.Errorf("%w: no http fetcher for %q", ErrFetchFailure, url)
		}
		return f.HTTP.Fetch(ctx, url)
	}

	path := strings.TrimPrefix(url, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	max := f.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if info.Size() > max {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrFetchFailure, max)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	return b, nil
}
