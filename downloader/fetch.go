package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher downloads a remote blob to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, path string) error
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	Client *http.Client
}

func (fetcher *HTTPFetcher) client() *http.Client {
	if fetcher.Client == nil {
		return &http.Client{Timeout: 10 * time.Minute}
	}
	return fetcher.Client
}

func (fetcher *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := fetcher.client().Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, response.StatusCode)
	}
	return response, nil
}

// Fetch streams the blob to the given path. The partial file is
// removed on any failure, so a temp location never carries stale
// data into a later attempt.
func (fetcher *HTTPFetcher) Fetch(ctx context.Context, url, path string) error {
	response, err := fetcher.get(ctx, url)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, response.Body); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

func (fetcher *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	response, err := fetcher.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	return io.ReadAll(response.Body)
}
