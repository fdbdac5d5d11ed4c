// Package lyrics fetches song lyrics, consulted concurrently with
// the audio download and joined before tagging. Lyrics absence is
// normal and yields an empty string, not an error.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spotDL/spotify-downloader-sub000/entity"
)

// ErrLyricsNotFound marks a song no source knows about.
var ErrLyricsNotFound = errors.New("lyrics: not found")

type Source interface {
	Search(ctx context.Context, song *entity.Song) (string, error)
}

// MultiSource queries its sources in order, returning the first hit.
type MultiSource []Source

func (sources MultiSource) Search(ctx context.Context, song *entity.Song) (string, error) {
	for _, source := range sources {
		lyrics, err := source.Search(ctx, song)
		if errors.Is(err, ErrLyricsNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		return lyrics, nil
	}
	return "", ErrLyricsNotFound
}

// Search resolves lyrics through the default source set, mapping
// absence to an empty string so a missing text never fails a song.
func Search(ctx context.Context, song *entity.Song, sources Source) (string, error) {
	if sources == nil {
		sources = MultiSource{NewOvh(nil)}
	}
	lyrics, err := sources.Search(ctx, song)
	if errors.Is(err, ErrLyricsNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lyrics for %s: %w", song, err)
	}
	return lyrics, nil
}

func defaultHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 20 * time.Second}
	}
	return client
}
