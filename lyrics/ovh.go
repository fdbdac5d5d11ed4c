package lyrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"github.com/spotDL/spotify-downloader-sub000/entity"
)

const ovhURL = "https://api.lyrics.ovh/v1/%s/%s"

// Ovh queries the lyrics.ovh public API, a plain
// artist/title lookup with no authentication.
type Ovh struct {
	client *http.Client
}

func NewOvh(client *http.Client) *Ovh {
	return &Ovh{client: defaultHTTPClient(client)}
}

func (source *Ovh) Search(ctx context.Context, song *entity.Song) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(ovhURL, url.PathEscape(song.Artist()), url.PathEscape(song.Song())), nil)
	if err != nil {
		return "", err
	}

	response, err := source.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return "", ErrLyricsNotFound
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lyrics.ovh: status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	lyrics := jsoniter.Get(body, "lyrics").ToString()
	if lyrics == "" {
		return "", ErrLyricsNotFound
	}
	return lyrics, nil
}
