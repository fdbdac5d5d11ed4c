package lyrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/spotDL/spotify-downloader-sub000/entity"
)

const geniusSearchURL = "https://api.genius.com/search?q=%s"

// Genius resolves lyrics through the Genius API search plus a scrape
// of the song page, which embeds the text in lyrics containers.
type Genius struct {
	client *http.Client
	token  string
}

func NewGenius(client *http.Client, token string) *Genius {
	return &Genius{client: defaultHTTPClient(client), token: token}
}

func (source *Genius) Search(ctx context.Context, song *entity.Song) (string, error) {
	if source.token == "" {
		return "", ErrLyricsNotFound
	}

	page, err := source.songPage(ctx, song)
	if err != nil {
		return "", err
	}
	return source.scrape(ctx, page)
}

func (source *Genius) songPage(ctx context.Context, song *entity.Song) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(geniusSearchURL, url.QueryEscape(song.Artist()+" "+song.Song())), nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+source.token)

	response, err := source.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius search: status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	page := jsoniter.Get(body, "response", "hits", 0, "result", "url").ToString()
	if page == "" {
		return "", ErrLyricsNotFound
	}
	return page, nil
}

func (source *Genius) scrape(ctx context.Context, page string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	if err != nil {
		return "", err
	}

	response, err := source.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius page: status %d", response.StatusCode)
	}

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return "", err
	}

	var buffer strings.Builder
	document.Find("div[data-lyrics-container='true']").Each(func(_ int, container *goquery.Selection) {
		html, err := container.Html()
		if err != nil {
			return
		}
		text := strings.ReplaceAll(html, "<br/>", "\n")
		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(stripTags(text))
	})

	lyrics := strings.TrimSpace(buffer.String())
	if lyrics == "" {
		return "", ErrLyricsNotFound
	}
	return lyrics, nil
}

func stripTags(html string) string {
	var (
		buffer strings.Builder
		inTag  bool
	)
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			buffer.WriteRune(character)
		}
	}
	return buffer.String()
}
