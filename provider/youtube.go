package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"go.uber.org/zap"
)

const youTubeResultsURL = "https://www.youtube.com/results?search_query=%s"

// youTube searches the plain YouTube results page. The page embeds
// its data as a ytInitialData JSON blob inside a script tag; entries
// other than plain videos (channels, playlists, shelves, live
// streams) are excluded by their own renderer type, not by name
// heuristics.
type youTube struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

func (provider *youTube) Search(ctx context.Context, query string) ([]*Candidate, error) {
	if err := provider.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(youTubeResultsURL, url.QueryEscape(query)), nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept-Language", "en")

	response, err := provider.client.Do(request)
	if err != nil {
		provider.limiter.OnRateLimited(0)
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		provider.limiter.OnRateLimited(0)
		return nil, fmt.Errorf("youtube search: status %d", response.StatusCode)
	} else if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search: status %d", response.StatusCode)
	}
	provider.limiter.OnSuccess()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, err
	}

	var blob string
	document.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if text := script.Text(); strings.Contains(text, "var ytInitialData") {
			blob = text
			return false
		}
		return true
	})
	if blob == "" {
		return nil, fmt.Errorf("youtube search: no initial data payload")
	}

	start := strings.Index(blob, "{")
	end := strings.LastIndex(blob, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("youtube search: malformed initial data payload")
	}

	candidates := parseResults([]byte(blob[start : end+1]))
	provider.log.Debug("youtube search",
		zap.String("query", query), zap.Int("candidates", len(candidates)))
	return candidates, nil
}

func parseResults(blob []byte) []*Candidate {
	var (
		candidates []*Candidate
		sections   = jsoniter.Get(blob,
			"contents", "twoColumnSearchResultsRenderer", "primaryContents",
			"sectionListRenderer", "contents")
	)
	for sectionIndex := 0; sectionIndex < sections.Size(); sectionIndex++ {
		items := sections.Get(sectionIndex).Get("itemSectionRenderer", "contents")
		for itemIndex := 0; itemIndex < items.Size(); itemIndex++ {
			video := items.Get(itemIndex).Get("videoRenderer")
			if video.Get("videoId").ToString() == "" {
				// channel, playlist or shelf entry
				continue
			}
			// live streams carry no length
			length := video.Get("lengthText", "simpleText").ToString()
			if length == "" {
				continue
			}

			id := video.Get("videoId").ToString()
			candidates = append(candidates, &Candidate{
				ID:       id,
				Title:    video.Get("title", "runs", 0, "text").ToString(),
				URL:      "https://www.youtube.com/watch?v=" + id,
				Duration: parseClock(length),
			})
		}
	}
	return candidates
}
