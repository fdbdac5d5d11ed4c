package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"go.uber.org/zap"
)

const (
	youTubeMusicSearchURL = "https://music.youtube.com/youtubei/v1/search?prettyPrint=false"
	// songs-only search filter, so the response never mixes in
	// albums, artists or playlists
	youTubeMusicSongsParams = "EgWKAQIIAWoKEAkQBRAKEAMQBA%3D%3D"
)

// youTubeMusic searches through the music.youtube.com internal API,
// whose song shelf yields candidates already scoped to music uploads.
type youTubeMusic struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

func (provider *youTubeMusic) Search(ctx context.Context, query string) ([]*Candidate, error) {
	if err := provider.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	payload, err := jsoniter.Marshal(map[string]interface{}{
		"query":  query,
		"params": youTubeMusicSongsParams,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":    "WEB_REMIX",
				"clientVersion": "1.20230821.01.00",
				"hl":            "en",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, youTubeMusicSearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Origin", "https://music.youtube.com")

	response, err := provider.client.Do(request)
	if err != nil {
		provider.limiter.OnRateLimited(0)
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		provider.limiter.OnRateLimited(0)
		return nil, fmt.Errorf("youtube music search: status %d", response.StatusCode)
	} else if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube music search: status %d", response.StatusCode)
	}
	provider.limiter.OnSuccess()

	var body bytes.Buffer
	if _, err := body.ReadFrom(response.Body); err != nil {
		return nil, err
	}

	candidates := parseMusicResults(body.Bytes())
	provider.log.Debug("youtube music search",
		zap.String("query", query), zap.Int("candidates", len(candidates)))
	return candidates, nil
}

func parseMusicResults(blob []byte) []*Candidate {
	var (
		candidates []*Candidate
		sections   = jsoniter.Get(blob,
			"contents", "tabbedSearchResultsRenderer", "tabs", 0, "tabRenderer",
			"content", "sectionListRenderer", "contents")
	)
	for sectionIndex := 0; sectionIndex < sections.Size(); sectionIndex++ {
		items := sections.Get(sectionIndex).Get("musicShelfRenderer", "contents")
		for itemIndex := 0; itemIndex < items.Size(); itemIndex++ {
			item := items.Get(itemIndex).Get("musicResponsiveListItemRenderer")

			id := item.Get("playlistItemData", "videoId").ToString()
			if id == "" {
				continue
			}

			var (
				title = item.Get("flexColumns", 0,
					"musicResponsiveListItemFlexColumnRenderer", "text", "runs", 0, "text").ToString()
				meta     = item.Get("flexColumns", 1, "musicResponsiveListItemFlexColumnRenderer", "text", "runs")
				duration int
			)
			// the duration is the trailing run of the metadata column
			if meta.Size() > 0 {
				duration = parseClock(meta.Get(meta.Size() - 1).Get("text").ToString())
			}

			candidates = append(candidates, &Candidate{
				ID:       id,
				Title:    title,
				URL:      "https://music.youtube.com/watch?v=" + id,
				Duration: duration,
			})
		}
	}
	return candidates
}
