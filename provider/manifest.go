package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
)

const playerURL = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"

// Quality is the stream-quality preference.
type Quality string

const (
	QualityBest  Quality = "best"
	QualityWorst Quality = "worst"
)

// Stream is one audio encoding out of a video's manifest.
type Stream struct {
	URL      string
	MimeType string
	Bitrate  int
	Filesize int64
}

// Manifest is the set of audio streams available for one candidate.
type Manifest struct {
	Streams []Stream
}

// ErrNoStream marks a manifest without any usable audio stream,
// typically an expired or region-locked video.
var ErrNoStream = errors.New("provider: no audio stream")

// Select picks the stream by quality preference. The format filter
// narrows by codec substring (e.g. "opus", "mp4a"); an unmatched
// filter falls back to the overall best/worst rather than failing.
func (manifest *Manifest) Select(quality Quality, format string) (*Stream, error) {
	if len(manifest.Streams) == 0 {
		return nil, ErrNoStream
	}

	streams := make([]Stream, len(manifest.Streams))
	copy(streams, manifest.Streams)
	sort.SliceStable(streams, func(i, j int) bool {
		return streams[i].Bitrate > streams[j].Bitrate
	})

	pool := streams
	if format != "" {
		filtered := []Stream{}
		for _, stream := range streams {
			if strings.Contains(stream.MimeType, format) {
				filtered = append(filtered, stream)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	if quality == QualityWorst {
		return &pool[len(pool)-1], nil
	}
	return &pool[0], nil
}

// ManifestFetcher fetches the stream manifest for a video id.
type ManifestFetcher interface {
	Fetch(ctx context.Context, videoID string) (*Manifest, error)
}

// PlayerManifests fetches manifests through the public player
// endpoint, using the Android client profile whose stream URLs do
// not require signature deciphering.
type PlayerManifests struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

func (player *PlayerManifests) Fetch(ctx context.Context, videoID string) (*Manifest, error) {
	client := player.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if player.Limiter != nil {
		if err := player.Limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := jsoniter.Marshal(map[string]interface{}{
		"videoId": videoID,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":        "ANDROID",
				"clientVersion":     "19.09.37",
				"androidSdkVersion": 30,
				"hl":                "en",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		if player.Limiter != nil {
			player.Limiter.OnRateLimited(0)
		}
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		if player.Limiter != nil && response.StatusCode == http.StatusTooManyRequests {
			player.Limiter.OnRateLimited(0)
		}
		return nil, fmt.Errorf("player %s: status %d", videoID, response.StatusCode)
	}
	if player.Limiter != nil {
		player.Limiter.OnSuccess()
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(response.Body); err != nil {
		return nil, err
	}
	return parseManifest(body.Bytes())
}

func parseManifest(blob []byte) (*Manifest, error) {
	if status := jsoniter.Get(blob, "playabilityStatus", "status").ToString(); status != "OK" {
		return nil, fmt.Errorf("player: playability %s: %w", status, ErrNoStream)
	}

	var (
		manifest = &Manifest{}
		formats  = jsoniter.Get(blob, "streamingData", "adaptiveFormats")
	)
	for index := 0; index < formats.Size(); index++ {
		format := formats.Get(index)
		mimeType := format.Get("mimeType").ToString()
		if !strings.HasPrefix(mimeType, "audio/") {
			continue
		}
		manifest.Streams = append(manifest.Streams, Stream{
			URL:      format.Get("url").ToString(),
			MimeType: mimeType,
			Bitrate:  format.Get("bitrate").ToInt(),
			Filesize: format.Get("contentLength").ToInt64(),
		})
	}
	if len(manifest.Streams) == 0 {
		return nil, ErrNoStream
	}
	return manifest, nil
}
