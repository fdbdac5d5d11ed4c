// Package provider implements the match engine: it searches the
// audio-hosting services for candidates matching a canonical Song and
// resolves the best one to a downloadable stream.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"go.uber.org/zap"
)

// ErrNoCandidate marks a search that yielded no usable result, or a
// manual selection of "skip". A content-absence condition, never
// retried.
var ErrNoCandidate = errors.New("provider: no candidate")

// Candidate is one search hit, kept only until the best one has been
// chosen and its stream manifest fetched.
type Candidate struct {
	ID       string
	Title    string
	URL      string
	Duration int // in seconds
}

// Name selects a provider variant at construction time.
type Name string

const (
	YouTube      Name = "youtube"
	YouTubeMusic Name = "youtube-music"
)

type Provider interface {
	Search(ctx context.Context, query string) ([]*Candidate, error)
}

// For returns the provider variant registered under the given name.
func For(name Name, client *http.Client, limiter *ratelimit.Limiter, log *zap.Logger) (Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Options{})
	}
	if log == nil {
		log = zap.NewNop()
	}

	switch name {
	case YouTube:
		return &youTube{client: client, limiter: limiter, log: log}, nil
	case YouTubeMusic:
		return &youTubeMusic{client: client, limiter: limiter, log: log}, nil
	}
	return nil, fmt.Errorf("unsupported provider %q", name)
}

// VideoID extracts the video id out of the supported watch URL forms.
func VideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if id := parsed.Query().Get("v"); id != "" {
		return id, nil
	}
	if strings.Contains(parsed.Host, "youtu.be") {
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no video id in %q", rawURL)
}

func parseClock(clock string) int {
	parts := strings.Split(clock, ":")
	seconds := 0
	for _, part := range parts {
		value := 0
		for _, digit := range part {
			if digit < '0' || digit > '9' {
				return 0
			}
			value = value*10 + int(digit-'0')
		}
		seconds = seconds*60 + value
	}
	return seconds
}
