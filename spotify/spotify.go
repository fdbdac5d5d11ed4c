// Package spotify implements the metadata resolver against the
// Spotify Web API. A Client is an explicit handle constructed by the
// caller and passed around, so independent pipelines can run with
// different credentials concurrently.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

var (
	// ErrNotFound marks a catalog id that does not exist upstream.
	// Never retried.
	ErrNotFound = errors.New("spotify: not found")
	// ErrNoMatch marks a search that yielded zero results.
	// Never retried.
	ErrNoMatch = errors.New("spotify: no match")
)

const requestAttempts = 3

type Client struct {
	client  *spotify.Client
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

func NewClient(client *spotify.Client, limiter *ratelimit.Limiter, log *zap.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Options{})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{client: client, limiter: limiter, log: log}
}

// request runs one upstream call through the rate limiter, retrying
// transient failures (429, 5xx, network) a bounded number of times.
// Definitive failures surface immediately as typed errors.
func (client *Client) request(ctx context.Context, operation string, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < requestAttempts; attempt++ {
		if err := client.limiter.Acquire(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			client.limiter.OnSuccess()
			return nil
		}

		var upstreamErr spotify.Error
		switch {
		case errors.As(err, &upstreamErr) && upstreamErr.Status == 404:
			return fmt.Errorf("%s: %w", operation, ErrNotFound)
		case errors.As(err, &upstreamErr) && upstreamErr.Status == 429:
			client.log.Debug("rate limited", zap.String("operation", operation), zap.Int("attempt", attempt))
			client.limiter.OnRateLimited(0)
		case errors.As(err, &upstreamErr) && upstreamErr.Status >= 500:
			client.limiter.OnRateLimited(time.Second)
		case isNetworkError(err):
			client.limiter.OnRateLimited(time.Second)
		default:
			return fmt.Errorf("%s: %w", operation, err)
		}
		lastErr = err
	}
	return fmt.Errorf("%s: attempts exhausted: %w", operation, lastErr)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}
