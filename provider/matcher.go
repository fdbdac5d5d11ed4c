package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/util"
	"go.uber.org/zap"
)

// DefaultQueryTemplate builds the search query handed to the
// providers.
const DefaultQueryTemplate = "{artist} - {title}"

// DefaultDurationTolerance is the window, in seconds, within which a
// candidate duration is considered to match the catalog duration.
const DefaultDurationTolerance = 10

const manifestAttempts = 2

// SelectFunc lets an interactive caller pick from the ordered
// candidate list: it returns a 1-based index, or 0 to skip the song.
type SelectFunc func(song *entity.Song, candidates []*Candidate) (int, error)

type Matcher struct {
	Providers         []Provider
	QueryTemplate     string
	DurationTolerance int  // 0 disables duration filtering
	Manual            bool // prompt through Select instead of auto-picking
	Select            SelectFunc
	Manifests         ManifestFetcher
	Log               *zap.Logger
}

func (matcher *Matcher) log() *zap.Logger {
	if matcher.Log == nil {
		return zap.NewNop()
	}
	return matcher.Log
}

// Match turns a canonical Song into an ordered candidate list with
// the chosen one first. A user-forced DownloadURL bypasses search
// entirely.
func (matcher *Matcher) Match(ctx context.Context, song *entity.Song) ([]*Candidate, error) {
	if song.DownloadURL != "" {
		id, err := VideoID(song.DownloadURL)
		if err != nil {
			return nil, err
		}
		return []*Candidate{{ID: id, URL: song.DownloadURL, Title: song.Title, Duration: song.Duration}}, nil
	}

	query := matcher.query(song)
	var (
		candidates []*Candidate
		lastErr    error
	)
	for _, provider := range matcher.Providers {
		candidates, lastErr = provider.Search(ctx, query)
		if lastErr == nil && len(candidates) > 0 {
			break
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%q: %w", query, ErrNoCandidate)
	}

	if matcher.Manual {
		return matcher.selectManually(song, candidates)
	}
	return matcher.selectAutomatically(song, candidates), nil
}

// Resolve matches the song and fetches the stream manifest for the
// best candidate, falling through to the next-best one when the
// manifest cannot be fetched. Exhausting every candidate is a hard
// failure for the song.
func (matcher *Matcher) Resolve(ctx context.Context, song *entity.Song, quality Quality, format string) (*Candidate, *Stream, error) {
	candidates, err := matcher.Match(ctx, song)
	if err != nil {
		return nil, nil, err
	}

	var lastErr error
	for _, candidate := range candidates {
		for attempt := 0; attempt < manifestAttempts; attempt++ {
			manifest, err := matcher.Manifests.Fetch(ctx, candidate.ID)
			if err != nil {
				lastErr = err
				continue
			}

			stream, err := manifest.Select(quality, format)
			if err != nil {
				lastErr = err
				break
			}
			matcher.log().Debug("stream selected",
				zap.String("candidate", candidate.ID),
				zap.Int("bitrate", stream.Bitrate),
				zap.String("size", util.HumanizeBytes(int(stream.Filesize))))
			return candidate, stream, nil
		}
		matcher.log().Debug("manifest exhausted, moving to next candidate",
			zap.String("song", song.ID), zap.String("candidate", candidate.ID))
	}
	return nil, nil, fmt.Errorf("all candidates exhausted for %s: %w", song, lastErr)
}

func (matcher *Matcher) query(song *entity.Song) string {
	template := matcher.QueryTemplate
	if template == "" {
		template = DefaultQueryTemplate
	}
	query := strings.ReplaceAll(template, "{artist}", song.Artist())
	query = strings.ReplaceAll(query, "{artists}", strings.Join(song.Artists, ", "))
	query = strings.ReplaceAll(query, "{title}", song.Title)
	query = strings.ReplaceAll(query, "{album}", song.AlbumName)
	query = strings.ReplaceAll(query, "{isrc}", song.ISRC)
	return query
}

// selectAutomatically picks the provider's top-ranked candidate,
// unless duration filtering is on, in which case the closest
// candidate within tolerance wins and search order breaks ties.
// Duration metadata is unreliable, so an empty filter falls back to
// the unfiltered top candidate rather than failing.
func (matcher *Matcher) selectAutomatically(song *entity.Song, candidates []*Candidate) []*Candidate {
	if matcher.DurationTolerance <= 0 || song.Duration <= 0 {
		return candidates
	}

	best := -1
	for index, candidate := range candidates {
		drift := candidate.Duration - song.Duration
		if drift < 0 {
			drift = -drift
		}
		if drift > matcher.DurationTolerance {
			continue
		}
		if best < 0 || drift < absDrift(candidates[best], song) {
			best = index
		}
	}
	if best <= 0 {
		return candidates
	}

	reordered := make([]*Candidate, 0, len(candidates))
	reordered = append(reordered, candidates[best])
	reordered = append(reordered, candidates[:best]...)
	reordered = append(reordered, candidates[best+1:]...)
	return reordered
}

func absDrift(candidate *Candidate, song *entity.Song) int {
	drift := candidate.Duration - song.Duration
	if drift < 0 {
		drift = -drift
	}
	return drift
}

func (matcher *Matcher) selectManually(song *entity.Song, candidates []*Candidate) ([]*Candidate, error) {
	if matcher.Select == nil {
		return nil, fmt.Errorf("manual mode without a selection callback")
	}

	choice, err := matcher.Select(song, candidates)
	if err != nil {
		return nil, err
	}
	if choice <= 0 || choice > len(candidates) {
		// user chose to skip, not a crash
		return nil, fmt.Errorf("%s: %w", song, ErrNoCandidate)
	}

	reordered := make([]*Candidate, 0, len(candidates))
	reordered = append(reordered, candidates[choice-1])
	reordered = append(reordered, candidates[:choice-1]...)
	reordered = append(reordered, candidates[choice:]...)
	return reordered, nil
}
