package spotify

import (
	"context"
	"fmt"

	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/zmb3/spotify/v2"
)

// Track resolves a single track reference to its fully enriched
// canonical Song, including album copyrights and artist genres.
func (client *Client) Track(ctx context.Context, reference string) (*entity.Song, error) {
	kind, id, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}
	if kind != KindTrack {
		return nil, fmt.Errorf("reference %q is a %s, not a track", reference, kind)
	}
	return client.track(ctx, id)
}

func (client *Client) track(ctx context.Context, id spotify.ID) (*entity.Song, error) {
	var track *spotify.FullTrack
	if err := client.request(ctx, "track "+string(id), func() (err error) {
		track, err = client.client.GetTrack(ctx, id)
		return
	}); err != nil {
		return nil, err
	}

	var album *spotify.FullAlbum
	if err := client.request(ctx, "album "+string(track.Album.ID), func() (err error) {
		album, err = client.client.GetAlbum(ctx, track.Album.ID)
		return
	}); err != nil {
		return nil, err
	}

	var artist *spotify.FullArtist
	if len(track.Artists) > 0 {
		if err := client.request(ctx, "artist "+string(track.Artists[0].ID), func() (err error) {
			artist, err = client.client.GetArtist(ctx, track.Artists[0].ID)
			return
		}); err != nil {
			return nil, err
		}
	}

	return songFromTrack(track, album, artist), nil
}

// Search resolves a free-text term to its best-matching Song.
func (client *Client) Search(ctx context.Context, term string) (*entity.Song, error) {
	songs, err := client.SearchMany(ctx, term, 1)
	if err != nil {
		return nil, err
	}
	return songs[0], nil
}

// SearchMany resolves a free-text term to up to limit Songs, in the
// upstream's own relevance order.
func (client *Client) SearchMany(ctx context.Context, term string, limit int) ([]*entity.Song, error) {
	if limit <= 0 {
		limit = 10
	}

	var result *spotify.SearchResult
	if err := client.request(ctx, "search "+term, func() (err error) {
		result, err = client.client.Search(ctx, term, spotify.SearchTypeTrack, spotify.Limit(limit))
		return
	}); err != nil {
		return nil, err
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, fmt.Errorf("search %q: %w", term, ErrNoMatch)
	}

	songs := make([]*entity.Song, 0, len(result.Tracks.Tracks))
	for index := range result.Tracks.Tracks {
		songs = append(songs, songFromTrack(&result.Tracks.Tracks[index], nil, nil))
	}
	return songs, nil
}
