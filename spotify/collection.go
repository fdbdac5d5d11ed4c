package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/zmb3/spotify/v2"
)

// Expand flattens any supported reference to its list of Songs. For
// playlists and albums the collection name is returned too, so the
// caller can emit a playlist file named after it.
func (client *Client) Expand(ctx context.Context, reference string) ([]*entity.Song, string, error) {
	kind, id, err := ParseReference(reference)
	if err != nil {
		return nil, "", err
	}

	switch kind {
	case KindTrack:
		song, err := client.track(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return []*entity.Song{song}, "", nil
	case KindPlaylist:
		return client.Playlist(ctx, id)
	case KindAlbum:
		songs, err := client.Album(ctx, id)
		return songs, "", err
	case KindArtist:
		songs, err := client.Artist(ctx, id)
		return songs, "", err
	}
	return nil, "", fmt.Errorf("unsupported reference kind %q", kind)
}

// Playlist resolves every track of the given playlist, transparently
// following pagination. Episodes and local files are skipped.
func (client *Client) Playlist(ctx context.Context, id spotify.ID) ([]*entity.Song, string, error) {
	var playlist *spotify.FullPlaylist
	if err := client.request(ctx, "playlist "+string(id), func() (err error) {
		playlist, err = client.client.GetPlaylist(ctx, id)
		return
	}); err != nil {
		return nil, "", err
	}

	var (
		songs = []*entity.Song{}
		page  = &playlist.Tracks
	)
	for {
		for index := range page.Tracks {
			track := page.Tracks[index].Track
			if track.ID == "" || track.IsPlayable != nil && !*track.IsPlayable {
				continue
			}
			songs = append(songs, songFromTrack(&track, nil, nil))
		}

		if err := client.request(ctx, "playlist "+string(id), func() error {
			return client.client.NextPage(ctx, page)
		}); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				return songs, playlist.Name, nil
			}
			return nil, "", err
		}
	}
}

// Album resolves every track of the given album.
func (client *Client) Album(ctx context.Context, id spotify.ID) ([]*entity.Song, error) {
	var album *spotify.FullAlbum
	if err := client.request(ctx, "album "+string(id), func() (err error) {
		album, err = client.client.GetAlbum(ctx, id)
		return
	}); err != nil {
		return nil, err
	}

	var (
		songs = []*entity.Song{}
		page  = &album.Tracks
	)
	for {
		for index := range page.Tracks {
			track := &spotify.FullTrack{SimpleTrack: page.Tracks[index]}
			track.Album = album.SimpleAlbum
			songs = append(songs, songFromTrack(track, album, nil))
		}

		if err := client.request(ctx, "album "+string(id), func() error {
			return client.client.NextPage(ctx, page)
		}); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				return songs, nil
			}
			return nil, err
		}
	}
}

// Artist expands an artist to all tracks across all of its albums.
// The same song often reappears on different regional releases under
// a different catalog id, so duplicates are dropped by normalized
// artist-title key rather than by id.
func (client *Client) Artist(ctx context.Context, id spotify.ID) ([]*entity.Song, error) {
	var albums *spotify.SimpleAlbumPage
	if err := client.request(ctx, "artist "+string(id), func() (err error) {
		albums, err = client.client.GetArtistAlbums(ctx, id, []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle})
		return
	}); err != nil {
		return nil, err
	}

	var (
		songs = []*entity.Song{}
		seen  = map[string]bool{}
	)
	for {
		for _, album := range albums.Albums {
			albumSongs, err := client.Album(ctx, album.ID)
			if err != nil {
				return nil, err
			}
			for _, song := range albumSongs {
				key := slug.Make(song.Artist() + " " + song.Title)
				if seen[key] {
					continue
				}
				seen[key] = true
				songs = append(songs, song)
			}
		}

		if err := client.request(ctx, "artist "+string(id), func() error {
			return client.client.NextPage(ctx, albums)
		}); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				return songs, nil
			}
			return nil, err
		}
	}
}
