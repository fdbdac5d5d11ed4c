package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zmb3/spotify/v2"
)

func fullTrack() *spotify.FullTrack {
	track := &spotify.FullTrack{}
	track.ID = "4uLU6hMCjMI75M1A2tKUQC"
	track.Name = "Never Gonna Give You Up"
	track.Artists = []spotify.SimpleArtist{{Name: "Rick Astley"}, {Name: "Some Guest"}}
	track.TrackNumber = 1
	track.DiscNumber = 1
	track.Duration = 213573
	track.Explicit = false
	track.ExternalURLs = map[string]string{"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"}
	track.ExternalIDs = map[string]string{"isrc": "GBARL8700325"}
	track.Album = spotify.SimpleAlbum{
		Name:        "Whenever You Need Somebody",
		ReleaseDate: "1987-11-16",
		TotalTracks: 10,
		Artists:     []spotify.SimpleArtist{{Name: "Rick Astley"}},
		Images:      []spotify.Image{{URL: "https://images/cover.jpg"}},
	}
	return track
}

func TestSongFromTrack(t *testing.T) {
	song := songFromTrack(fullTrack(), nil, nil)

	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", song.ID)
	assert.Equal(t, "Never Gonna Give You Up", song.Title)
	assert.Equal(t, []string{"Rick Astley", "Some Guest"}, song.Artists)
	assert.Equal(t, "Rick Astley", song.AlbumArtist)
	assert.Equal(t, 213, song.Duration)
	assert.Equal(t, 1987, song.Year)
	assert.Equal(t, "1987-11-16", song.Date)
	assert.Equal(t, 10, song.TracksCount)
	assert.Equal(t, "GBARL8700325", song.ISRC)
	assert.Equal(t, "https://images/cover.jpg", song.Artwork.URL)
}

func TestSongFromTrackAlbumEnrichment(t *testing.T) {
	album := &spotify.FullAlbum{
		Copyrights: []spotify.Copyright{
			{Text: "1987 RCA Records", Type: "P"},
			{Text: "(C) 1987 RCA Records", Type: "C"},
		},
		Genres: []string{"pop"},
	}
	album.Tracks.Total = 10
	album.Tracks.Tracks = []spotify.SimpleTrack{{DiscNumber: 1}, {DiscNumber: 2}}

	artist := &spotify.FullArtist{}
	artist.Genres = []string{"dance pop"}

	song := songFromTrack(fullTrack(), album, artist)
	assert.Equal(t, "1987 RCA Records", song.Publisher)
	assert.Equal(t, "(C) 1987 RCA Records", song.CopyrightText)
	assert.Equal(t, []string{"pop"}, song.Genres) // artist genres only fill a gap
	assert.Equal(t, 2, song.DiscCount)
}

func TestSongFromTrackArtistGenresFallback(t *testing.T) {
	artist := &spotify.FullArtist{}
	artist.Genres = []string{"dance pop"}

	song := songFromTrack(fullTrack(), &spotify.FullAlbum{}, artist)
	assert.Equal(t, []string{"dance pop"}, song.Genres)
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, 1987, releaseYear("1987-11-16"))
	assert.Equal(t, 2001, releaseYear("2001"))
	assert.Zero(t, releaseYear(""))
}
