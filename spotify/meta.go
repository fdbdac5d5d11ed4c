package spotify

import (
	"strconv"
	"strings"

	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/zmb3/spotify/v2"
)

// songFromTrack maps an upstream track to the canonical Song record.
// Album-level fields (genres, copyrights, track count) are only as
// complete as the given album; list expansions pass nil and keep the
// lighter embedded album data to avoid one album fetch per track.
func songFromTrack(track *spotify.FullTrack, album *spotify.FullAlbum, artist *spotify.FullArtist) *entity.Song {
	artists := make([]string, 0, len(track.Artists))
	for _, trackArtist := range track.Artists {
		artists = append(artists, trackArtist.Name)
	}

	song := &entity.Song{
		ID:          string(track.ID),
		URL:         track.ExternalURLs["spotify"],
		Title:       track.Name,
		Artists:     artists,
		AlbumName:   track.Album.Name,
		TrackNumber: int(track.TrackNumber),
		TracksCount: int(track.Album.TotalTracks),
		DiscNumber:  int(track.DiscNumber),
		DiscCount:   1,
		ISRC:        track.ExternalIDs["isrc"],
		Duration:    int(track.Duration) / 1000,
		Explicit:    track.Explicit,
		Date:        track.Album.ReleaseDate,
		Year:        releaseYear(track.Album.ReleaseDate),
	}
	if len(track.Album.Artists) > 0 {
		song.AlbumArtist = track.Album.Artists[0].Name
	}
	if len(track.Album.Images) > 0 {
		song.Artwork = entity.Artwork{URL: track.Album.Images[0].URL}
	}

	if album != nil {
		song.TracksCount = int(album.Tracks.Total)
		song.Genres = album.Genres
		for _, copyright := range album.Copyrights {
			switch copyright.Type {
			case "P":
				song.Publisher = copyright.Text
			case "C":
				song.CopyrightText = copyright.Text
			}
		}
		for _, albumTrack := range album.Tracks.Tracks {
			if disc := int(albumTrack.DiscNumber); disc > song.DiscCount {
				song.DiscCount = disc
			}
		}
	}
	if artist != nil && len(song.Genres) == 0 {
		song.Genres = artist.Genres
	}
	return song
}

func releaseYear(date string) int {
	year, _ := strconv.Atoi(strings.SplitN(date, "-", 2)[0])
	return year
}
