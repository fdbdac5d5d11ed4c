// Package processor is the tag-embedding boundary: given a finished
// audio file and its Song record it writes the standardized metadata
// frames, cover art included.
package processor

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/entity/id3"
)

// Do embeds the song's metadata into the MP3 file at the given path.
func Do(song *entity.Song, path string) error {
	tag, err := id3.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetTitle(song.Title)
	tag.SetArtist(song.Artist())
	tag.SetAlbum(song.AlbumName)
	tag.SetAlbumArtist(song.AlbumArtist)
	tag.SetTrackNumber(song.TrackNumber, song.TracksCount)
	tag.SetDiscNumber(song.DiscNumber, song.DiscCount)
	tag.SetYear(fmt.Sprintf("%d", song.Year))
	tag.SetDate(song.Date)
	if len(song.Genres) > 0 {
		tag.SetGenre(song.Genres[0])
	}
	tag.SetISRC(song.ISRC)
	tag.SetDuration(song.Duration)
	if song.Publisher != "" {
		tag.SetPublisher(song.Publisher)
	}
	if song.CopyrightText != "" {
		tag.SetCopyright(song.CopyrightText)
	}
	tag.SetSongID(song.ID)
	tag.SetOriginURL(song.DownloadURL)

	if len(song.Artwork.Data) > 0 {
		artwork, err := Artwork{}.Process(song.Artwork.Data)
		if err != nil {
			return fmt.Errorf("artwork for %s: %w", song, err)
		}
		tag.SetArtwork(artwork)
	}
	if song.Lyrics != "" {
		tag.SetLyrics(song.Title, song.Lyrics)
	}

	return tag.Save()
}
