package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spotDL/spotify-downloader-sub000/util"
)

// DefaultPathTemplate names output files the way the stock
// configuration does: primary artist, then full title.
const DefaultPathTemplate = "{artist} - {title}.{output-ext}"

// RenderPath resolves the named placeholders of the given template
// against the song and returns a filesystem-safe relative path.
// Slashes inside the template separate directories; slashes inside
// resolved values are sanitized away so a song can never escape its
// directory. Track and disc numbers are zero-padded to the width of
// the collection they belong to.
func (song *Song) RenderPath(template, outputExt string) string {
	if template == "" {
		template = DefaultPathTemplate
	}

	replacements := map[string]string{
		"{artist}":       song.Artist(),
		"{artists}":      strings.Join(song.Artists, ", "),
		"{title}":        song.Title,
		"{album}":        song.AlbumName,
		"{album-artist}": util.Fallback(song.AlbumArtist, song.Artist()),
		"{track-number}": padded(song.TrackNumber, song.TracksCount),
		"{disc-number}":  padded(song.DiscNumber, song.DiscCount),
		"{year}":         strconv.Itoa(song.Year),
		"{genre}":        util.First(song.Genres),
		"{isrc}":         song.ISRC,
		"{song-id}":      song.ID,
		"{output-ext}":   outputExt,
	}

	segments := strings.Split(template, "/")
	for index, segment := range segments {
		for placeholder, value := range replacements {
			segment = strings.ReplaceAll(segment, placeholder, util.LegalizeFilename(value))
		}
		segments[index] = strings.TrimSpace(segment)
	}
	return strings.Join(segments, "/")
}

func padded(number, count int) string {
	width := len(strconv.Itoa(count))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%0*d", width, number)
}
