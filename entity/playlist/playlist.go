// Package playlist writes M3U-style playlist files for resolved
// collections, one entry per song in resolution order.
package playlist

import (
	"fmt"
	"os"

	"github.com/spotDL/spotify-downloader-sub000/entity"
)

type Playlist struct {
	Name  string
	Songs []*entity.Song
}

func New(name string) *Playlist {
	return &Playlist{Name: name}
}

func (playlist *Playlist) Add(song *entity.Song) {
	playlist.Songs = append(playlist.Songs, song)
}

// Encode writes the playlist at the given path, referencing each
// song through the supplied locator function (usually its rendered
// output path).
func (playlist *Playlist) Encode(path string, locator func(*entity.Song) string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, "#EXTM3U"); err != nil {
		return err
	}
	for _, song := range playlist.Songs {
		if _, err := fmt.Fprintf(file, "#EXTINF:%d,%s\n%s\n", song.Duration, song.String(), locator(song)); err != nil {
			return err
		}
	}
	return nil
}
