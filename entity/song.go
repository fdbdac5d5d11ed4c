package entity

import (
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spotDL/spotify-downloader-sub000/util"
)

const (
	ArtworkFormat = "jpg"
	LyricsFormat  = "txt"
	PartFormat    = "part"
)

type Artwork struct {
	URL  string
	Data []byte
}

// Song is the canonical record for one track, assembled by the
// resolver from upstream catalog data. DownloadURL and Lyrics are
// the only fields filled in later, respectively by the match engine
// and by the lyrics source.
type Song struct {
	ID            string
	URL           string
	Title         string
	Artists       []string
	AlbumName     string
	AlbumArtist   string
	Genres        []string
	Year          int
	Date          string
	TrackNumber   int
	TracksCount   int
	DiscNumber    int
	DiscCount     int
	ISRC          string
	Duration      int // in seconds
	Explicit      bool
	Publisher     string
	CopyrightText string
	Artwork       Artwork
	Lyrics        string
	DownloadURL   string // resolved locator on the audio provider
}

// Artist returns the primary artist.
func (song *Song) Artist() string {
	return util.First(song.Artists)
}

// certain track titles include the variant description,
// this function aims to strip out that part:
// > Title: Name - Acoustic
// > Song:  Name
func (song *Song) Song() (title string) {
	title = song.Title
	title = strings.Split(title+" - ", " - ")[0]
	title = strings.Split(title+" (", " (")[0]
	title = strings.Split(title+" [", " [")[0]
	return
}

func (song *Song) String() string {
	return fmt.Sprintf("%s - %s", song.Artist(), song.Title)
}

type SongPath struct {
	song *Song
}

func (song *Song) Path() SongPath {
	return SongPath{song}
}

// Part is the temporary download location, kept under the cache
// directory so a cancellation never leaves partial data at the
// final output path.
func (songPath SongPath) Part() string {
	return util.CacheFile(
		util.LegalizeFilename(fmt.Sprintf("%s.%s", slug.Make(songPath.song.ID), PartFormat)),
	)
}

// Work is the post-conversion location, still under the cache directory.
func (songPath SongPath) Work(format string) string {
	return util.CacheFile(
		util.LegalizeFilename(fmt.Sprintf("%s.%s", slug.Make(songPath.song.ID), format)),
	)
}

func (songPath SongPath) Artwork() string {
	return util.CacheFile(
		util.LegalizeFilename(fmt.Sprintf("%s.%s", slug.Make(path.Base(songPath.song.Artwork.URL)), ArtworkFormat)),
	)
}

func (songPath SongPath) Lyrics() string {
	return util.CacheFile(
		util.LegalizeFilename(fmt.Sprintf("%s.%s", slug.Make(songPath.song.ID), LyricsFormat)),
	)
}
