// Package id3 wraps bogem/id3v2 tags with the typed frames this
// project reads and writes on MP3 output.
package id3

import (
	"strconv"

	"github.com/bogem/id3v2/v2"
)

const (
	frameSongID    = "SPOTDL_ID"
	frameOriginURL = "SPOTDL_ORIGIN"
)

type Tag struct {
	*id3v2.Tag
}

func Open(path string, options id3v2.Options) (*Tag, error) {
	tag, err := id3v2.Open(path, options)
	if err != nil {
		return nil, err
	}
	return &Tag{tag}, nil
}

func (tag *Tag) userDefinedText(description string) string {
	for _, framer := range tag.GetFrames(tag.CommonID("User defined text information frame")) {
		if frame, ok := framer.(id3v2.UserDefinedTextFrame); ok && frame.Description == description {
			return frame.Value
		}
	}
	return ""
}

func (tag *Tag) setUserDefinedText(description, value string) {
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: description,
		Value:       value,
	})
}

// SongID returns the catalog id a previous run embedded, if any.
func (tag *Tag) SongID() string {
	return tag.userDefinedText(frameSongID)
}

func (tag *Tag) SetSongID(id string) {
	tag.setUserDefinedText(frameSongID, id)
}

func (tag *Tag) SetOriginURL(url string) {
	tag.setUserDefinedText(frameOriginURL, url)
}

func (tag *Tag) SetAlbumArtist(artist string) {
	tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), id3v2.EncodingUTF8, artist)
}

func (tag *Tag) SetTrackNumber(number, count int) {
	value := strconv.Itoa(number)
	if count > 0 {
		value += "/" + strconv.Itoa(count)
	}
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, value)
}

func (tag *Tag) SetDiscNumber(number, count int) {
	value := strconv.Itoa(number)
	if count > 0 {
		value += "/" + strconv.Itoa(count)
	}
	tag.AddTextFrame(tag.CommonID("Part of a set"), id3v2.EncodingUTF8, value)
}

func (tag *Tag) SetDate(date string) {
	tag.AddTextFrame(tag.CommonID("Recording time"), id3v2.EncodingUTF8, date)
}

func (tag *Tag) SetISRC(isrc string) {
	tag.AddTextFrame(tag.CommonID("ISRC"), id3v2.EncodingUTF8, isrc)
}

func (tag *Tag) SetPublisher(publisher string) {
	tag.AddTextFrame(tag.CommonID("Publisher"), id3v2.EncodingUTF8, publisher)
}

func (tag *Tag) SetCopyright(text string) {
	tag.AddTextFrame(tag.CommonID("Copyright message"), id3v2.EncodingUTF8, text)
}

func (tag *Tag) SetDuration(seconds int) {
	tag.AddTextFrame(tag.CommonID("Length"), id3v2.EncodingUTF8, strconv.Itoa(seconds*1000))
}

func (tag *Tag) SetArtwork(data []byte) {
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     data,
	})
}

func (tag *Tag) SetLyrics(title, lyrics string) {
	tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          "eng",
		ContentDescriptor: title,
		Lyrics:            lyrics,
	})
}
