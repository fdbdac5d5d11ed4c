package spotify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
)

type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
	KindArtist   Kind = "artist"
)

// ParseReference extracts kind and catalog id from any of the
// supported reference forms:
//
//	https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=...
//	https://open.spotify.com/intl-it/album/6QaVfG1pHYl1z15ZxkvVDW
//	spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
//	4uLU6hMCjMI75M1A2tKUQC (bare id, kind defaults to track)
func ParseReference(reference string) (Kind, spotify.ID, error) {
	if id, found := strings.CutPrefix(reference, "spotify:"); found {
		parts := strings.Split(id, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("unsupported reference %q", reference)
		}
		return kindOf(parts[0], parts[1])
	}

	if strings.Contains(reference, "open.spotify.com") {
		parsed, err := url.Parse(reference)
		if err != nil {
			return "", "", err
		}
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		// intl-prefixed paths carry an extra leading segment
		if len(segments) > 2 && strings.HasPrefix(segments[0], "intl-") {
			segments = segments[1:]
		}
		if len(segments) != 2 {
			return "", "", fmt.Errorf("unsupported reference %q", reference)
		}
		return kindOf(segments[0], segments[1])
	}

	if !strings.Contains(reference, "/") && !strings.Contains(reference, " ") && reference != "" {
		return KindTrack, spotify.ID(reference), nil
	}
	return "", "", fmt.Errorf("unsupported reference %q", reference)
}

func kindOf(kind, id string) (Kind, spotify.ID, error) {
	switch Kind(kind) {
	case KindTrack, KindAlbum, KindPlaylist, KindArtist:
		return Kind(kind), spotify.ID(id), nil
	}
	return "", "", fmt.Errorf("unsupported reference kind %q", kind)
}
