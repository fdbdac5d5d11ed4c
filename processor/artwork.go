package processor

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// artworkMaxSize bounds the embedded cover's edge: players choke on
// the multi-megabyte originals some catalogs serve.
const artworkMaxSize = 800

type Artwork struct{}

// Process re-encodes the cover as JPEG, downscaling
// when it exceeds the embedded-art bound.
func (Artwork) Process(data []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := decoded.Bounds()
	if bounds.Dx() > artworkMaxSize || bounds.Dy() > artworkMaxSize {
		decoded = resize.Thumbnail(artworkMaxSize, artworkMaxSize, decoded, resize.Lanczos3)
	}

	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, decoded, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
