package processor

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedImage(t *testing.T, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, jpeg.Encode(&buffer, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buffer.Bytes()
}

func TestProcessKeepsSmallArtwork(t *testing.T) {
	processed, err := Artwork{}.Process(encodedImage(t, 640, 640))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(processed))
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
}

func TestProcessDownscalesLargeArtwork(t *testing.T) {
	processed, err := Artwork{}.Process(encodedImage(t, 1280, 960))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(processed))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 800)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), 800)
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Artwork{}.Process([]byte("not an image"))
	assert.Error(t, err)
}
