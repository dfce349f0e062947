package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeDataURIScalesDownWideImages(t *testing.T) {
	uri, err := EncodeDataURI(encodePNG(t, 2400, 600))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	img, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, MaxWidth, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestEncodeDataURINeverUpscales(t *testing.T) {
	uri, err := EncodeDataURI(encodePNG(t, 64, 48))
	require.NoError(t, err)

	img, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestEncodeDataURIRejectsOversizedSources(t *testing.T) {
	_, err := EncodeDataURI(make([]byte, MaxSourceBytes+1))
	assert.Error(t, err)
}

func TestEncodeDataURIRejectsGarbage(t *testing.T) {
	_, err := EncodeDataURI([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestDecodeDataURIRejectsForeignSchemes(t *testing.T) {
	_, err := DecodeDataURI("data:image/png;base64,AAAA")
	assert.Error(t, err)
}
