package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"

	// register decoders for the formats clients upload
	_ "image/gif"
	_ "image/png"
)

// Images are not uploaded to object storage; they are inlined as base64
// data URIs inside tree records after resize/compress. These caps bound the
// resulting record size.
const (
	MaxSourceBytes = 5 << 20 // pre-resize source file cap
	MaxWidth       = 1200
	JPEGQuality    = 80
)

const dataURIPrefix = "data:image/jpeg;base64,"

// EncodeDataURI decodes src, scales it down to at most MaxWidth wide
// (preserving aspect ratio, never upscaling), re-encodes as JPEG at
// JPEGQuality and returns the result as a data URI.
func EncodeDataURI(src []byte) (string, error) {
	if len(src) > MaxSourceBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", MaxSourceBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth {
		h := bounds.Dy() * MaxWidth / bounds.Dx()
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxWidth, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI decodes a data URI produced by EncodeDataURI back into an
// image.
func DecodeDataURI(uri string) (image.Image, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, fmt.Errorf("not a jpeg data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode jpeg payload: %w", err)
	}
	return img, nil
}
