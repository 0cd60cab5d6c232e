package metadata

import (
	"fmt"
	"image"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"github.com/bbrks/go-blurhash"
)

// Blurhash components. Higher values give more detail and a longer string.
const (
	BlurhashXComponents = 4
	BlurhashYComponents = 3
)

// blurhashMaxSide bounds the image that is hashed; the placeholder does
// not need more detail.
const blurhashMaxSide = 64

// BlurhashFromFile generates a grid placeholder from an image file.
func BlurhashFromFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := blurhash.Encode(BlurhashXComponents, BlurhashYComponents, downsample(img, blurhashMaxSide))
	if err != nil {
		return "", fmt.Errorf("failed to encode blurhash: %w", err)
	}

	return hash, nil
}

// downsample box-filters img so that its longest side is at most maxSide.
// Smaller images are returned as is.
func downsample(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}

	scale := float64(maxSide) / float64(max(w, h))
	return transform.Resize(img, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale)), transform.Box)
}
