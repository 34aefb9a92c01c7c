package basicpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptySignature
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// resizeImage resamples img to the given pixel size and encodes it as PNG, alpha kept.
func resizeImage(img image.Image, width, height float64) ([]byte, error) {
	w := int(math.Round(width))
	h := int(math.Round(height))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid target image size %dx%d", w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// hasVisiblePixel reports whether at least one pixel is not fully transparent.
// A blank drawing pad exports as a fully transparent PNG.
func hasVisiblePixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
