// Package testimage generates synthetic fixtures for tests: no reference
// codec archive ships with this module, so gradients and solid fills are
// built procedurally instead of loaded from testdata.
package testimage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Gradient returns an NRGBA image where R encodes the column (mod 256)
// and G encodes the row (mod 256); B is 0, A is fully opaque. Deterministic
// pixel math makes pyramid round-trips easy to assert on.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: byte(x % 256), G: byte(y % 256), B: 0, A: 255})
		}
	}
	return img
}

// Solid returns a uniformly-colored NRGBA image.
func Solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// EncodePNG encodes img as a PNG byte slice, the format used everywhere in
// this module's tests as the "compressed bytes" a decoder is fed.
func EncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err) // synthetic fixtures are always well-formed
	}
	return buf.Bytes()
}

// RowBytes extracts row y of img as packed non-premultiplied R,G,B,A bytes,
// the same layout the pyramid CORE stores tiles in.
func RowBytes(img *image.NRGBA, y int) []byte {
	width := img.Bounds().Dx()
	out := make([]byte, width*4)
	start := img.PixOffset(img.Bounds().Min.X, y)
	copy(out, img.Pix[start:start+width*4])
	return out
}
