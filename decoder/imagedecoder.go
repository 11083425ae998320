package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
)

// StdlibOneShot decodes with Go's registered image formats and copies
// PixelFormat pixels into the caller's buffer at dstRowBytes stride. It
// stands in for the real platform one-shot codecs (CoreGraphics-style
// decode-to-buffer, a turbo JPEG decoder), which are out-of-scope
// collaborators: the CORE never requires a specific codec, only this
// contract.
type StdlibOneShot struct {
	kind Kind
}

// NewOneShot returns the stand-in OneShot decoder for the named kind.
// CgStyleOneShot and OneShotTurbo both decode through the stdlib image
// package here; the Kind is retained only for logging/diagnostics, since
// real deployments would route it to distinct platform codecs instead.
func NewOneShot(kind Kind) *StdlibOneShot {
	return &StdlibOneShot{kind: kind}
}

func (d *StdlibOneShot) Decode(input []byte, dst []byte, dstRowBytes int64, width, height int) error {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("decoder: %s: %w: %v", d.kind, ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("decoder: %s: %w: decoded %dx%d, expected %dx%d", d.kind, ErrDecode, b.Dx(), b.Dy(), width, height)
	}
	for y := 0; y < height; y++ {
		row := dst[int64(y)*dstRowBytes:]
		writeRowNRGBA(row, img, b.Min.Y+y, b.Min.X, width)
	}
	return nil
}

// writeRowNRGBA fills row[0:width*4] with non-premultiplied R,G,B,A bytes
// sampled from img's scanline y, starting at source column minX.
func writeRowNRGBA(row []byte, img image.Image, y, minX, width int) {
	if nrgba, ok := img.(*image.NRGBA); ok {
		copy(row, nrgba.Pix[nrgba.PixOffset(minX, y):nrgba.PixOffset(minX+width, y)])
		return
	}
	for x := 0; x < width; x++ {
		c := color.NRGBAModel.Convert(img.At(minX+x, y)).(color.NRGBA)
		o := x * 4
		row[o], row[o+1], row[o+2], row[o+3] = c.R, c.G, c.B, c.A
	}
}
