package downsample

import "github.com/nyzil/tilepyramid/tile"

// Decimator is the default Strategy: dst[r][c] = src[2r][2c], no
// filtering. Fast, not accurate — the spec's stated trade-off.
type Decimator struct{}

func (Decimator) Downsample(dst []byte, dstGeom tile.Geometry, src []byte, srcGeom tile.Geometry) {
	for r := 0; r < dstGeom.Height; r++ {
		srcRow := src[int64(2*r)*srcGeom.PaddedRowBytes:]
		dstRow := dst[int64(r)*dstGeom.PaddedRowBytes:]
		for c := 0; c < dstGeom.Width; c++ {
			so := 2 * c * tile.BytesPerPixel
			do := c * tile.BytesPerPixel
			copy(dstRow[do:do+tile.BytesPerPixel], srcRow[so:so+tile.BytesPerPixel])
		}
	}
}

// DecimateRow downsamples a single already-written source scanline into
// one destination scanline, for the streaming pipeline's "opportunistic
// downsample" step (§4.5 step 2), which never has more than one source
// scanline mapped at a time.
func DecimateRow(dstRow []byte, srcRow []byte, dstWidth int) {
	for c := 0; c < dstWidth; c++ {
		so := 2 * c * tile.BytesPerPixel
		do := c * tile.BytesPerPixel
		copy(dstRow[do:do+tile.BytesPerPixel], srcRow[so:so+tile.BytesPerPixel])
	}
}
