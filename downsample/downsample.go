// Package downsample implements the strategies that write level k+1's
// row-major pixel region from level k's, before either level is retiled.
// Both source and destination strides are each level's own
// PaddedRowBytes, not width*4 — callers must pass the full padded buffers,
// not a tightly-packed copy.
package downsample

import "github.com/nyzil/tilepyramid/tile"

// Strategy downsamples src (level k) into dst (level k+1) at 2x
// decimation in both axes. Implementations must not read beyond
// srcGeom's declared width/height, nor write beyond dstGeom's.
type Strategy interface {
	Downsample(dst []byte, dstGeom tile.Geometry, src []byte, srcGeom tile.Geometry)
}

// Kind selects a Strategy at build time (the `downsampler` configuration
// option).
type Kind int

const (
	Decimate Kind = iota
	HighQualityKind
)

// Select returns the Strategy for kind. HighQualityKind always resolves to
// a working implementation in this build (golang.org/x/image/draw is a
// compile-time dependency, not a runtime-optional plugin), but Select is
// the single seam a caller would change to fall back to Decimate if that
// ever stopped being true.
func Select(kind Kind) Strategy {
	switch kind {
	case HighQualityKind:
		return HighQuality{}
	default:
		return Decimator{}
	}
}
