package downsample

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/nyzil/tilepyramid/tile"
)

// HighQuality delegates to an external resampler — golang.org/x/image/draw's
// Catmull-Rom scaler by default — instead of nearest-neighbor decimation.
// It satisfies the same contract as Decimator: same destination geometry,
// same pixel format, never reads beyond the declared source/destination
// extents. Select always returns HighQuality for HighQualityKind; there is
// no runtime fallback to Decimate.
type HighQuality struct {
	// Scaler overrides the resampling kernel; nil uses xdraw.CatmullRom.
	Scaler xdraw.Scaler
}

func (h HighQuality) scaler() xdraw.Scaler {
	if h.Scaler != nil {
		return h.Scaler
	}
	return xdraw.CatmullRom
}

func (h HighQuality) Downsample(dst []byte, dstGeom tile.Geometry, src []byte, srcGeom tile.Geometry) {
	srcImg := &rowMajorImage{pix: src, stride: int(srcGeom.PaddedRowBytes), w: srcGeom.Width, h: srcGeom.Height}
	dstImg := &rowMajorImage{pix: dst, stride: int(dstGeom.PaddedRowBytes), w: dstGeom.Width, h: dstGeom.Height}
	h.scaler().Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
}

// rowMajorImage adapts a padded row-major pixel buffer to image.Image /
// draw.Image so golang.org/x/image/draw's scalers can operate on it
// in place, without a copy into a stdlib image.RGBA. Non-premultiplied
// (NRGBA) color model: the pyramid's alpha channel is carried but never
// interpreted, so premultiplied blending semantics would be wrong here.
type rowMajorImage struct {
	pix    []byte
	stride int
	w, h   int
}

func (m *rowMajorImage) ColorModel() color.Model { return color.NRGBAModel }
func (m *rowMajorImage) Bounds() image.Rectangle { return image.Rect(0, 0, m.w, m.h) }

func (m *rowMajorImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return color.NRGBA{}
	}
	o := y*m.stride + x*tile.BytesPerPixel
	p := m.pix[o : o+tile.BytesPerPixel]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func (m *rowMajorImage) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	o := y*m.stride + x*tile.BytesPerPixel
	p := m.pix[o : o+tile.BytesPerPixel]
	p[0], p[1], p[2], p[3] = nc.R, nc.G, nc.B, nc.A
}
