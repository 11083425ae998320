package pyramid

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/nyzil/tilepyramid/decoder"
	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
)

// NewFromImage builds a pyramid from pixels already decoded in memory. Src
// must be non-premultiplied RGBA (an *image.NRGBA, or anything
// draw-convertible to one); this is the path a caller uses when it already
// owns decoded pixels and has no need for the decoder package at all.
func NewFromImage(src image.Image, opts ...Option) (*Pyramid, error) {
	p := newPyramid(opts...)
	nrgba := toNRGBA(src)
	width, height := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	if err := p.buildWholeImage(width, height, func(dst []byte, geom tile.Geometry) error {
		for y := 0; y < height; y++ {
			row := dst[geom.ScratchBytes+geom.RowMajorOffset(y):]
			srcOff := nrgba.PixOffset(nrgba.Bounds().Min.X, nrgba.Bounds().Min.Y+y)
			copy(row[:width*tile.BytesPerPixel], nrgba.Pix[srcOff:srcOff+width*4])
		}
		return nil
	}); err != nil {
		return nil, p.fail(err)
	}
	return p, nil
}

// NewFromPath decodes the file at path in one shot (via the configured
// OneShot decoder kind) and builds every level from the result.
func NewFromPath(path string, opts ...Option) (*Pyramid, error) {
	p := newPyramid(opts...)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, p.fail(newError(IoError, "pyramid.NewFromPath", err))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, p.fail(newError(DecoderError, "pyramid.NewFromPath", err))
	}
	width, height := cfg.Width, cfg.Height

	oneShot := decoder.NewOneShot(p.decoderKind)
	if err := p.buildWholeImage(width, height, func(dst []byte, geom tile.Geometry) error {
		return oneShot.Decode(raw, dst[geom.ScratchBytes:], geom.PaddedRowBytes, width, height)
	}); err != nil {
		return nil, p.fail(err)
	}
	return p, nil
}

// buildWholeImage runs the full-decode-then-per-level-downsample-then-
// retile pipeline: fill writes level 0's row-major pixels into
// dst[geom.ScratchBytes : geom.ScratchBytes+geom.Height*geom.PaddedRowBytes],
// after which every coarser level is derived by downsampling row-major
// data (before any level is retiled), and only then is every level
// retiled and truncated.
func (p *Pyramid) buildWholeImage(width, height int, fill func(dst []byte, geom tile.Geometry) error) error {
	if width <= 0 || height <= 0 {
		return newError(OutOfRange, "pyramid.buildWholeImage", fmt.Errorf("invalid dimensions %dx%d", width, height))
	}

	type mapped struct {
		level *mapper.Level
		win   *mapper.Window
	}
	var built []mapped
	defer func() {
		for _, m := range built {
			m.win.Release()
		}
	}()

	p.flush.Wait()
	geom := tile.NewGeometry(0, width, height)
	level, err := p.mapper.CreateLevel(0, width, height)
	if err != nil {
		return newError(IoError, "pyramid.buildWholeImage", err)
	}
	win, err := level.MapWhole(mapper.ReadWrite)
	if err != nil {
		return newError(IoError, "pyramid.buildWholeImage", err)
	}
	built = append(built, mapped{level, win})

	if err := fill(win.Bytes, geom); err != nil {
		return newError(DecoderError, "pyramid.buildWholeImage", err)
	}

	for p.levelCap <= 0 || len(built) < p.levelCap {
		next := geom.Halved()
		if next.Empty() {
			break
		}
		p.flush.Wait()
		nextLevel, err := p.mapper.CreateLevel(next.Level, next.Width, next.Height)
		if err != nil {
			return newError(IoError, "pyramid.buildWholeImage", err)
		}
		nextWin, err := nextLevel.MapWhole(mapper.ReadWrite)
		if err != nil {
			return newError(IoError, "pyramid.buildWholeImage", err)
		}
		built = append(built, mapped{nextLevel, nextWin})

		prevWin := built[len(built)-2].win
		p.strat.Downsample(
			nextWin.Bytes[next.ScratchBytes:], next,
			prevWin.Bytes[geom.ScratchBytes:], geom,
		)

		geom = next
	}

	p.mu.Lock()
	for _, m := range built {
		p.levels = append(p.levels, m.level)
	}
	p.mu.Unlock()

	for _, m := range built {
		p.builder.BuildWholeFile(m.win.Bytes, m.level.Geometry)
	}
	for _, m := range built {
		if err := m.win.Release(); err != nil {
			return newError(IoError, "pyramid.buildWholeImage", err)
		}
	}
	built = built[:0]
	for _, l := range p.levels {
		if err := l.TruncateScratch(); err != nil {
			return newError(IoError, "pyramid.buildWholeImage", err)
		}
		size, err := l.Size()
		if err != nil {
			return newError(IoError, "pyramid.buildWholeImage", err)
		}
		p.flush.Schedule(size, l.Fsync)
	}
	return nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetNRGBA(x, y, color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA))
		}
	}
	return out
}
