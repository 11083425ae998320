package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// ScanlineDecoder is the Streaming adapter for codecs that only expose a
// one-shot interface under the hood (this build's stand-in for a real
// incremental scanline decoder): it buffers every fed byte and attempts a
// full decode on each HeaderReady/PullScanlines call, so the streaming
// pipeline above it never has to special-case "the codec decoded
// everything in one go". Once a decode succeeds, scanlines are handed out
// one PullScanlines call at a time exactly as a true incremental decoder
// would.
type ScanlineDecoder struct {
	buf     bytes.Buffer
	img     image.Image
	width   int
	height  int
	nextRow int

	finished   bool
	decodeErr  error
}

func NewScanlineDecoder() *ScanlineDecoder {
	return &ScanlineDecoder{}
}

func (d *ScanlineDecoder) Feed(input []byte) (Progress, error) {
	if d.finished {
		return Done, nil
	}
	d.buf.Write(input)
	before := d.img
	d.tryDecode()
	if d.img != nil && before == nil {
		return Progressed, nil
	}
	return NeedMore, nil
}

func (d *ScanlineDecoder) tryDecode() {
	if d.img != nil || d.decodeErr != nil {
		return
	}
	img, _, err := image.Decode(bytes.NewReader(d.buf.Bytes()))
	if err != nil {
		if d.finished {
			d.decodeErr = err
		}
		return
	}
	d.img = img
	b := img.Bounds()
	d.width, d.height = b.Dx(), b.Dy()
}

func (d *ScanlineDecoder) HeaderReady() bool {
	d.tryDecode()
	return d.img != nil
}

func (d *ScanlineDecoder) Header() (width, height, components int) {
	return d.width, d.height, 4
}

func (d *ScanlineDecoder) PullScanlines(dst [][]byte, max int) (int, error) {
	d.tryDecode()
	if d.decodeErr != nil {
		return 0, fmt.Errorf("decoder: %w: %v", ErrDecode, d.decodeErr)
	}
	if d.img == nil {
		return 0, nil
	}
	b := d.img.Bounds()
	n := 0
	for n < max && n < len(dst) && d.nextRow < d.height {
		y := b.Min.Y + d.nextRow
		for x := 0; x < d.width; x++ {
			c := color.NRGBAModel.Convert(d.img.At(b.Min.X+x, y)).(color.NRGBA)
			o := x * 4
			dst[n][o], dst[n][o+1], dst[n][o+2], dst[n][o+3] = c.R, c.G, c.B, c.A
		}
		d.nextRow++
		n++
	}
	return n, nil
}

func (d *ScanlineDecoder) Finish() error {
	d.finished = true
	d.tryDecode()
	if d.img == nil {
		d.decodeErr = fmt.Errorf("truncated or invalid stream")
	}
	if d.decodeErr != nil {
		return fmt.Errorf("decoder: %w: %v", ErrDecode, d.decodeErr)
	}
	return nil
}

func (d *ScanlineDecoder) Done() bool {
	return d.img != nil && d.nextRow >= d.height
}
