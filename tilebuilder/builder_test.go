package tilebuilder_test

import (
	"testing"

	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
	"github.com/nyzil/tilepyramid/tilebuilder"
	"github.com/stretchr/testify/require"
)

// writeGradient fills the row-major region of a whole-file mapped buffer
// with R=x%256, G=0, B=0, A=255, matching the concrete scenario in §8.
func writeGradient(buf []byte, geom tile.Geometry) {
	base := geom.ScratchBytes
	for y := 0; y < geom.Height; y++ {
		row := buf[base+int64(y)*geom.PaddedRowBytes:]
		for x := 0; x < geom.Width; x++ {
			o := x * tile.BytesPerPixel
			row[o], row[o+1], row[o+2], row[o+3] = byte(x%256), 0, 0, 255
		}
	}
}

func TestBuildWholeFilePixelMapping(t *testing.T) {
	geom := tile.NewGeometry(0, 300, 200)
	buf := make([]byte, geom.MappedSize)
	writeGradient(buf, geom)

	tilebuilder.New().BuildWholeFile(buf, geom)

	for r := 0; r < geom.Rows; r++ {
		for c := 0; c < geom.Cols; c++ {
			for i := 0; i < tile.Size; i++ {
				for j := 0; j < tile.Size; j++ {
					srcX := c*tile.Size + j
					srcY := r*tile.Size + i
					if srcX >= geom.Width || srcY >= geom.Height {
						continue // padding pixel, unspecified
					}
					dstOff := geom.TileOffset(r, c) + int64(i)*tile.RowBytes + int64(j)*tile.BytesPerPixel
					want := byte(srcX % 256)
					if got := buf[dstOff]; got != want {
						t.Fatalf("tile(%d,%d) pixel(%d,%d) R = %d, want %d (source pixel %d,%d)", r, c, j, i, got, want, srcX, srcY)
					}
					if buf[dstOff+2] != 0 || buf[dstOff+3] != 255 {
						t.Fatalf("tile(%d,%d) pixel(%d,%d) B/A = %d/%d, want 0/255", r, c, j, i, buf[dstOff+2], buf[dstOff+3])
					}
				}
			}
		}
	}
}

func TestBuildRowIdempotent(t *testing.T) {
	geom := tile.NewGeometry(0, 512, 512)
	buf := make([]byte, geom.MappedSize)
	writeGradient(buf, geom)

	cb := geom.ScratchBytes
	dstBase, srcBase := int64(0), cb

	first := make([]byte, cb)
	copy(first, buf[dstBase:dstBase+cb])
	tilebuilder.BuildRow(first, buf[srcBase:srcBase+cb], geom)

	second := make([]byte, cb)
	copy(second, buf[dstBase:dstBase+cb])
	tilebuilder.BuildRow(second, buf[srcBase:srcBase+cb], geom)

	require.Equal(t, first, second)
}

func TestBuildStreamingRowMatchesWholeFile(t *testing.T) {
	geom := tile.NewGeometry(0, 600, 600)

	whole := make([]byte, geom.MappedSize)
	writeGradient(whole, geom)
	tilebuilder.New().BuildWholeFile(whole, geom)

	m := mapper.New()
	defer m.Close()
	level, err := m.CreateLevel(0, geom.Width, geom.Height)
	require.NoError(t, err)

	w, err := level.MapWhole(mapper.ReadWrite)
	require.NoError(t, err)
	writeGradient(w.Bytes, geom)
	require.NoError(t, w.Release())

	b := tilebuilder.New()
	for r := 0; r < geom.Rows; r++ {
		require.NoError(t, b.BuildStreamingRow(level, r))
	}

	got, err := level.MapWhole(mapper.ReadOnly)
	require.NoError(t, err)
	gotTiled := append([]byte(nil), got.Bytes[:geom.TiledSize()]...)
	require.NoError(t, got.Release())

	require.NoError(t, level.TruncateScratch())

	require.Equal(t, whole[:geom.TiledSize()], gotTiled)
}
