package tile

// Size is the tile side in pixels. Baseline is 256; changing it changes the
// on-disk layout of every level file, so it is a compile-time constant
// rather than a runtime option.
const Size = 256

// BytesPerPixel is fixed: 8-bit ABGR, little-endian in memory, alpha carried
// but never inspected by the CORE itself.
const BytesPerPixel = 4

// RowBytes is one scanline of one tile.
const RowBytes = Size * BytesPerPixel

// Bytes is one whole tile: RowBytes repeated Size times.
const Bytes = RowBytes * Size

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Geometry captures everything derived from a level's pixel dimensions at
// creation time: tile counts, the padded row-major stride, the scratch
// band size, and the total backing-file size before truncation. See
// invariant 1: PaddedRowBytes is always a multiple of RowBytes, and
// PaddedRowBytes*Rows*Size + ScratchBytes always equals MappedSize.
type Geometry struct {
	Level  int
	Width  int
	Height int

	Cols int
	Rows int

	PaddedRowBytes int64
	ScratchBytes   int64
	MappedSize     int64
}

// NewGeometry computes a level's geometry from its pixel dimensions. Width
// or Height of 0 (typical once a level has been halved past its source's
// last bit) yields a Geometry with Empty() true; the caller must skip
// creating a backing file for it rather than requesting one of size 0.
func NewGeometry(level, width, height int) Geometry {
	if width <= 0 || height <= 0 {
		return Geometry{Level: level, Width: max(width, 0), Height: max(height, 0)}
	}

	cols := ceilDiv(width, Size)
	rows := ceilDiv(height, Size)
	paddedRowBytes := int64(cols) * RowBytes
	scratchBytes := paddedRowBytes * Size
	mappedSize := paddedRowBytes*int64(rows)*Size + scratchBytes

	return Geometry{
		Level:          level,
		Width:          width,
		Height:         height,
		Cols:           cols,
		Rows:           rows,
		PaddedRowBytes: paddedRowBytes,
		ScratchBytes:   scratchBytes,
		MappedSize:     mappedSize,
	}
}

// Empty reports whether this level has no pixels (source dimensions halved
// below 1 in either axis). Empty levels are skipped entirely: no file, no
// tiles, no entry in a pyramid's active-level list.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// TiledSize is the file size once retiling has completed and the scratch
// band has been truncated away: exactly Cols*Rows tiles, no padding.
func (g Geometry) TiledSize() int64 {
	return int64(g.Cols) * int64(g.Rows) * Bytes
}

// RowMajorOffset returns the byte offset, relative to the start of the
// row-major region (i.e. already past the scratch band), of scanline y.
func (g Geometry) RowMajorOffset(y int) int64 {
	return int64(y) * g.PaddedRowBytes
}

// TileOffset returns a tile's byte offset within the tiled (post-finalize,
// post-truncate) file: row-major order of tile blocks.
func (g Geometry) TileOffset(row, col int) int64 {
	return (int64(row)*int64(g.Cols) + int64(col)) * Bytes
}

// Halved returns the geometry of the next coarser level: both dimensions
// integer-divided by two, not rounded up (matches the pyramid's own
// width_k = width_0 >> k derivation).
func (g Geometry) Halved() Geometry {
	return NewGeometry(g.Level+1, g.Width>>1, g.Height>>1)
}
