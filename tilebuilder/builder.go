// Package tilebuilder implements the retiling pass: rearranging a level's
// row-major pixels into a contiguous sequence of square tiles, in place,
// inside the same backing file.
package tilebuilder

import (
	"fmt"
	"log/slog"

	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
)

// Builder retiles one level at a time, in either whole-file mode (the
// level is already mapped read-write in full — used after a complete
// decode) or streaming mode (exactly two tile-row stripes mapped at a
// time — used as scanlines arrive). Both modes call the same pure
// per-row rearrangement, BuildRow, so they are trivially consistent with
// each other (§8 property 5's round-trip guarantee).
type Builder struct {
	logger *slog.Logger
}

type Option func(*Builder)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

func New(opts ...Option) *Builder {
	b := &Builder{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildRow rearranges one tile row's worth of row-major pixels (src) into
// tile-major layout (dst). Both slices are exactly geom.ScratchBytes
// long: src holds TILE scanlines of padded row-major pixel data, each
// geom.PaddedRowBytes wide; dst holds Cols
// contiguous tile.Bytes-sized tile blocks. Column 0 is copied first,
// top-to-bottom within each column, matching the spec's ordering
// guarantee so upstream truncation of unused padding is always safe.
//
// Calling BuildRow twice with the same src/dst is idempotent: it is a
// pure rearrangement with no hidden state.
func BuildRow(dst, src []byte, geom tile.Geometry) {
	for c := 0; c < geom.Cols; c++ {
		for i := 0; i < tile.Size; i++ {
			srcOff := int64(i)*geom.PaddedRowBytes + int64(c)*tile.RowBytes
			dstOff := int64(c)*tile.Bytes + int64(i)*tile.RowBytes
			copy(dst[dstOff:dstOff+tile.RowBytes], src[srcOff:srcOff+tile.RowBytes])
		}
	}
}

// rowOffsets returns a tile row's destination and source byte ranges
// within the level's full file. Because ScratchBytes always equals
// Cols*tile.Bytes (one tile row's worth of tiled bytes — see
// tile.Geometry doc), row r's destination is [r*cb, (r+1)*cb) and its
// source is immediately after it at [(r+1)*cb, (r+2)*cb); the two never
// overlap, and a strictly increasing row order never revisits a
// destination that still holds unread source.
func rowOffsets(geom tile.Geometry, row int) (dstBase, srcBase int64) {
	cb := geom.ScratchBytes
	dstBase = int64(row) * cb
	srcBase = dstBase + cb
	return
}

// BuildWholeFile retiles every tile row of a level already mapped
// read-write in full at buf ([0, geom.MappedSize)).
func (b *Builder) BuildWholeFile(buf []byte, geom tile.Geometry) {
	for row := 0; row < geom.Rows; row++ {
		dstBase, srcBase := rowOffsets(geom, row)
		cb := geom.ScratchBytes
		BuildRow(buf[dstBase:dstBase+cb], buf[srcBase:srcBase+cb], geom)
	}
	b.logger.Debug("tilebuilder: whole-file retile complete", "level", geom.Level, "rows", geom.Rows)
}

// BuildStreamingRow retiles exactly tile row `row` of level, mapping only
// the two tile-row stripes it needs and releasing both before returning
// (including on error). It must not be called until rows
// [0, (row+1)*TILE) of the level have been fully written, and once it has
// been called for a given row, that row's row-major source bytes must
// never be written again.
func (b *Builder) BuildStreamingRow(level *mapper.Level, row int) error {
	dstBase, srcBase := rowOffsets(level.Geometry, row)
	cb := level.Geometry.ScratchBytes

	dst, err := level.MapWindow(dstBase, cb, mapper.WriteOnly, mapper.HintNormal)
	if err != nil {
		return fmt.Errorf("tilebuilder: map destination stripe (level %d row %d): %w", level.Geometry.Level, row, err)
	}
	defer dst.Release()

	src, err := level.MapWindow(srcBase, cb, mapper.ReadOnly, mapper.HintSequential)
	if err != nil {
		return fmt.Errorf("tilebuilder: map source stripe (level %d row %d): %w", level.Geometry.Level, row, err)
	}
	defer src.Release()

	BuildRow(dst.Bytes, src.Bytes, level.Geometry)
	b.logger.Debug("tilebuilder: streaming retile", "level", level.Geometry.Level, "row", row)
	return nil
}
