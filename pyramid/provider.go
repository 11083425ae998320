package pyramid

import (
	"fmt"
	"math"

	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
)

// TileHandle is one outstanding tile read: Bytes is valid until Release is
// called. Callers must call Release exactly once; failing to do so leaks
// a reference on the level's file handle (§4.6's reference-counted
// handles, not a raw descriptor).
type TileHandle struct {
	win *mapper.Window
}

func (h *TileHandle) Bytes() []byte { return h.win.Bytes }

func (h *TileHandle) Release() error { return h.win.Release() }

// TileAt reads back one finalized tile: level is the pyramid level index
// (0 is full resolution, each level after it is 2x coarser — the "scale
// fraction" is 1/2^level), row/col address a TILE x TILE square within
// that level. Random-access hint is used since tile reads have no
// sequential locality guarantee.
func (p *Pyramid) TileAt(level, row, col int) (*TileHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkFailedLocked(); err != nil {
		return nil, err
	}
	if level < 0 || level >= len(p.levels) {
		return nil, newError(OutOfRange, "pyramid.TileAt", fmt.Errorf("level %d out of range [0,%d)", level, len(p.levels)))
	}
	l := p.levels[level]
	if row < 0 || row >= l.Geometry.Rows || col < 0 || col >= l.Geometry.Cols {
		return nil, newError(OutOfRange, "pyramid.TileAt", fmt.Errorf("tile (%d,%d) out of range for level %d (%dx%d tiles)", row, col, level, l.Geometry.Cols, l.Geometry.Rows))
	}

	off := l.Geometry.TileOffset(row, col)
	win, err := l.MapWindow(off, tile.Bytes, mapper.ReadOnly, mapper.HintRandom)
	if err != nil {
		return nil, newError(IoError, "pyramid.TileAt", err)
	}
	return &TileHandle{win: win}, nil
}

// TileAtScale reads back the tile for a viewer-facing scale_fraction
// (§4.6): level = round(log2(1/scale_fraction)), i.e. the nearest
// discrete level, so scale_fraction 1.0 is level 0 (full resolution), 0.5
// is level 1, 0.25 is level 2, and so on.
func (p *Pyramid) TileAtScale(scaleFraction float64, row, col int) (*TileHandle, error) {
	if scaleFraction <= 0 || scaleFraction > 1 {
		return nil, newError(OutOfRange, "pyramid.TileAtScale", fmt.Errorf("scale_fraction %v out of range (0,1]", scaleFraction))
	}
	level := int(math.Round(math.Log2(1 / scaleFraction)))
	return p.TileAt(level, row, col)
}

// levelTileReader adapts a finalized *mapper.Level to tile.Reader, for the
// delivery-facing packages (archive, export) that walk every
// tile of a level rather than fetch one at a time.
type levelTileReader struct {
	level *mapper.Level
}

func (r *levelTileReader) ReadTile(addr tile.Addr) ([]byte, error) {
	geom := r.level.Geometry
	if addr.Row >= uint32(geom.Rows) || addr.Col >= uint32(geom.Cols) {
		return nil, fmt.Errorf("pyramid: tile %+v out of range for level %d", addr, geom.Level)
	}
	off := geom.TileOffset(int(addr.Row), int(addr.Col))
	win, err := r.level.MapWindow(off, tile.Bytes, mapper.ReadOnly, mapper.HintRandom)
	if err != nil {
		return nil, fmt.Errorf("pyramid: read tile %+v: %w", addr, err)
	}
	defer win.Release()
	out := make([]byte, tile.Bytes)
	copy(out, win.Bytes)
	return out, nil
}

// VisitTiles walks every tile of the level in row-major order.
func (r *levelTileReader) VisitTiles(visitor func(tile.Addr, []byte) error) error {
	geom := r.level.Geometry
	for row := 0; row < geom.Rows; row++ {
		for col := 0; col < geom.Cols; col++ {
			addr := tile.Addr{Level: uint32(geom.Level), Row: uint32(row), Col: uint32(col)}
			data, err := r.ReadTile(addr)
			if err != nil {
				return err
			}
			if err := visitor(addr, data); err != nil {
				return err
			}
		}
	}
	return nil
}
