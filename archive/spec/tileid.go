package spec

import (
	"math/bits"

	"github.com/google/hilbert"
	"github.com/nyzil/tilepyramid/tile"
)

// SideFor returns the smallest power-of-two square a level's (cols, rows)
// grid fits inside, the side hilbert.NewHilbert requires.
func SideFor(cols, rows uint32) int {
	n := max(cols, rows)
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

// EncodeTileCode maps a tile address to its position along a per-level
// Hilbert curve, so directory entries sort into runs that read back with
// spatial locality (adjacent tiles tend to land near each other on disk).
// Grounded on the same google/hilbert-based construction a web-map tile
// archive format uses for its global (Z,X,Y) tile IDs, adapted to this
// module's bounded per-level (Row,Col) grids instead of a full 2^Z square.
func EncodeTileCode(addr tile.Addr, cols, rows uint32) uint64 {
	side := SideFor(cols, rows)
	h, _ := hilbert.NewHilbert(side)
	d, _ := h.MapInverse(int(addr.Col), int(addr.Row))
	return uint64(d)
}

// DecodeTileCode is EncodeTileCode's inverse for a given level.
func DecodeTileCode(level uint32, code uint64, cols, rows uint32) tile.Addr {
	side := SideFor(cols, rows)
	h, _ := hilbert.NewHilbert(side)
	x, y, _ := h.Map(int(code))
	return tile.Addr{Level: level, Row: uint32(y), Col: uint32(x)}
}
