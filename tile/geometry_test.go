package tile_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nyzil/tilepyramid/tile"
)

func TestNewGeometry(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
		want          tile.Geometry
	}{
		{
			name: "single pixel",
			width: 1, height: 1,
			want: tile.Geometry{Width: 1, Height: 1, Cols: 1, Rows: 1, PaddedRowBytes: tile.RowBytes, ScratchBytes: tile.Bytes, MappedSize: 2 * tile.Bytes},
		},
		{
			name: "exact tile",
			width: tile.Size, height: tile.Size,
			want: tile.Geometry{Width: tile.Size, Height: tile.Size, Cols: 1, Rows: 1, PaddedRowBytes: tile.RowBytes, ScratchBytes: tile.Bytes, MappedSize: 2 * tile.Bytes},
		},
		{
			name: "one column over",
			width: tile.Size + 1, height: tile.Size,
			want: tile.Geometry{Width: tile.Size + 1, Height: tile.Size, Cols: 2, Rows: 1, PaddedRowBytes: 2 * tile.RowBytes, ScratchBytes: 2 * tile.Bytes, MappedSize: 4 * tile.Bytes},
		},
		{
			name: "zero height",
			width: 4, height: 0,
			want: tile.Geometry{Width: 4, Height: 0},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := tile.NewGeometry(0, tc.width, tc.height)
			tc.want.Level = 0
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("NewGeometry(0, %d, %d) mismatch (-want +got):\n%s", tc.width, tc.height, diff)
			}
		})
	}
}

func TestGeometryEmpty(t *testing.T) {
	g := tile.NewGeometry(0, tile.Size, tile.Size)
	if g.Empty() {
		t.Fatalf("256x256 geometry reported Empty()")
	}
	h := g.Halved()
	if h.Empty() {
		t.Fatalf("halving a 256x256 level to 128x128 should not be empty, got %+v", h)
	}
	i := tile.NewGeometry(0, 1, 1).Halved()
	if !i.Empty() {
		t.Fatalf("halving a 1x1 level should reach 0x0, got %+v", i)
	}
}

func TestGeometryTiledSize(t *testing.T) {
	g := tile.NewGeometry(1, 300, 200)
	if got, want := g.Cols, 2; got != want {
		t.Errorf("Cols = %d, want %d", got, want)
	}
	if got, want := g.Rows, 1; got != want {
		t.Errorf("Rows = %d, want %d", got, want)
	}
	if got, want := g.TiledSize(), int64(2*tile.Bytes); got != want {
		t.Errorf("TiledSize() = %d, want %d", got, want)
	}
}

func TestTileOffset(t *testing.T) {
	g := tile.NewGeometry(0, 600, 600)
	if got, want := g.TileOffset(0, 0), int64(0); got != want {
		t.Errorf("TileOffset(0,0) = %d, want %d", got, want)
	}
	if got, want := g.TileOffset(1, 0), int64(g.Cols)*tile.Bytes; got != want {
		t.Errorf("TileOffset(1,0) = %d, want %d", got, want)
	}
}
