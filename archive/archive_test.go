package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nyzil/tilepyramid/archive"
	"github.com/nyzil/tilepyramid/internal/testimage"
	"github.com/nyzil/tilepyramid/pyramid"
	"github.com/nyzil/tilepyramid/tile"
	"github.com/stretchr/testify/require"
)

func TestPackAndOpenArchiveRoundTrips(t *testing.T) {
	img := testimage.Gradient(600, 500)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	path := filepath.Join(t.TempDir(), "pyramid.archive")
	require.NoError(t, archive.PackPyramid(p, path))

	a, err := archive.OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, p.LevelCount(), a.LevelCount())

	for lvl := 0; lvl < p.LevelCount(); lvl++ {
		geom, reader, ok := p.Level(lvl)
		require.True(t, ok)

		for r := 0; r < geom.Rows; r++ {
			for c := 0; c < geom.Cols; c++ {
				addr := tile.Addr{Level: uint32(lvl), Row: uint32(r), Col: uint32(c)}
				want, err := reader.ReadTile(addr)
				require.NoError(t, err)
				got, err := a.ReadTile(addr)
				require.NoError(t, err)
				require.Equal(t, want, got, "level %d tile (%d,%d)", lvl, r, c)
			}
		}
	}
}

func TestArchiveVisitTilesCoversEveryTile(t *testing.T) {
	img := testimage.Gradient(300, 300)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	path := filepath.Join(t.TempDir(), "pyramid.archive")
	require.NoError(t, archive.PackPyramid(p, path))

	a, err := archive.OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()

	wantCount := 0
	for lvl := 0; lvl < p.LevelCount(); lvl++ {
		geom, _, _ := p.Level(lvl)
		wantCount += geom.Cols * geom.Rows
	}

	got := 0
	require.NoError(t, a.VisitTiles(func(addr tile.Addr, data []byte) error {
		got++
		require.Len(t, data, tile.Bytes)
		return nil
	}))
	require.Equal(t, wantCount, got)
}

func TestOpenArchiveRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	require.NoError(t, os.WriteFile(path, []byte("not an archive, just some bytes"), 0o644))

	_, err := archive.OpenArchive(path)
	require.Error(t, err)
	require.ErrorIs(t, err, archive.ErrInvalidArchive)
}
