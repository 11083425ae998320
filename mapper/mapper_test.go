package mapper_test

import (
	"bytes"
	"testing"

	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
	"github.com/stretchr/testify/require"
)

func TestCreateLevelSizing(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
	}{
		{"single pixel", 1, 1},
		{"exact tile", tile.Size, tile.Size},
		{"one column over", tile.Size + 1, tile.Size},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := mapper.New()
			defer m.Close()

			level, err := m.CreateLevel(0, tc.width, tc.height)
			require.NoError(t, err)

			size, err := level.Size()
			require.NoError(t, err)
			require.Equal(t, level.Geometry.MappedSize, size)
		})
	}
}

func TestCreateLevelRejectsEmptyGeometry(t *testing.T) {
	m := mapper.New()
	defer m.Close()

	_, err := m.CreateLevel(2, 0, 64)
	require.Error(t, err)
}

func TestMapWindowRoundTrip(t *testing.T) {
	m := mapper.New()
	defer m.Close()

	level, err := m.CreateLevel(0, tile.Size, tile.Size)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xAB}, tile.RowBytes)

	w, err := level.MapWindow(level.Geometry.ScratchBytes, int64(len(payload)), mapper.ReadWrite, mapper.HintNormal)
	require.NoError(t, err)
	copy(w.Bytes, payload)
	require.NoError(t, w.Release())

	r, err := level.MapWindow(level.Geometry.ScratchBytes, int64(len(payload)), mapper.ReadOnly, mapper.HintNormal)
	require.NoError(t, err)
	defer r.Release()
	require.True(t, bytes.Equal(r.Bytes, payload))
}

func TestMapWindowRoundsOffsetToPageBoundary(t *testing.T) {
	m := mapper.New()
	defer m.Close()

	level, err := m.CreateLevel(0, tile.Size*4, tile.Size*4)
	require.NoError(t, err)

	// An offset that is not page-aligned still produces a window whose
	// logical Bytes slice starts exactly at the requested offset.
	offset := level.Geometry.ScratchBytes + tile.RowBytes
	w, err := level.MapWindow(offset, tile.RowBytes, mapper.ReadWrite, mapper.HintNormal)
	require.NoError(t, err)
	defer w.Release()

	require.Equal(t, tile.RowBytes, len(w.Bytes))
	// The logical slice must live inside the (possibly larger) base mapping.
	require.True(t, len(w.Base()) >= len(w.Bytes))
}

func TestTruncateScratch(t *testing.T) {
	m := mapper.New()
	defer m.Close()

	level, err := m.CreateLevel(0, tile.Size, tile.Size)
	require.NoError(t, err)

	require.NoError(t, level.TruncateScratch())

	size, err := level.Size()
	require.NoError(t, err)
	require.Equal(t, level.Geometry.TiledSize(), size)
}

func TestLevelFsync(t *testing.T) {
	m := mapper.New()
	defer m.Close()

	level, err := m.CreateLevel(0, tile.Size, tile.Size)
	require.NoError(t, err)

	w, err := level.MapWindow(0, tile.RowBytes, mapper.ReadWrite, mapper.HintNormal)
	require.NoError(t, err)
	copy(w.Bytes, []byte{1, 2, 3, 4})
	require.NoError(t, w.Release())

	require.NoError(t, level.Fsync())
}

func TestFileHandleSurvivesLevelCloseWhileWindowHeld(t *testing.T) {
	m := mapper.New()

	level, err := m.CreateLevel(0, tile.Size, tile.Size)
	require.NoError(t, err)

	w, err := level.MapWindow(0, tile.RowBytes, mapper.ReadWrite, mapper.HintNormal)
	require.NoError(t, err)

	// Closing the mapper (and therefore the level) must not invalidate a
	// window that is still acquired: the handle is reference-counted.
	require.NoError(t, m.Close())
	copy(w.Bytes, []byte{9, 9, 9, 9})
	require.NoError(t, w.Release())
}
