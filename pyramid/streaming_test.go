package pyramid_test

import (
	"testing"

	"github.com/nyzil/tilepyramid/internal/testimage"
	"github.com/nyzil/tilepyramid/pyramid"
	"github.com/nyzil/tilepyramid/tile"
	"github.com/stretchr/testify/require"
)

func TestNewForNetworkFeedOneByteAtATimeMatchesWholeImage(t *testing.T) {
	img := testimage.Gradient(300, 300)
	png := testimage.EncodePNG(img)

	want, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer want.Close()

	got := pyramid.NewForNetwork()
	defer got.Close()
	for i := range png {
		require.NoError(t, got.AppendBytes(png[i:i+1]))
	}
	require.NoError(t, got.DataFinished())

	wantW, wantH, err := want.ImageSize()
	require.NoError(t, err)
	gotW, gotH, err := got.ImageSize()
	require.NoError(t, err)
	require.Equal(t, wantW, gotW)
	require.Equal(t, wantH, gotH)
	require.Equal(t, want.LevelCount(), got.LevelCount())

	for lvl := 0; lvl < want.LevelCount(); lvl++ {
		wantGeom, wantReader, ok := want.Level(lvl)
		require.True(t, ok)
		_, gotReader, ok := got.Level(lvl)
		require.True(t, ok)

		for r := 0; r < wantGeom.Rows; r++ {
			for c := 0; c < wantGeom.Cols; c++ {
				addr := tile.Addr{Level: uint32(lvl), Row: uint32(r), Col: uint32(c)}
				wt, err := wantReader.ReadTile(addr)
				require.NoError(t, err)
				gt, err := gotReader.ReadTile(addr)
				require.NoError(t, err)
				require.Equal(t, wt, gt, "level %d tile (%d,%d) mismatch", lvl, r, c)
			}
		}
	}
}

func TestNewForNetworkPhaseTransitions(t *testing.T) {
	img := testimage.Gradient(40, 40)
	png := testimage.EncodePNG(img)

	p := pyramid.NewForNetwork()
	defer p.Close()
	require.Equal(t, pyramid.AwaitingHeader, p.Phase())

	require.NoError(t, p.AppendBytes(png))
	require.Equal(t, pyramid.StreamingScanlines, p.Phase())

	require.NoError(t, p.DataFinished())
	require.Equal(t, pyramid.Done, p.Phase())
}
