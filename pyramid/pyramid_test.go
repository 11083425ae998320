package pyramid_test

import (
	"os"
	"testing"

	"github.com/nyzil/tilepyramid/internal/testimage"
	"github.com/nyzil/tilepyramid/pyramid"
	"github.com/stretchr/testify/require"
)

func TestNewFromImageBuildsExpectedLevelCount(t *testing.T) {
	img := testimage.Gradient(600, 300)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	w, h, err := p.ImageSize()
	require.NoError(t, err)
	require.Equal(t, 600, w)
	require.Equal(t, 300, h)

	// 600x300 -> 300x150 -> 150x75 -> 75x37 -> 37x18 -> 18x9 -> 9x4 -> 4x2 -> 2x1 -> 1x0 (stop)
	require.GreaterOrEqual(t, p.LevelCount(), 2)
}

func TestNewFromImageTileAtMatchesSourcePixels(t *testing.T) {
	img := testimage.Gradient(300, 300)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	h, err := p.TileAt(0, 0, 1)
	require.NoError(t, err)
	defer h.Release()

	data := h.Bytes()
	for j := 0; j < 10; j++ {
		srcX := 256 + j
		o := j * 4
		require.Equal(t, byte(srcX%256), data[o])
		require.Equal(t, byte(0), data[o+1])
	}
}

func TestNewFromImageTileAtOutOfRange(t *testing.T) {
	img := testimage.Gradient(10, 10)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.TileAt(0, 5, 0)
	require.Error(t, err)
}

func TestNewFromPathDecodesPNG(t *testing.T) {
	img := testimage.Gradient(64, 48)
	png := testimage.EncodePNG(img)
	dir := t.TempDir()
	path := dir + "/source.png"
	require.NoError(t, os.WriteFile(path, png, 0o644))

	p, err := pyramid.NewFromPath(path)
	require.NoError(t, err)
	defer p.Close()

	w, h, err := p.ImageSize()
	require.NoError(t, err)
	require.Equal(t, 64, w)
	require.Equal(t, 48, h)
}

func TestNewFromPathMissingFileFails(t *testing.T) {
	_, err := pyramid.NewFromPath("/no/such/file.png")
	require.Error(t, err)
}

func TestWithLevelsCapsCascade(t *testing.T) {
	img := testimage.Gradient(1024, 1024)
	p, err := pyramid.NewFromImage(img, pyramid.WithLevels(3))
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, 3, p.LevelCount())
}

func TestTileAtScaleMapsFractionToLevel(t *testing.T) {
	img := testimage.Gradient(1024, 1024)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	whole, err := p.TileAtScale(0.5, 1, 1)
	require.NoError(t, err)
	defer whole.Release()

	direct, err := p.TileAt(1, 1, 1)
	require.NoError(t, err)
	defer direct.Release()

	require.Equal(t, direct.Bytes(), whole.Bytes())
}

func TestFailedPyramidLatchesFailure(t *testing.T) {
	p := pyramid.NewForNetwork()
	defer p.Close()

	require.NoError(t, p.AppendBytes([]byte("not a png")))
	require.Error(t, p.DataFinished())

	_, err := p.TileAt(0, 0, 0)
	require.ErrorIs(t, err, pyramid.ErrFailed)
}
