package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nyzil/tilepyramid/export"
	"github.com/nyzil/tilepyramid/internal/testimage"
	"github.com/nyzil/tilepyramid/pyramid"
	"github.com/stretchr/testify/require"
)

func TestExportTilesRaw(t *testing.T) {
	img := testimage.Gradient(600, 400)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	dir := t.TempDir()
	pattern := filepath.Join(dir, "{level}", "{row}", "{col}.raw")
	count, err := export.ExportTiles(p, pattern, export.Raw)
	require.NoError(t, err)
	require.Positive(t, count)

	data, err := os.ReadFile(filepath.Join(dir, "0", "0", "0.raw"))
	require.NoError(t, err)
	require.Len(t, data, 256*256*4)
}

func TestExportTilesPNG(t *testing.T) {
	img := testimage.Gradient(300, 300)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	dir := t.TempDir()
	pattern := filepath.Join(dir, "{level}_{row}_{col}.png")
	count, err := export.ExportTiles(p, pattern, export.PNG)
	require.NoError(t, err)
	require.Positive(t, count)

	data, err := os.ReadFile(filepath.Join(dir, "0_0_0.png"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestExportTilesRejectsPatternMissingPlaceholder(t *testing.T) {
	img := testimage.Gradient(10, 10)
	p, err := pyramid.NewFromImage(img)
	require.NoError(t, err)
	defer p.Close()

	_, err = export.ExportTiles(p, "/tmp/{level}/{row}.raw", export.Raw)
	require.ErrorIs(t, err, export.ErrInvalidPattern)
}
