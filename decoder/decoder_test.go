package decoder_test

import (
	"testing"

	"github.com/nyzil/tilepyramid/decoder"
	"github.com/nyzil/tilepyramid/internal/testimage"
	"github.com/stretchr/testify/require"
)

func TestStdlibOneShotDecodesPNGIntoStride(t *testing.T) {
	img := testimage.Gradient(17, 9)
	png := testimage.EncodePNG(img)

	rowBytes := int64(17 * 4)
	dst := make([]byte, rowBytes*9)
	require.NoError(t, decoder.NewOneShot(decoder.CgStyleOneShot).Decode(png, dst, rowBytes, 17, 9))

	for y := 0; y < 9; y++ {
		want := testimage.RowBytes(img, y)
		require.Equal(t, want, dst[int64(y)*rowBytes:int64(y)*rowBytes+rowBytes])
	}
}

func TestStdlibOneShotRejectsSizeMismatch(t *testing.T) {
	img := testimage.Gradient(4, 4)
	png := testimage.EncodePNG(img)

	dst := make([]byte, 8*4*4)
	err := decoder.NewOneShot(decoder.OneShotTurbo).Decode(png, dst, 8*4, 8, 8)
	require.Error(t, err)
	require.ErrorIs(t, err, decoder.ErrDecode)
}

func TestScanlineDecoderFeedsOneByteAtATime(t *testing.T) {
	img := testimage.Gradient(6, 5)
	png := testimage.EncodePNG(img)

	d := decoder.NewScanlineDecoder()
	for i := range png {
		_, err := d.Feed(png[i : i+1])
		require.NoError(t, err)
	}
	require.NoError(t, d.Finish())

	require.True(t, d.HeaderReady())
	w, h, _ := d.Header()
	require.Equal(t, 6, w)
	require.Equal(t, 5, h)

	for y := 0; y < h; y++ {
		dst := [][]byte{make([]byte, w*4)}
		n, err := d.PullScanlines(dst, 1)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, testimage.RowBytes(img, y), dst[0])
	}
	require.True(t, d.Done())
}

func TestScanlineDecoderNeedsMoreBeforeFullBuffer(t *testing.T) {
	img := testimage.Gradient(10, 10)
	png := testimage.EncodePNG(img)

	d := decoder.NewScanlineDecoder()
	_, err := d.Feed(png[:len(png)/2])
	require.NoError(t, err)
	require.False(t, d.HeaderReady())

	dst := [][]byte{make([]byte, 40)}
	n, err := d.PullScanlines(dst, 1)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestScanlineDecoderFinishOnTruncatedStreamErrors(t *testing.T) {
	img := testimage.Gradient(10, 10)
	png := testimage.EncodePNG(img)

	d := decoder.NewScanlineDecoder()
	_, err := d.Feed(png[:len(png)/2])
	require.NoError(t, err)
	require.Error(t, d.Finish())
}
