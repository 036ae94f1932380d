package animagif

import (
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidRGBA(width, height int, r, g, b byte) []byte {
	buf := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		buf[i*4+0] = r
		buf[i*4+1] = g
		buf[i*4+2] = b
		buf[i*4+3] = 0xff
	}
	return buf
}

func openTestGIF(t *testing.T, width, height, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.gif")
	w, err := Open(path, width, height, 10, bitDepth, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return path
}

// TestSingleSolidFrameDecodes covers scenario 1: a single solid-color frame
// must round-trip through the standard library's GIF decoder.
func TestSingleSolidFrameDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solid.gif")
	w, err := Open(path, 4, 4, 10, 8, false)
	require.NoError(t, err)

	require.NoError(t, w.WriteFrame(solidRGBA(4, 4, 200, 10, 10), 4, 4, 10, 8, false))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, img.Image, 1)
}

// TestIdenticalSecondFrameIsAllTransparent covers scenario 2: writing the
// same frame twice must encode the second frame as entirely the transparency
// index, since nothing visibly changed.
func TestIdenticalSecondFrameIsAllTransparent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repeat.gif")
	w, err := Open(path, 4, 4, 10, 8, false)
	require.NoError(t, err)

	frame := solidRGBA(4, 4, 50, 60, 70)
	require.NoError(t, w.WriteFrame(frame, 4, 4, 10, 8, false))
	require.NoError(t, w.WriteFrame(frame, 4, 4, 10, 8, false))

	_, indexed := w.LastFrameDiagnostics()
	for i := 0; i < 16; i++ {
		require.Equal(t, byte(0), indexed[i*4+3], "pixel %d should be transparent", i)
	}

	require.NoError(t, w.Close())
}

// TestGradientFrameDitherDecodes covers scenario 3: a dithered gradient frame
// must still produce a structurally valid, decodable GIF.
func TestGradientFrameDitherDecodes(t *testing.T) {
	const w, h = 8, 8
	frame := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			frame[i+0] = byte(x * 32)
			frame[i+1] = byte(y * 32)
			frame[i+2] = 128
			frame[i+3] = 0xff
		}
	}

	path := filepath.Join(t.TempDir(), "gradient.gif")
	writer, err := Open(path, w, h, 10, 4, true)
	require.NoError(t, err)
	require.NoError(t, writer.WriteFrame(frame, w, h, 10, 4, true))
	require.NoError(t, writer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, img.Image, 1)
	require.Equal(t, w, img.Image[0].Bounds().Dx())
	require.Equal(t, h, img.Image[0].Bounds().Dy())
}

// TestDictionaryOverflowThroughWriter covers scenario 4 at the Writer level:
// a large frame of high-entropy colors forces the LZW dictionary to fill and
// reset at least once, end to end.
func TestDictionaryOverflowThroughWriter(t *testing.T) {
	const w, h = 64, 64
	frame := make([]byte, w*h*4)
	seed := uint32(12345)
	for i := 0; i < w*h; i++ {
		seed = seed*1664525 + 1013904223
		frame[i*4+0] = byte(seed)
		frame[i*4+1] = byte(seed >> 8)
		frame[i*4+2] = byte(seed >> 16)
		frame[i*4+3] = 0xff
	}

	path := filepath.Join(t.TempDir(), "overflow.gif")
	writer, err := Open(path, w, h, 10, 8, false)
	require.NoError(t, err)
	require.NoError(t, writer.WriteFrame(frame, w, h, 10, 8, false))
	require.NoError(t, writer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = gif.DecodeAll(f)
	require.NoError(t, err)
}

// TestCloseIsIdempotent covers P8: a second Close call must not write a
// second trailer byte, and must report ErrClosed.
func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.gif")
	w, err := Open(path, 2, 2, 10, 8, false)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(solidRGBA(2, 2, 1, 2, 3), 2, 2, 10, 8, false))

	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Close(), ErrClosed)
}

func TestWriteFrameAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afterclose.gif")
	w, err := Open(path, 2, 2, 10, 8, false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.WriteFrame(solidRGBA(2, 2, 1, 2, 3), 2, 2, 10, 8, false)
	require.ErrorIs(t, err, ErrClosed)
}

func TestOpenRejectsInvalidBitDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gif")
	_, err := Open(path, 2, 2, 10, 9, false)
	require.ErrorIs(t, err, ErrInvalidBitDepth)

	_, err = Open(path, 2, 2, 10, 0, false)
	require.ErrorIs(t, err, ErrInvalidBitDepth)
}

func TestWriteFrameRejectsDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.gif")
	w, err := Open(path, 4, 4, 10, 8, false)
	require.NoError(t, err)

	err = w.WriteFrame(make([]byte, 10), 4, 4, 10, 8, false)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestBottomUpOriginFlipsRows covers scenario 6: with BottomUp set, the first
// row written to the GIF's raster should be the input buffer's last row.
func TestBottomUpOriginFlipsRows(t *testing.T) {
	const w, h = 2, 2
	frame := make([]byte, w*h*4)
	// Row 0 is red, row 1 is blue.
	for x := 0; x < w; x++ {
		frame[x*4+0] = 255
		frame[x*4+3] = 0xff
		i := (w + x) * 4
		frame[i+2] = 255
		frame[i+3] = 0xff
	}

	path := filepath.Join(t.TempDir(), "bottomup.gif")
	writer, err := OpenWithOptions(path, w, h, 10, 8, false, Options{BottomUp: true})
	require.NoError(t, err)
	require.NoError(t, writer.WriteFrame(frame, w, h, 10, 8, false))
	require.NoError(t, writer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := gif.DecodeAll(f)
	require.NoError(t, err)

	// The input's last row is blue, so the decoded top-left pixel is blue.
	_, _, b0, _ := img.Image[0].At(0, 0).RGBA()
	require.Greater(t, b0, uint32(0))
}
