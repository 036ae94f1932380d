/*
Package animagif writes animated GIF89a files from a sequence of RGBA8
frames. It builds a fresh, delta-aware color palette for every frame using
package palette, maps each frame onto that palette either by hard
thresholding or Floyd–Steinberg dithering, and streams the result through
package lzw as a sequence of GIF image blocks.

Decoding, file loading, and progress reporting are left to callers; see
cmd/animagif for a driver that provides all three.
*/
package animagif

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rkburrow/animagif/lzw"
	"github.com/rkburrow/animagif/palette"
)

const transparencyIndex = 0

// Options configures behavior that applies to an entire Writer, as opposed
// to the per-frame parameters accepted by WriteFrame.
type Options struct {
	// BottomUp, when true, treats every frame's buffer as having a
	// bottom-left origin (e.g. captured from OpenGL) rather than the
	// default top-left origin, without requiring the caller to flip the
	// buffer itself.
	BottomUp bool
}

// Writer writes a single animated GIF file. It is not safe for concurrent
// use: at most one method call may be in flight at a time.
type Writer struct {
	f    *os.File
	opts Options

	width, height int
	oldImage      []byte
	firstFrame    bool
	closed        bool

	lastPalette []byte
	lastIndexed []byte
}

// LastFrameDiagnostics returns the local color table (3 bytes per color)
// and the indexed buffer (palette index in the fourth byte of every pixel)
// produced by the most recent WriteFrame call, for use by optional
// diagnostics such as package diagnostic's Dump. It returns nil, nil before
// the first frame is written.
func (w *Writer) LastFrameDiagnostics() (palette, indexed []byte) {
	return w.lastPalette, w.lastIndexed
}

// Open creates path and writes the GIF header, logical screen descriptor,
// and (if delay is non-zero) the NETSCAPE looping extension. The returned
// Writer owns the file handle and an internal buffer sized for width*height
// frames; both are released by Close.
//
// If the caller never calls Close, the trailer byte and file handle are
// still guaranteed to be flushed and released when the Writer is garbage
// collected — see Writer's runtime finalizer, attached in Open. Callers that
// care about exactly when the trailer is written should call Close
// explicitly; relying on the finalizer ties file lifetime to the garbage
// collector's schedule.
func Open(path string, width, height, delay, bitDepth int, dither bool) (*Writer, error) {
	return OpenWithOptions(path, width, height, delay, bitDepth, dither, Options{})
}

// OpenWithOptions is Open with explicit Writer-wide options.
func OpenWithOptions(path string, width, height, delay, bitDepth int, dither bool, opts Options) (*Writer, error) {
	if bitDepth < 1 || bitDepth > 8 {
		return nil, ErrInvalidBitDepth
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("animagif: open %q: %w", path, err)
	}

	w := &Writer{
		f:          f,
		opts:       opts,
		width:      width,
		height:     height,
		oldImage:   make([]byte, width*height*4),
		firstFrame: true,
	}

	if err := w.writeHeader(width, height, delay); err != nil {
		f.Close()
		return nil, err
	}

	runtime.SetFinalizer(w, (*Writer).finalize)

	return w, nil
}

func (w *Writer) writeHeader(width, height, delay int) error {
	if _, err := io.WriteString(w.f, "GIF89a"); err != nil {
		return err
	}

	header := []byte{
		byte(width), byte(width >> 8), byte(height), byte(height >> 8),
		0xf0, 0x00, 0x00, // packed byte, background index, pixel aspect ratio
		0x00, 0x00, 0x00, // dummy global palette color 0: black
		0x00, 0x00, 0x00, // dummy global palette color 1: black
	}
	if _, err := w.f.Write(header); err != nil {
		return err
	}

	if delay != 0 {
		loop := []byte{
			0x21, 0xff, 11, // application extension, length 11
		}
		loop = append(loop, "NETSCAPE2.0"...)
		loop = append(loop,
			3,          // 3 bytes of sub-block data follow
			1, 0x00, 0x00, // loop forever
			0x00, // block terminator
		)
		if _, err := w.f.Write(loop); err != nil {
			return err
		}
	}

	return nil
}

// WriteFrame quantizes rgba (a width*height*4 byte RGBA8 buffer) against a
// fresh palette, maps it onto that palette (dithered or thresholded per
// dither), and writes it as a GIF image block. Pixels that end up identical
// to the previous frame's palettized color are encoded with the
// transparency index, so the decoder leaves them untouched.
func (w *Writer) WriteFrame(rgba []byte, width, height, delay, bitDepth int, dither bool) error {
	if w.closed {
		return ErrClosed
	}
	if bitDepth < 1 || bitDepth > 8 {
		return ErrInvalidBitDepth
	}
	if len(rgba) != width*height*4 {
		return ErrDimensionMismatch
	}

	var prior []byte
	if !w.firstFrame {
		prior = w.oldImage
	}
	w.firstFrame = false

	var pal *palette.Palette
	if dither {
		pal = palette.Build(nil, rgba, width, height, bitDepth, true)
	} else {
		pal = palette.Build(prior, rgba, width, height, bitDepth, false)
	}

	indexed := make([]byte, width*height*4)
	if dither {
		ditherImage(prior, rgba, indexed, width, height, pal)
	} else {
		thresholdImage(prior, rgba, indexed, width, height, pal)
	}

	if err := w.writeImageBlock(indexed, width, height, delay, pal); err != nil {
		return err
	}

	w.lastPalette = paletteBytes(pal)
	w.lastIndexed = indexed

	if len(w.oldImage) != len(indexed) {
		w.oldImage = make([]byte, len(indexed))
	}
	copy(w.oldImage, indexed)
	w.width, w.height = width, height

	return nil
}

func (w *Writer) writeImageBlock(indexed []byte, width, height, delay int, pal *palette.Palette) error {
	// graphic control extension: disposal = do not dispose, transparency
	// enabled, transparent color index 0
	gce := []byte{
		0x21, 0xf9, 0x04, 0x05,
		byte(delay), byte(delay >> 8),
		transparencyIndex,
		0x00,
	}
	if _, err := w.f.Write(gce); err != nil {
		return err
	}

	// image descriptor: top-left corner at (0,0), local color table present
	desc := []byte{
		0x2c,
		0x00, 0x00, 0x00, 0x00,
		byte(width), byte(width >> 8), byte(height), byte(height >> 8),
		byte(0x80 + pal.BitDepth - 1),
	}
	if _, err := w.f.Write(desc); err != nil {
		return err
	}

	if err := writePalette(w.f, pal); err != nil {
		return err
	}

	if _, err := w.f.Write([]byte{byte(pal.BitDepth)}); err != nil {
		return err
	}

	enc := lzw.NewEncoder(w.f, pal.BitDepth, lzw.Options{BottomUp: w.opts.BottomUp})
	return enc.Encode(indexed, width, height)
}

func writePalette(w io.Writer, pal *palette.Palette) error {
	_, err := w.Write(paletteBytes(pal))
	return err
}

func paletteBytes(pal *palette.Palette) []byte {
	n := 1 << pal.BitDepth
	buf := make([]byte, n*3)
	for i := 0; i < n; i++ {
		buf[i*3], buf[i*3+1], buf[i*3+2] = pal.R[i], pal.G[i], pal.B[i]
	}
	return buf
}

// Close writes the GIF trailer byte and releases the file handle and
// internal buffers. It is idempotent: a second call returns ErrClosed rather
// than writing a second trailer byte.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	runtime.SetFinalizer(w, nil)

	_, err := w.f.Write([]byte{0x3b})
	closeErr := w.f.Close()
	w.oldImage = nil

	if err != nil {
		return err
	}
	return closeErr
}

// finalize is attached as a runtime finalizer in Open, so that a Writer
// dropped without an explicit Close still emits the trailer byte and
// releases its file handle, reproducing the reference implementation's
// scope-exit file cleanup. Errors from this path are not observable to the
// caller; an explicit Close should be preferred whenever the caller can
// make one.
func (w *Writer) finalize() {
	if w.closed {
		return
	}
	_ = w.Close()
}
