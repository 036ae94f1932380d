package diagnostic

import (
	"encoding/binary"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Dump writes a zstd-compressed, append-only log of per-frame quantization
// diagnostics: for each frame, an 8-byte header (palette length in bytes and
// pixel count, each a little-endian uint32), then its palette (3 bytes per
// color), then the chosen index for every pixel. All frames go into a single
// zstd stream. It is never read back by the encoder
// itself — it exists purely for offline inspection of why a given frame's
// palette turned out the way it did.
type Dump struct {
	f   *os.File
	enc *zstd.Encoder
}

// CreateDump creates path and prepares it to receive frames via WriteFrame.
func CreateDump(path string) (*Dump, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Dump{f: f, enc: enc}, nil
}

// WriteFrame appends one frame's diagnostics: palette (r,g,b per color) and
// the per-pixel index channel of indexed (a width*height*4 buffer whose
// fourth byte per pixel is the chosen palette index).
func (d *Dump) WriteFrame(palette []byte, indexed []byte, width, height int) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(palette)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(width*height))

	if _, err := d.enc.Write(header[:]); err != nil {
		return err
	}
	if _, err := d.enc.Write(palette); err != nil {
		return err
	}

	for i := 0; i < width*height; i++ {
		if _, err := d.enc.Write(indexed[i*4+3 : i*4+4]); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes and closes the underlying zstd stream and file.
func (d *Dump) Close() error {
	if err := d.enc.Close(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
