package lzw

import "io"

const dictSize = 4096

// node is one entry of the LZW dictionary, a 256-ary tree constructed as the
// image is encoded. next[sym] is the successor code for "current run,
// followed by sym", or 0 if that extension of the run hasn't been seen yet.
type node struct {
	next [256]uint16
}

// Options configures an Encoder.
type Options struct {
	// BottomUp, when true, reads the index image bottom row first, as if it
	// had a bottom-left origin (e.g. captured from OpenGL), without
	// requiring the caller to flip the buffer itself. The reference this
	// package is ported from exposed this as a preprocessor flag fixed at
	// compile time; Go has no equivalent, so it is a construction-time
	// option instead.
	BottomUp bool
}

// Encoder is an adaptive variable-width LZW compressor for GIF index
// streams. It reads the fourth byte (the palette index) of each 4-byte
// pixel in the image it is given.
type Encoder struct {
	w       io.Writer
	packer  *bitPacker
	minBits int
	opts    Options
	dict    [dictSize]node
}

// NewEncoder returns an Encoder writing GIF LZW sub-blocks to w. minCodeSize
// is the initial code width in bits, equal to the palette's bit depth.
func NewEncoder(w io.Writer, minCodeSize int, opts Options) *Encoder {
	return &Encoder{
		w:       w,
		packer:  newBitPacker(w),
		minBits: minCodeSize,
		opts:    opts,
	}
}

// Encode LZW-compresses the index channel of image (width*height pixels, 4
// bytes each) and writes it as GIF sub-blocks terminated by a zero-length
// sub-block. It does not write the leading min-code-size byte; callers write
// that themselves as part of the image descriptor.
func (e *Encoder) Encode(image []byte, width, height int) error {
	clearCode := uint32(1 << e.minBits)
	eoi := clearCode + 1
	codeSize := e.minBits + 1
	maxCode := clearCode + 1

	for i := range e.dict {
		e.dict[i] = node{}
	}

	e.packer.writeCode(clearCode, codeSize)

	currCode := -1

	symbolAt := func(x, y int) byte {
		yy := y
		if e.opts.BottomUp {
			yy = height - 1 - y
		}
		return image[(yy*width+x)*4+3]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sym := symbolAt(x, y)

			switch {
			case currCode < 0:
				currCode = int(sym)
			case e.dict[currCode].next[sym] != 0:
				currCode = int(e.dict[currCode].next[sym])
			default:
				e.packer.writeCode(uint32(currCode), codeSize)

				maxCode++
				e.dict[currCode].next[sym] = uint16(maxCode)

				if maxCode >= uint32(1<<codeSize) {
					codeSize++
				}
				if maxCode == 4095 {
					e.packer.writeCode(clearCode, codeSize)
					for i := range e.dict {
						e.dict[i] = node{}
					}
					codeSize = e.minBits + 1
					maxCode = clearCode + 1
				}

				currCode = int(sym)
			}
		}
	}

	e.packer.writeCode(uint32(currCode), codeSize)
	e.packer.writeCode(clearCode, codeSize)
	e.packer.writeCode(eoi, e.minBits+1)

	e.packer.padToByte()
	e.packer.flushChunk()

	if e.packer.err != nil {
		return e.packer.err
	}

	if _, err := e.w.Write([]byte{0}); err != nil {
		return err
	}

	return nil
}
