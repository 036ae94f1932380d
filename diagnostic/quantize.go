/*
Package diagnostic provides optional, read-only cross-checks for the
animagif encoder: a comparison against a reference median-cut quantizer, and
a compressed dump of per-frame quantization decisions. Nothing here is on
the hot encode path; it exists to help a caller (typically the CLI driver)
convince itself the hand-rolled quantizer in package palette is behaving
sanely on real input.
*/
package diagnostic

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// PaletteDivergence reports how far the hand-rolled palette in package
// palette strayed from github.com/ericpauley/go-quantize's median-cut
// palette for the same pixels, for a given quantized color table size.
type PaletteDivergence struct {
	// MeanL1 is the mean Manhattan distance, over every sampled pixel,
	// between the color animagif's quantizer chose and the color
	// go-quantize's quantizer chose for the same pixel.
	MeanL1 float64
	Pixels int
}

// ReferencePalette builds a color.Palette of size colors for rgba (a flat
// width*height*4 RGBA buffer) using go-quantize's MedianCutQuantizer, the
// same third-party quantizer the teacher implementation this package is
// adapted from used for its own image encoder.
func ReferencePalette(rgba []byte, width, height, colors int) color.Palette {
	img := &image.RGBA{
		Pix:    rgba,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	q := quantize.MedianCutQuantizer{}
	return q.Quantize(make(color.Palette, 0, colors), img)
}

// Compare walks every pixel of rgba, finds its nearest color in both ref and
// the (r, g, b) arrays produced by the animagif palette (via lookup, a
// caller-supplied closure so this package need not depend on package
// animagif or palette directly, avoiding an import cycle), and reports the
// mean divergence between the two.
func Compare(rgba []byte, width, height int, ref color.Palette, lookup func(r, g, b int) (byte, byte, byte)) PaletteDivergence {
	numPixels := width * height

	var total float64
	for i := 0; i < numPixels; i++ {
		r := int(rgba[i*4+0])
		g := int(rgba[i*4+1])
		b := int(rgba[i*4+2])

		refIdx := ref.Index(color.RGBA{uint8(r), uint8(g), uint8(b), 0xff})
		refR, refG, refB, _ := ref[refIdx].RGBA()

		ourR, ourG, ourB := lookup(r, g, b)

		total += l1(int(refR>>8), int(ourR)) + l1(int(refG>>8), int(ourG)) + l1(int(refB>>8), int(ourB))
	}

	mean := 0.0
	if numPixels > 0 {
		mean = total / float64(numPixels)
	}

	return PaletteDivergence{MeanL1: mean, Pixels: numPixels}
}

func l1(a, b int) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
