package animagif

import "github.com/rkburrow/animagif/palette"

// thresholdImage maps each pixel of next onto pal by nearest-color lookup,
// writing the chosen RGB and palette index into out (width*height*4 bytes,
// index in the fourth byte of each pixel). Pixels whose RGB exactly matches
// the corresponding pixel in prior are instead marked with the transparency
// index, so the decoder leaves them showing the previous frame's color.
// prior may be nil, in which case no pixel is ever treated as unchanged.
func thresholdImage(prior, next, out []byte, width, height int, pal *palette.Palette) {
	numPixels := width * height

	for i := 0; i < numPixels; i++ {
		ni := i * 4
		oi := i * 4

		if prior != nil {
			pi := i * 4
			if prior[pi+0] == next[ni+0] && prior[pi+1] == next[ni+1] && prior[pi+2] == next[ni+2] {
				out[oi+0] = prior[pi+0]
				out[oi+1] = prior[pi+1]
				out[oi+2] = prior[pi+2]
				out[oi+3] = transparencyIndex
				continue
			}
		}

		r, g, b := int(next[ni+0]), int(next[ni+1]), int(next[ni+2])
		bestInd, _ := pal.Closest(r, g, b, 1, 1000000, 1)

		out[oi+0] = pal.R[bestInd]
		out[oi+1] = pal.G[bestInd]
		out[oi+2] = pal.B[bestInd]
		out[oi+3] = byte(bestInd)
	}
}
