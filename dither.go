package animagif

import "github.com/rkburrow/animagif/palette"

// ditherImage maps each pixel of next onto pal using Floyd–Steinberg
// error diffusion, writing the chosen RGB and palette index into out. Each
// channel is tracked with 8 bits of fractional precision (channel*256) so
// that sub-single-color error can be propagated between pixels. As with
// thresholdImage, a pixel whose rounded "wanted" color exactly matches
// prior's corresponding pixel is marked transparent instead of palettized,
// and no error is diffused from it. prior may be nil.
func ditherImage(prior, next, out []byte, width, height int, pal *palette.Palette) {
	numPixels := width * height

	acc := make([]int32, numPixels*4)
	for i, v := range next[:numPixels*4] {
		acc[i] = int32(v) * 256
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			p := acc[i*4 : i*4+4]

			wantR := int((p[0] + 127) / 256)
			wantG := int((p[1] + 127) / 256)
			wantB := int((p[2] + 127) / 256)

			if prior != nil {
				pi := i * 4
				if int(prior[pi+0]) == wantR && int(prior[pi+1]) == wantG && int(prior[pi+2]) == wantB {
					p[0], p[1], p[2], p[3] = int32(wantR), int32(wantG), int32(wantB), transparencyIndex
					continue
				}
			}

			bestInd, _ := pal.Closest(wantR, wantG, wantB, transparencyIndex, 1000000, 1)

			rErr := p[0] - int32(pal.R[bestInd])*256
			gErr := p[1] - int32(pal.G[bestInd])*256
			bErr := p[2] - int32(pal.B[bestInd])*256

			p[0] = int32(pal.R[bestInd])
			p[1] = int32(pal.G[bestInd])
			p[2] = int32(pal.B[bestInd])
			p[3] = int32(bestInd)

			diffuse(acc, numPixels, i+1, rErr, gErr, bErr, 7)
			diffuse(acc, numPixels, i+width-1, rErr, gErr, bErr, 3)
			diffuse(acc, numPixels, i+width, rErr, gErr, bErr, 5)
			diffuse(acc, numPixels, i+width+1, rErr, gErr, bErr, 1)
		}
	}

	for i := 0; i < numPixels; i++ {
		out[i*4+0] = byte(acc[i*4+0])
		out[i*4+1] = byte(acc[i*4+1])
		out[i*4+2] = byte(acc[i*4+2])
		out[i*4+3] = byte(acc[i*4+3])
	}
}

// diffuse adds weight/16 of the given error to the accumulator at loc,
// clamped so the accumulator never goes negative. A negative accumulator
// would otherwise make the next pixel's rounding fight the error this pixel
// just propagated.
func diffuse(acc []int32, numPixels, loc int, rErr, gErr, bErr int32, weight int32) {
	if loc < 0 || loc >= numPixels {
		return
	}
	p := acc[loc*4 : loc*4+3]
	p[0] += max32(-p[0], rErr*weight/16)
	p[1] += max32(-p[1], gErr*weight/16)
	p[2] += max32(-p[2], bErr*weight/16)
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
