package main

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v2"

	"github.com/rkburrow/animagif"
)

var exampleCommand = &cli.Command{
	Name:  "example",
	Usage: "Generate a self-contained animated cosine-gradient GIF, for smoke-testing the encoder",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "output-file",
			Value: "out.gif",
			Usage: "name of the file to generate",
		},
		&cli.IntFlag{
			Name:  "delay",
			Value: 2,
			Usage: "delay in hundredths of a second between frames",
		},
		&cli.IntFlag{
			Name:  "bit-depth",
			Value: 8,
			Usage: "palette bit depth, 1-8",
		},
		&cli.IntFlag{
			Name:  "size",
			Value: 128,
			Usage: "width and height, in pixels, of the generated animation",
		},
		&cli.IntFlag{
			Name:  "frames",
			Value: 64,
			Usage: "number of frames to generate",
		},
	},
	Action: func(c *cli.Context) error {
		logger := loggerFor(c)

		size := c.Int("size")
		totalFrames := c.Int("frames")
		delay := c.Int("delay")
		bitDepth := c.Int("bit-depth")

		w, err := animagif.Open(c.String("output-file"), size, size, delay, bitDepth, true)
		if err != nil {
			return cli.Exit(fmt.Errorf("opening output: %w", err), 2)
		}
		defer w.Close()

		for frame := 0; frame < totalFrames; frame++ {
			logger.Printf("writing frame %d/%d\n", frame+1, totalFrames)

			img := cosineGradientFrame(size, size, frame, totalFrames)
			if err := w.WriteFrame(img, size, size, delay, bitDepth, true); err != nil {
				return cli.Exit(fmt.Errorf("writing frame %d: %w", frame, err), 2)
			}
		}

		return w.Close()
	},
}

// cosineGradientFrame reproduces the reference implementation's example
// generator: a classic shadertoy-style traveling cosine-wave gradient,
// credited there to shadertoy.com, useful as an encoder smoke test that
// needs no external image files.
func cosineGradientFrame(width, height, frame, totalFrames int) []byte {
	img := make([]byte, width*height*4)

	tt := float64(frame) * math.Pi * 2 / float64(totalFrames)

	i := 0
	for y := 0; y < height; y++ {
		fy := float64(y) / float64(height)
		for x := 0; x < width; x++ {
			fx := float64(x) / float64(width)

			red := 0.5 + 0.5*math.Cos(tt+fx)
			grn := 0.5 + 0.5*math.Cos(tt+fy+2)
			blu := 0.5 + 0.5*math.Cos(tt+fx+4)

			img[i+0] = toUnorm(red)
			img[i+1] = toUnorm(grn)
			img[i+2] = toUnorm(blu)
			img[i+3] = 0xff
			i += 4
		}
	}

	return img
}

func toUnorm(f float64) byte {
	return byte(math.Round(255 * f))
}
