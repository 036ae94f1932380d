package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"sort"

	"github.com/maruel/natural"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "animagif"
	app.Usage = "animated GIF encoder"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		encodeCommand,
		exampleCommand,
		manCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loggerFor(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

var encodeCommand = &cli.Command{
	Name:      "encode",
	Usage:     "Encode a sequence of images into an animated GIF",
	ArgsUsage: "FILE...",
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
		&cli.BoolFlag{
			Name:  "dither",
			Usage: "dither frames instead of nearest-color thresholding",
		},
		&cli.BoolFlag{
			Name:  "numeric-sort",
			Usage: "sort input filenames in natural numeric order before encoding",
		},
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "path to a SQLite encode manifest used to skip already-finished outputs",
		},
		&cli.BoolFlag{
			Name:  "verify-palette",
			Usage: "cross-check each frame's palette against a reference median-cut quantizer (verbose only)",
		},
		&cli.StringFlag{
			Name:  "debug-dump",
			Usage: "path to a zstd-compressed dump of per-frame quantization diagnostics",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("encode requires at least one input file", 1)
		}

		logger := loggerFor(c)

		files := c.Args().Slice()
		if c.Bool("numeric-sort") {
			sort.Slice(files, func(i, j int) bool {
				return natural.Less(files[i], files[j])
			})
		}

		opts := encodeOptions{
			outputFile:    c.String("output-file"),
			delay:         c.Int("delay"),
			bitDepth:      c.Int("bit-depth"),
			dither:        c.Bool("dither"),
			manifest:      c.String("manifest"),
			verifyPalette: c.Bool("verify-palette"),
			debugDump:     c.String("debug-dump"),
		}

		if err := encodeFiles(files, opts, logger); err != nil {
			return cli.Exit(err, 2)
		}

		return nil
	},
}

var manCommand = &cli.Command{
	Name:  "man",
	Usage: "Generate a man page for this command",
	Action: func(c *cli.Context) error {
		man, err := c.App.ToMan()
		if err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintln(c.App.Writer, man)
		return nil
	},
}

// decodeImage loads an image file using the standard library's registered
// decoders (image/gif, image/jpeg, image/png) and converts it to a flat
// RGBA8 buffer in the shape animagif.Writer.WriteFrame expects.
func decodeImage(path string) ([]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	b := m.Bounds()
	width, height := b.Dx(), b.Dy()
	rgba := make([]byte, width*height*4)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := m.At(x, y).RGBA()
			rgba[i+0] = byte(r >> 8)
			rgba[i+1] = byte(g >> 8)
			rgba[i+2] = byte(bl >> 8)
			rgba[i+3] = byte(a >> 8)
			i += 4
		}
	}

	return rgba, width, height, nil
}
