package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rkburrow/animagif"
	"github.com/rkburrow/animagif/diagnostic"
	"github.com/rkburrow/animagif/palette"
)

type encodeOptions struct {
	outputFile    string
	delay         int
	bitDepth      int
	dither        bool
	manifest      string
	verifyPalette bool
	debugDump     string
}

// encodeFiles decodes each of files in order and writes them as consecutive
// frames of a single animated GIF at opts.outputFile. It follows the
// teacher's db.go/pipeline.go pattern of an optional SQLite session record
// used to skip work already finished by a prior run.
func encodeFiles(files []string, opts encodeOptions, logger *log.Logger) error {
	var manifest *animagif.Manifest
	if opts.manifest != "" {
		m, err := animagif.OpenManifest(opts.manifest)
		if err != nil {
			return fmt.Errorf("opening manifest: %w", err)
		}
		defer m.Close()
		manifest = m

		done, err := manifest.IsFinished(opts.outputFile)
		if err != nil {
			return fmt.Errorf("checking manifest: %w", err)
		}
		if done {
			logger.Printf("%s already finished per manifest, skipping\n", opts.outputFile)
			return nil
		}
	}

	first, width, height, err := decodeImage(files[0])
	if err != nil {
		return fmt.Errorf("decoding %q: %w", files[0], err)
	}

	if manifest != nil {
		if err := manifest.Begin(opts.outputFile, width, height, opts.bitDepth, opts.dither); err != nil {
			return fmt.Errorf("recording manifest start: %w", err)
		}
	}

	var dump *diagnostic.Dump
	if opts.debugDump != "" {
		d, err := diagnostic.CreateDump(opts.debugDump)
		if err != nil {
			return fmt.Errorf("creating debug dump: %w", err)
		}
		defer d.Close()
		dump = d
	}

	w, err := animagif.Open(opts.outputFile, width, height, opts.delay, opts.bitDepth, opts.dither)
	if err != nil {
		return fmt.Errorf("opening %q: %w", opts.outputFile, err)
	}
	defer w.Close()

	var written int64
	frames := [][]byte{first}
	for _, file := range files[1:] {
		rgba, fw, fh, err := decodeImage(file)
		if err != nil {
			return fmt.Errorf("decoding %q: %w", file, err)
		}
		if fw != width || fh != height {
			return fmt.Errorf("%q is %dx%d, expected %dx%d", file, fw, fh, width, height)
		}
		frames = append(frames, rgba)
	}

	for i, rgba := range frames {
		logger.Printf("writing frame %d/%d\n", i+1, len(frames))

		if opts.verifyPalette {
			logDivergence(logger, rgba, width, height, opts.bitDepth)
		}

		if err := w.WriteFrame(rgba, width, height, opts.delay, opts.bitDepth, opts.dither); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}

		if dump != nil {
			pal, indexed := w.LastFrameDiagnostics()
			if err := dump.WriteFrame(pal, indexed, width, height); err != nil {
				return fmt.Errorf("writing debug dump for frame %d: %w", i, err)
			}
		}

		if manifest != nil {
			info, err := os.Stat(opts.outputFile)
			if err != nil {
				return fmt.Errorf("recording manifest frame: %w", err)
			}
			if err := manifest.RecordFrame(opts.outputFile, int(info.Size()-written)); err != nil {
				return fmt.Errorf("recording manifest frame: %w", err)
			}
			written = info.Size()
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", opts.outputFile, err)
	}

	if manifest != nil {
		if err := manifest.Finish(opts.outputFile); err != nil {
			return fmt.Errorf("recording manifest finish: %w", err)
		}
	}

	return nil
}

// logDivergence builds the same palette Writer.WriteFrame would for this
// frame (threshold mode, no prior) and compares it against go-quantize's
// median-cut quantizer, purely for the caller's information.
func logDivergence(logger *log.Logger, rgba []byte, width, height, bitDepth int) {
	ref := diagnostic.ReferencePalette(rgba, width, height, 1<<bitDepth)
	if len(ref) == 0 {
		return
	}

	pal := palette.Build(nil, rgba, width, height, bitDepth, false)

	div := diagnostic.Compare(rgba, width, height, ref, func(r, g, b int) (byte, byte, byte) {
		idx, _ := pal.Closest(r, g, b, 1, 1000000, 1)
		return pal.R[idx], pal.G[idx], pal.B[idx]
	})

	logger.Printf("palette divergence vs reference quantizer: mean L1 %.2f over %d pixels\n", div.MeanL1, div.Pixels)
}
