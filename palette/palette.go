package palette

// Palette is a fixed-capacity color table of up to 2^bitDepth representative
// colors, plus the k-d split tree used to map arbitrary colors onto it.
//
// Slot 0 is reserved for the GIF transparency index and is always black. The
// tree is stored in heap layout: the left child of node i is node 2*i, the
// right child is node 2*i+1. There are at most 2^bitDepth internal nodes.
type Palette struct {
	BitDepth int

	R, G, B [256]byte

	// TreeSplitAxis[i] is 0, 1 or 2 (R, G or B); TreeSplitValue[i] is the
	// threshold in [0,255] for the split at heap node i.
	TreeSplitAxis  [256]byte
	TreeSplitValue [256]byte
}

// leafCount returns 2^bitDepth, the number of leaf slots (and the size of
// the color table).
func leafCount(bitDepth int) int {
	return 1 << bitDepth
}

// Build constructs a Palette from next, a flat R,G,B,A pixel buffer of
// width*height pixels. If prior is non-nil it must be the same size as next;
// in that case only pixels whose R, G or B differs from the corresponding
// pixel in prior are considered (this concentrates palette capacity on the
// delta between frames). When buildForDither is true, prior is ignored for
// the purposes of pixel selection — dithering diffuses error globally and
// needs a frame-representative palette, not a delta-representative one — so
// callers building a palette for dithering should pass the full current
// frame as next and nil as prior regardless of whether a prior frame exists.
func Build(prior, next []byte, width, height, bitDepth int, buildForDither bool) *Palette {
	p := &Palette{BitDepth: bitDepth}

	imageSize := width * height * 4
	scratch := make([]byte, imageSize)
	copy(scratch, next[:imageSize])

	numPixels := width * height
	if prior != nil && !buildForDither {
		numPixels = pickChangedPixels(prior, scratch)
	}

	lastElt := leafCount(bitDepth)
	splitElt := lastElt / 2
	splitDist := splitElt / 2

	p.split(scratch[:numPixels*4], 1, lastElt, splitElt, splitDist, 1, buildForDither)

	// Heap node 2^(bitDepth-1) is the parent of leaf slots 0 and 1 (heap
	// nodes 2^bitDepth and 2^bitDepth+1). split stores slot 1 as a leaf
	// without recording a decision there, so it is set to (axis 0, value 0):
	// every lookup that reaches it descends toward slot 1 first, and slot 0
	// (transparency) is skipped by Closest.
	p.TreeSplitAxis[1<<(bitDepth-1)] = 0
	p.TreeSplitValue[1<<(bitDepth-1)] = 0

	p.R[0], p.G[0], p.B[0] = 0, 0, 0

	return p
}

// pickChangedPixels compacts to the front of next every pixel whose R, G or
// B differs from the corresponding pixel in prior, and returns the number of
// such pixels. Both slices are walked in lock-step regardless of whether a
// given pixel matched.
func pickChangedPixels(prior, next []byte) int {
	numPixels := len(next) / 4
	changed := 0
	write := 0

	for i := 0; i < numPixels; i++ {
		pi, ni := i*4, i*4
		if prior[pi+red] != next[ni+red] || prior[pi+green] != next[ni+green] || prior[pi+blue] != next[ni+blue] {
			next[write*4+red] = next[ni+red]
			next[write*4+green] = next[ni+green]
			next[write*4+blue] = next[ni+blue]
			write++
			changed++
		}
	}

	return changed
}

// split recursively builds the k-d tree over pixels[0 : numPixels*4],
// covering leaf slot range [firstElt, lastElt) rooted at treeNode.
func (p *Palette) split(pixels []byte, firstElt, lastElt, splitElt, splitDist, treeNode int, buildForDither bool) {
	numPixels := len(pixels) / 4
	if lastElt <= firstElt || numPixels == 0 {
		return
	}

	if lastElt == firstElt+1 {
		p.storeLeaf(pixels, firstElt, buildForDither)
		return
	}

	rng := channelRange(pixels)
	splitAxis := green
	if rng[blue] > rng[green] {
		splitAxis = blue
	}
	if rng[red] > rng[blue] && rng[red] > rng[green] {
		splitAxis = red
	}

	subPixelsA := numPixels * (splitElt - firstElt) / (lastElt - firstElt)

	partitionByMedian(pixels, 0, numPixels, splitAxis, subPixelsA)

	p.TreeSplitAxis[treeNode] = byte(splitAxis)
	p.TreeSplitValue[treeNode] = pixels[subPixelsA*4+splitAxis]

	p.split(pixels[:subPixelsA*4], firstElt, splitElt, splitElt-splitDist, splitDist/2, treeNode*2, buildForDither)
	p.split(pixels[subPixelsA*4:], splitElt, lastElt, splitElt+splitDist, splitDist/2, treeNode*2+1, buildForDither)
}

func (p *Palette) storeLeaf(pixels []byte, slot int, buildForDither bool) {
	var c [3]byte
	switch {
	case buildForDither && slot == 1:
		c = darkest(pixels)
	case buildForDither && slot == leafCount(p.BitDepth)-1:
		c = lightest(pixels)
	default:
		c = average(pixels)
	}
	p.R[slot], p.G[slot], p.B[slot] = c[red], c[green], c[blue]
}
