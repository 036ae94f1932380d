package palette

// transparencyIndex is the palette slot reserved to mean "unchanged from the
// prior frame." It is never returned as a color match.
const transparencyIndex = 0

// Closest walks the k-d tree starting at root, looking for the palette slot
// whose color is nearest (by L1/Manhattan distance) to (r, g, b). bestInd and
// bestDiff are in/out parameters: callers seed them (typically bestInd = 0 or
// 1, bestDiff = a large sentinel such as 1000000) and Closest only improves
// them, never makes them worse. Slot 0 (transparency) is never selected.
//
// Manhattan distance is used rather than Euclidean distance because it is
// cheaper to compute and sufficient for visual color matching.
func (p *Palette) Closest(r, g, b, bestInd, bestDiff, root int) (int, int) {
	leaves := leafCount(p.BitDepth)

	if root > leaves-1 {
		slot := root - leaves
		if slot == transparencyIndex {
			return bestInd, bestDiff
		}

		rErr := r - int(p.R[slot])
		gErr := g - int(p.G[slot])
		bErr := b - int(p.B[slot])
		diff := abs(rErr) + abs(gErr) + abs(bErr)

		if diff < bestDiff {
			return slot, diff
		}
		return bestInd, bestDiff
	}

	var comps [3]int
	comps[0], comps[1], comps[2] = r, g, b
	splitComp := comps[p.TreeSplitAxis[root]]
	splitValue := int(p.TreeSplitValue[root])

	if splitValue > splitComp {
		bestInd, bestDiff = p.Closest(r, g, b, bestInd, bestDiff, root*2)
		if bestDiff > splitValue-splitComp {
			bestInd, bestDiff = p.Closest(r, g, b, bestInd, bestDiff, root*2+1)
		}
	} else {
		bestInd, bestDiff = p.Closest(r, g, b, bestInd, bestDiff, root*2+1)
		if bestDiff > splitComp-splitValue {
			bestInd, bestDiff = p.Closest(r, g, b, bestInd, bestDiff, root*2)
		}
	}

	return bestInd, bestDiff
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
