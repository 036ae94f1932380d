package palette

// partition performs the quicksort partition step on pixels[left:right] by
// the given color axis, using the pixel at pivotIndex as the pivot. Pixels
// with a value strictly less than the pivot end up to the left of the
// returned store index; pixels equal to the pivot are alternated between the
// left and right sides to keep the partition balanced on runs of constant
// color.
func partition(pixels []byte, left, right, axis, pivotIndex int) int {
	pivotValue := pixels[pivotIndex*4+axis]
	swapPixels(pixels, pivotIndex, right-1)

	storeIndex := left
	split := false
	for i := left; i < right-1; i++ {
		val := pixels[i*4+axis]
		switch {
		case val < pivotValue:
			swapPixels(pixels, i, storeIndex)
			storeIndex++
		case val == pivotValue:
			if split {
				swapPixels(pixels, i, storeIndex)
				storeIndex++
			}
			split = !split
		}
	}

	swapPixels(pixels, storeIndex, right-1)

	return storeIndex
}

// partitionByMedian performs an incomplete sort of pixels[left:right] along
// axis, descending only into the half that contains target, so that the
// pixel at index target ends up with every element to its left no greater
// and every element to its right no smaller.
func partitionByMedian(pixels []byte, left, right, axis, target int) {
	for left < right-1 {
		pivotIndex := left + (right-left)/2
		pivotIndex = partition(pixels, left, right, axis, pivotIndex)

		switch {
		case pivotIndex > target:
			right = pivotIndex
		case pivotIndex < target:
			left = pivotIndex + 1
		default:
			return
		}
	}
}
