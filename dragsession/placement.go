package dragsession

import "math"

// InsertionIndex maps a pointer position to the index a dragged card should
// be inserted at, given the vertical midpoints of the candidate cards in
// display order. The winner is the closest candidate whose midpoint lies
// below the pointer; ties go to the first candidate scanned. When no
// midpoint lies below the pointer the card belongs at the end.
func InsertionIndex(pointerY float64, midpoints []float64) int {
	best := len(midpoints)
	bestOffset := math.Inf(1)
	for i, m := range midpoints {
		offset := m - pointerY
		if offset > 0 && offset < bestOffset {
			bestOffset = offset
			best = i
		}
	}
	return best
}
