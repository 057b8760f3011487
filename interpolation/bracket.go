package interpolation

import "sort"

// findBracketOrBoundary returns the index i of the interval [xs[i], xs[i+1]] holding x.
// Outside the node range it returns the nearest boundary interval.
func findBracketOrBoundary(xs []float64, x float64) int {
	// first index with xs[idx] >= x
	idx := sort.SearchFloat64s(xs, x)
	if idx <= 0 {
		return 0
	}
	if idx >= len(xs) {
		return len(xs) - 2
	}
	return idx - 1
}

// locate finds where x sits on the node grid.
//
// When x lies strictly inside the grid, it returns the lower node index and the linear
// weight of the upper node with inside == true. Otherwise it returns the index of the
// boundary node x is clamped to.
func locate(xs []float64, x float64) (i int, w float64, inside bool) {
	n := len(xs)
	if n == 1 || x <= xs[0] {
		return 0, 0, false
	}
	if x >= xs[n-1] {
		return n - 1, 0, false
	}
	i = findBracketOrBoundary(xs, x)
	return i, (x - xs[i]) / (xs[i+1] - xs[i]), true
}

func clamp(xs []float64, x float64) float64 {
	if x < xs[0] {
		return xs[0]
	}
	if last := xs[len(xs)-1]; x > last {
		return last
	}
	return x
}
