package interpolation

import "gonum.org/v1/gonum/interp"

// NaturalCubic is a natural cubic spline through the nodes with flat extrapolation.
// Fewer than three nodes fall back to Linear.
type NaturalCubic struct{}

func (NaturalCubic) Name() string { return NameNaturalCubic }

func (NaturalCubic) Interpolate(xs, ys []float64, x float64) float64 {
	if len(xs) < 3 {
		return Linear{}.Interpolate(xs, ys, x)
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		// only reachable with unsorted nodes, which curves reject at construction
		return Linear{}.Interpolate(xs, ys, x)
	}
	return spline.Predict(clamp(xs, x))
}

// NodeSensitivities fits the spline through each unit vector: the natural spline is
// linear in ys, so the value at x of the k-th basis spline is ∂y(x)/∂ys[k].
func (NaturalCubic) NodeSensitivities(xs, ys []float64, x float64) []float64 {
	if len(xs) < 3 {
		return Linear{}.NodeSensitivities(xs, ys, x)
	}
	n := len(xs)
	out := make([]float64, n)
	unit := make([]float64, n)
	at := clamp(xs, x)
	for k := 0; k < n; k++ {
		unit[k] = 1
		var spline interp.NaturalCubic
		if err := spline.Fit(xs, unit); err != nil {
			return Linear{}.NodeSensitivities(xs, ys, x)
		}
		out[k] = spline.Predict(at)
		unit[k] = 0
	}
	return out
}
