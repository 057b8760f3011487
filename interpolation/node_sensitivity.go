package interpolation

// DefaultFiniteDifferenceShift is the node bump used when FiniteDifference.Shift is zero.
const DefaultFiniteDifferenceShift = 1e-6

// NodeSensitivityCalculator produces the weights ∂y(x)/∂ys[k] used to push a
// sensitivity at time x onto curve nodes.
type NodeSensitivityCalculator interface {
	NodeSensitivities(interp Interpolator, xs, ys []float64, x float64) []float64
}

// Analytic asks the interpolator for its closed-form weights.
type Analytic struct{}

func (Analytic) NodeSensitivities(interp Interpolator, xs, ys []float64, x float64) []float64 {
	return interp.NodeSensitivities(xs, ys, x)
}

// FiniteDifference bumps each node up and down by Shift and differences the interpolated value.
// It serves interpolators whose weights are awkward to derive and as a check on Analytic.
type FiniteDifference struct {
	Shift float64
}

func (fd FiniteDifference) NodeSensitivities(interp Interpolator, xs, ys []float64, x float64) []float64 {
	h := fd.Shift
	if h <= 0 {
		h = DefaultFiniteDifferenceShift
	}
	bumped := make([]float64, len(ys))
	copy(bumped, ys)

	out := make([]float64, len(ys))
	for k := range ys {
		bumped[k] = ys[k] + h
		up := interp.Interpolate(xs, bumped, x)
		bumped[k] = ys[k] - h
		down := interp.Interpolate(xs, bumped, x)
		bumped[k] = ys[k]
		out[k] = (up - down) / (2 * h)
	}
	return out
}
