// Package interpolation provides the one-dimensional interpolators used to build
// yield curves from node rates, together with their node-sensitivity weights.
package interpolation

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownInterpolator is returned by ByName for an unrecognised name.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

// Interpolator evaluates a curve through (xs, ys) nodes.
//
// xs must be strictly increasing; callers validate this once when the curve is built.
type Interpolator interface {
	// Interpolate returns y(x).
	Interpolate(xs, ys []float64, x float64) float64
	// NodeSensitivities returns ∂y(x)/∂ys[k] for every node k.
	NodeSensitivities(xs, ys []float64, x float64) []float64
	// Name identifies the scheme in configuration and logs.
	Name() string
}

// Names accepted by ByName.
const (
	NameLinear       = "linear"
	NameLinearRT     = "linear_rt"
	NameNaturalCubic = "natural_cubic"
)

// ByName returns the interpolator registered under name (case-insensitive).
func ByName(name string) (Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameLinear, "":
		return Linear{}, nil
	case NameLinearRT, "log_linear_df":
		return LinearRT{}, nil
	case NameNaturalCubic:
		return NaturalCubic{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownInterpolator, "%q", name)
	}
}

// Linear interpolates linearly between nodes and extrapolates flat.
type Linear struct{}

func (Linear) Name() string { return NameLinear }

func (Linear) Interpolate(xs, ys []float64, x float64) float64 {
	i, w, inside := locate(xs, x)
	if !inside {
		return ys[i]
	}
	return (1-w)*ys[i] + w*ys[i+1]
}

func (Linear) NodeSensitivities(xs, ys []float64, x float64) []float64 {
	out := make([]float64, len(xs))
	i, w, inside := locate(xs, x)
	if !inside {
		out[i] = 1
		return out
	}
	out[i] = 1 - w
	out[i+1] = w
	return out
}

// LinearRT interpolates y·x linearly, which for zero rates is log-linear interpolation
// of discount factors (piecewise-constant forwards). Outside the node range the rate is flat.
type LinearRT struct{}

func (LinearRT) Name() string { return NameLinearRT }

func (LinearRT) Interpolate(xs, ys []float64, x float64) float64 {
	i, w, inside := locate(xs, x)
	if !inside || x == 0 {
		return ys[i]
	}
	return ((1-w)*ys[i]*xs[i] + w*ys[i+1]*xs[i+1]) / x
}

func (LinearRT) NodeSensitivities(xs, ys []float64, x float64) []float64 {
	out := make([]float64, len(xs))
	i, w, inside := locate(xs, x)
	if !inside || x == 0 {
		out[i] = 1
		return out
	}
	out[i] = (1 - w) * xs[i] / x
	out[i+1] = w * xs[i+1] / x
	return out
}
