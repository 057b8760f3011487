// Package curves holds yield curves and the immutable, name-indexed bundles that
// instruments are valued against.
package curves

import (
	"math"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/interpolation"
)

var (
	// ErrInvalidNodes is returned when node times and rates cannot define a curve.
	ErrInvalidNodes = errors.New("invalid curve nodes")
)

// YieldCurve provides continuously-compounded zero rates and discount factors by time
// (year fraction from the valuation date).
type YieldCurve interface {
	InterestRate(t float64) float64
	DiscountFactor(t float64) float64
}

// InterpolatedCurve is a zero-rate curve through (time, rate) nodes.
type InterpolatedCurve struct {
	times  []float64
	rates  []float64
	interp interpolation.Interpolator
}

// NewInterpolatedCurve copies the nodes and validates them: equal, non-zero lengths,
// finite values and strictly increasing times.
func NewInterpolatedCurve(times, rates []float64, interp interpolation.Interpolator) (*InterpolatedCurve, error) {
	if interp == nil {
		return nil, errors.Wrap(ErrInvalidNodes, "nil interpolator")
	}
	if len(times) == 0 {
		return nil, errors.Wrap(ErrInvalidNodes, "no nodes")
	}
	if len(times) != len(rates) {
		return nil, errors.Wrapf(ErrInvalidNodes, "%d times vs %d rates", len(times), len(rates))
	}
	if err := ValidateTimes(times); err != nil {
		return nil, err
	}
	for i, r := range rates {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, errors.Wrapf(ErrInvalidNodes, "rate %d is not finite", i)
		}
	}
	c := &InterpolatedCurve{
		times:  make([]float64, len(times)),
		rates:  make([]float64, len(rates)),
		interp: interp,
	}
	copy(c.times, times)
	copy(c.rates, rates)
	return c, nil
}

// ValidateTimes checks that node times are finite and strictly increasing.
func ValidateTimes(times []float64) error {
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errors.Wrapf(ErrInvalidNodes, "time %d is not finite", i)
		}
		if i > 0 && t <= times[i-1] {
			return errors.Wrapf(ErrInvalidNodes, "times not strictly increasing at %d (%v <= %v)", i, t, times[i-1])
		}
	}
	return nil
}

func (c *InterpolatedCurve) InterestRate(t float64) float64 {
	return c.interp.Interpolate(c.times, c.rates, t)
}

func (c *InterpolatedCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.InterestRate(t) * t)
}

// NodeSensitivities returns ∂r(t)/∂rate_k for every node k.
func (c *InterpolatedCurve) NodeSensitivities(t float64) []float64 {
	return c.interp.NodeSensitivities(c.times, c.rates, t)
}

// NodeTimes returns a copy of the node times.
func (c *InterpolatedCurve) NodeTimes() []float64 {
	out := make([]float64, len(c.times))
	copy(out, c.times)
	return out
}

// NodeRates returns a copy of the node rates.
func (c *InterpolatedCurve) NodeRates() []float64 {
	out := make([]float64, len(c.rates))
	copy(out, c.rates)
	return out
}

// Size is the number of nodes.
func (c *InterpolatedCurve) Size() int { return len(c.times) }

func (c *InterpolatedCurve) Interpolator() interpolation.Interpolator { return c.interp }

// ConstantCurve has the same zero rate at every time.
type ConstantCurve struct {
	Rate float64
}

func (c ConstantCurve) InterestRate(float64) float64 { return c.Rate }

func (c ConstantCurve) DiscountFactor(t float64) float64 { return math.Exp(-c.Rate * t) }
