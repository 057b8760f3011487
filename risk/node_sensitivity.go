// Package risk turns curve sensitivities into bucketed sensitivities to the market
// quotes a curve set was calibrated to.
package risk

import (
	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/sensitivity"
)

var (
	ErrNilArgument = errors.New("nil argument")
	// ErrNotInterpolated is returned for a fitted curve without nodes to project onto.
	ErrNotInterpolated = errors.New("fitted curve is not an interpolated curve")
	ErrDimension       = errors.New("dimension mismatch")
	// ErrColumnOrder is returned when fitted curves are not in the Jacobian's column order.
	ErrColumnOrder = errors.New("fitted curves differ from jacobian column order")
)

// NodeSensitivityCalculator projects an instrument's continuous curve sensitivity onto
// the nodes of the fitted curves: the sensitivity to moving each node on its own.
type NodeSensitivityCalculator struct {
	name string
	sens instrument.Visitor[sensitivity.CurveSensitivity]
	// weights, when set, supplies the node-weight calculator of each fitted curve.
	weights *calibration.DataBundle
}

// NewPresentValueNodeSensitivityCalculator differentiates present value.
func NewPresentValueNodeSensitivityCalculator() *NodeSensitivityCalculator {
	return &NodeSensitivityCalculator{name: "present value", sens: calculator.PresentValueCurveSensitivityCalculator{}}
}

// NewParRateNodeSensitivityCalculator differentiates the par rate.
func NewParRateNodeSensitivityCalculator() *NodeSensitivityCalculator {
	return &NodeSensitivityCalculator{name: "par rate", sens: calculator.ParRateCurveSensitivityCalculator{}}
}

// WithNodeWeights returns a copy that projects onto nodes with the node-weight
// calculators data was calibrated with, instead of each curve's analytic weights.
// Every fitted curve must then be one of data's curves.
func (c *NodeSensitivityCalculator) WithNodeWeights(data *calibration.DataBundle) *NodeSensitivityCalculator {
	if c == nil {
		return nil
	}
	cp := *c
	cp.weights = data
	return &cp
}

// CalculateSensitivities returns one value per fitted node, curves in fitted.Names()
// order. Points on fixed curves are dropped.
func (c *NodeSensitivityCalculator) CalculateSensitivities(d instrument.Derivative, fixed, fitted *curves.Bundle) ([]float64, error) {
	if c == nil || instrument.IsNil(d) || fixed == nil || fitted == nil {
		return nil, ErrNilArgument
	}

	weights := make(map[string]func(t float64) []float64, fitted.Len())
	starts := make(map[string]int, fitted.Len())
	total := 0
	for _, name := range fitted.Names() {
		yc, err := fitted.Curve(name)
		if err != nil {
			return nil, err
		}
		ic, ok := yc.(*curves.InterpolatedCurve)
		if !ok {
			return nil, errors.Wrapf(ErrNotInterpolated, "%q is %T", name, yc)
		}
		w, err := c.nodeWeights(name, ic)
		if err != nil {
			return nil, err
		}
		weights[name] = w
		starts[name] = total
		total += ic.Size()
	}

	all, err := fitted.Merge(fixed)
	if err != nil {
		return nil, err
	}
	s, err := instrument.Accept(d, c.sens, all)
	if err != nil {
		return nil, errors.Wrapf(err, "%s sensitivity of %s", c.name, instrument.Kind(d))
	}

	out := make([]float64, total)
	for _, name := range s.CurveNames() {
		w, ok := weights[name]
		if !ok {
			if fixed.Has(name) {
				continue
			}
			return nil, &curves.MissingCurveError{Name: name}
		}
		start := starts[name]
		for _, p := range s.Points(name) {
			for m, wm := range w(p.Time) {
				out[start+m] += p.Value * wm
			}
		}
	}
	return out, nil
}

func (c *NodeSensitivityCalculator) nodeWeights(name string, ic *curves.InterpolatedCurve) (func(t float64) []float64, error) {
	if c.weights == nil {
		return ic.NodeSensitivities, nil
	}
	calc, err := c.weights.NodeSensitivityCalculator(name)
	if err != nil {
		return nil, err
	}
	interp, times, rates := ic.Interpolator(), ic.NodeTimes(), ic.NodeRates()
	return func(t float64) []float64 {
		return calc.NodeSensitivities(interp, times, rates, t)
	}, nil
}
