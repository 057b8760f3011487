package risk

import (
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/linalg"
)

// InstrumentSensitivityCalculator maps node sensitivities to sensitivities to the
// calibration quotes through the implicit function theorem. Entry k of a result is
// ∂value/∂quote_k, so for calibration instrument k itself the PV result is
// −couponSensitivity_k on entry k and zero elsewhere.
type InstrumentSensitivityCalculator struct {
	Solver linalg.Solver
}

// FromParRate uses the Jacobian of a par-rate calibration of data: result = (J⁻¹)ᵀ·v.
// fitted must hold data's curves in data's column order; the node vector uses data's
// known curves and node-weight calculators.
func (c InstrumentSensitivityCalculator) FromParRate(
	d instrument.Derivative,
	data *calibration.DataBundle,
	fitted *curves.Bundle,
	jacobian *mat.Dense,
	nodeCalc *NodeSensitivityCalculator,
) ([]float64, error) {
	v, err := c.nodeVector(d, data, fitted, jacobian, nodeCalc)
	if err != nil {
		return nil, err
	}
	return c.Solver.SolveTransposed(jacobian, v)
}

// FromPresentValue uses the Jacobian of a present-value calibration of data, whose
// columns also move with each instrument's fixed rate: result_k = −cs_k·((J⁻¹)ᵀ·v)_k.
func (c InstrumentSensitivityCalculator) FromPresentValue(
	d instrument.Derivative,
	data *calibration.DataBundle,
	fitted *curves.Bundle,
	coupons *CouponSensitivities,
	jacobian *mat.Dense,
	nodeCalc *NodeSensitivityCalculator,
) ([]float64, error) {
	if coupons == nil {
		return nil, ErrNilArgument
	}
	v, err := c.nodeVector(d, data, fitted, jacobian, nodeCalc)
	if err != nil {
		return nil, err
	}
	if coupons.Len() != len(v) {
		return nil, errors.Wrapf(ErrDimension, "%d coupon sensitivities for %d instruments", coupons.Len(), len(v))
	}
	w, err := c.Solver.SolveTransposed(jacobian, v)
	if err != nil {
		return nil, err
	}
	floats.Mul(w, coupons.values)
	floats.Scale(-1, w)
	return w, nil
}

// BucketedDelta is the present-value sensitivity of d to each quote of a calibration,
// using the variant matching how res was calibrated.
func (c InstrumentSensitivityCalculator) BucketedDelta(d instrument.Derivative, res *calibration.Result) ([]float64, error) {
	if res == nil || res.Data == nil || res.Fitted == nil {
		return nil, ErrNilArgument
	}
	nodeCalc := NewPresentValueNodeSensitivityCalculator()

	switch res.Kind {
	case calibration.ParRate:
		return c.FromParRate(d, res.Data, res.Fitted, res.Jacobian, nodeCalc)
	case calibration.PresentValue:
		coupons, err := NewCouponSensitivities(res.Data, res.Curves)
		if err != nil {
			return nil, err
		}
		return c.FromPresentValue(d, res.Data, res.Fitted, coupons, res.Jacobian, nodeCalc)
	}
	return nil, errors.Errorf("unknown calibration kind %v", res.Kind)
}

func (c InstrumentSensitivityCalculator) nodeVector(
	d instrument.Derivative,
	data *calibration.DataBundle,
	fitted *curves.Bundle,
	jacobian *mat.Dense,
	nodeCalc *NodeSensitivityCalculator,
) ([]float64, error) {
	if data == nil || fitted == nil || jacobian == nil || nodeCalc == nil {
		return nil, ErrNilArgument
	}
	if got, want := fitted.Names(), data.CurveNames(); !slices.Equal(got, want) {
		return nil, errors.Wrapf(ErrColumnOrder, "fitted %v, columns %v", got, want)
	}
	v, err := nodeCalc.WithNodeWeights(data).CalculateSensitivities(d, data.KnownCurves(), fitted)
	if err != nil {
		return nil, err
	}
	r, cols := jacobian.Dims()
	if r != cols || cols != len(v) || cols != data.TotalNodes() {
		return nil, errors.Wrapf(ErrDimension, "jacobian is %dx%d, %d fitted nodes", r, cols, len(v))
	}
	return v, nil
}
