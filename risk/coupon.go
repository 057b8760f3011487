package risk

import (
	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
)

// CouponSensitivities holds ∂PV/∂rate for each calibration instrument, in data-bundle order.
type CouponSensitivities struct {
	values []float64
}

// NewCouponSensitivities computes the coupon sensitivity of every instrument in data under b.
func NewCouponSensitivities(data *calibration.DataBundle, b *curves.Bundle) (*CouponSensitivities, error) {
	if data == nil || b == nil {
		return nil, ErrNilArgument
	}
	values := make([]float64, data.NumInstruments())
	for i := range values {
		d := data.Derivative(i)
		cs, err := calculator.CouponSensitivity(d, b)
		if err != nil {
			return nil, errors.Wrapf(err, "coupon sensitivity of instrument %d (%s)", i, instrument.Kind(d))
		}
		values[i] = cs
	}
	return &CouponSensitivities{values: values}, nil
}

// CouponSensitivitiesOf pairs precomputed values with calibration instruments by position.
func CouponSensitivitiesOf(values ...float64) *CouponSensitivities {
	return &CouponSensitivities{values: append([]float64(nil), values...)}
}

func (c *CouponSensitivities) Len() int { return len(c.values) }

func (c *CouponSensitivities) At(i int) float64 { return c.values[i] }

// Values returns a copy.
func (c *CouponSensitivities) Values() []float64 { return append([]float64(nil), c.values...) }
