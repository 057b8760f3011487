package calculator

import (
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
)

// PresentValueCouponSensitivityCalculator returns ∂PV/∂rate, where rate is the
// quantity instrument.WithRate replaces.
type PresentValueCouponSensitivityCalculator struct{}

var _ instrument.Visitor[float64] = PresentValueCouponSensitivityCalculator{}

const couponSensitivityName = "PresentValueCouponSensitivityCalculator"

func (PresentValueCouponSensitivityCalculator) VisitCash(d *instrument.Cash, b *curves.Bundle) (float64, error) {
	df, err := discount(b, d.Curve, d.EndTime)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.YearFraction * df, nil
}

func (PresentValueCouponSensitivityCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return 0, err
	}
	df, err := discount(b, d.FundingCurve, d.PaymentTime)
	if err != nil {
		return 0, err
	}
	return -d.Notional * d.PaymentYearFraction * df / (1 + d.PaymentYearFraction*fwd), nil
}

func (PresentValueCouponSensitivityCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, _ *curves.Bundle) (float64, error) {
	return d.Notional * d.PaymentAccrualFactor * d.Quantity, nil
}

func (PresentValueCouponSensitivityCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (float64, error) {
	return annuityOf(splitSwap(d.FixedLeg, d.IborLeg))(b)
}

func (PresentValueCouponSensitivityCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (float64, error) {
	return annuityOf(splitSwap(d.FixedLeg, d.OvernightLeg))(b)
}

func (PresentValueCouponSensitivityCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (float64, error) {
	return annuityOf(splitTenorSwap(d))(b)
}

func (PresentValueCouponSensitivityCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (float64, error) {
	return annuityOf(splitBond(d))(b)
}

func (PresentValueCouponSensitivityCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(couponSensitivityName, d)
}

func (PresentValueCouponSensitivityCalculator) VisitCouponFixed(d *instrument.CouponFixed, b *curves.Bundle) (float64, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentYearFraction * df, nil
}

func (PresentValueCouponSensitivityCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (float64, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentYearFraction * df, nil
}

func (PresentValueCouponSensitivityCalculator) VisitCouponCMS(d *instrument.CouponCMS, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(couponSensitivityName, d)
}

func (PresentValueCouponSensitivityCalculator) VisitAnnuity(d *instrument.Annuity, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(couponSensitivityName, d)
}

func annuityOf(s rateSplit, err error) func(*curves.Bundle) (float64, error) {
	return func(b *curves.Bundle) (float64, error) {
		if err != nil {
			return 0, err
		}
		return PresentValue(s.unit, b)
	}
}
