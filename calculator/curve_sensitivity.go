package calculator

import (
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/sensitivity"
)

type curveSens = sensitivity.CurveSensitivity

// PresentValueCurveSensitivityCalculator returns ∂PV/∂r(t) for every rate the PV
// depends on, where r is the continuously-compounded zero rate of the named curve.
type PresentValueCurveSensitivityCalculator struct{}

var _ instrument.Visitor[curveSens] = PresentValueCurveSensitivityCalculator{}

func (PresentValueCurveSensitivityCalculator) VisitCash(d *instrument.Cash, b *curves.Bundle) (curveSens, error) {
	c, err := b.Curve(d.Curve)
	if err != nil {
		return curveSens{}, err
	}
	dfStart := c.DiscountFactor(d.StartTime)
	dfEnd := c.DiscountFactor(d.EndTime)
	return sensitivity.Of(d.Curve,
		sensitivity.Point{Time: d.StartTime, Value: d.StartTime * d.Notional * dfStart},
		sensitivity.Point{Time: d.EndTime, Value: -d.EndTime * d.Notional * (1 + d.Rate*d.YearFraction) * dfEnd},
	), nil
}

func (PresentValueCurveSensitivityCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, b *curves.Bundle) (curveSens, error) {
	fwd, ratio, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return curveSens{}, err
	}
	df, err := discount(b, d.FundingCurve, d.PaymentTime)
	if err != nil {
		return curveSens{}, err
	}
	delta := d.PaymentYearFraction
	denom := 1 + delta*fwd
	pv := d.Notional * delta * (fwd - d.Rate) * df / denom
	dPVdF := d.Notional * delta * df * (1 + delta*d.Rate) / (denom * denom)

	funding := discountSensitivity(d.FundingCurve, d.PaymentTime, pv, 1)
	forward := forwardSensitivity(d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction, ratio, dPVdF)
	return funding.Plus(forward), nil
}

func (PresentValueCurveSensitivityCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, b *curves.Bundle) (curveSens, error) {
	_, ratio, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return curveSens{}, err
	}
	scale := -d.Notional * d.PaymentAccrualFactor * d.Quantity
	return forwardSensitivity(d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction, ratio, scale), nil
}

func (c PresentValueCurveSensitivityCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (curveSens, error) {
	return c.legs(b, d.FixedLeg, d.IborLeg)
}

func (c PresentValueCurveSensitivityCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (curveSens, error) {
	return c.legs(b, d.FixedLeg, d.OvernightLeg)
}

func (c PresentValueCurveSensitivityCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (curveSens, error) {
	return c.legs(b, d.SpreadLeg, d.OtherLeg)
}

func (c PresentValueCurveSensitivityCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (curveSens, error) {
	if d.Coupons == nil || d.Nominal == nil {
		return curveSens{}, ErrNilLeg
	}
	return c.sum(b, d.Coupons, d.Nominal, bondSettlement(d))
}

func (PresentValueCurveSensitivityCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, b *curves.Bundle) (curveSens, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return curveSens{}, err
	}
	return discountSensitivity(d.FundingCurve, d.Time, d.Amount, df), nil
}

func (PresentValueCurveSensitivityCalculator) VisitCouponFixed(d *instrument.CouponFixed, b *curves.Bundle) (curveSens, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return curveSens{}, err
	}
	return discountSensitivity(d.FundingCurve, d.Time, d.Amount(), df), nil
}

func (PresentValueCurveSensitivityCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (curveSens, error) {
	fwd, ratio, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return curveSens{}, err
	}
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return curveSens{}, err
	}
	accrued := d.Notional * d.PaymentYearFraction
	funding := discountSensitivity(d.FundingCurve, d.Time, accrued*(fwd+d.Spread), df)
	forward := forwardSensitivity(d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction, ratio, accrued*df)
	return funding.Plus(forward), nil
}

func (PresentValueCurveSensitivityCalculator) VisitCouponCMS(d *instrument.CouponCMS, b *curves.Bundle) (curveSens, error) {
	if d.Underlying == nil {
		return curveSens{}, ErrNilLeg
	}
	rate, err := ParRate(d.Underlying, b)
	if err != nil {
		return curveSens{}, err
	}
	rateSens, err := ParRateCurveSensitivity(d.Underlying, b)
	if err != nil {
		return curveSens{}, err
	}
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return curveSens{}, err
	}
	accrued := d.Notional * d.PaymentYearFraction
	funding := discountSensitivity(d.FundingCurve, d.Time, accrued*rate, df)
	return funding.Plus(rateSens.MultipliedBy(accrued * df)), nil
}

func (c PresentValueCurveSensitivityCalculator) VisitAnnuity(d *instrument.Annuity, b *curves.Bundle) (curveSens, error) {
	out := sensitivity.Empty()
	for _, p := range d.Payments {
		if p == nil {
			return curveSens{}, ErrNilLeg
		}
		s, err := instrument.Accept[curveSens](p, c, b)
		if err != nil {
			return curveSens{}, err
		}
		out = out.Plus(s)
	}
	return out, nil
}

func (c PresentValueCurveSensitivityCalculator) legs(b *curves.Bundle, first, second *instrument.Annuity) (curveSens, error) {
	if first == nil || second == nil {
		return curveSens{}, ErrNilLeg
	}
	return c.sum(b, first, second)
}

func (c PresentValueCurveSensitivityCalculator) sum(b *curves.Bundle, parts ...instrument.Derivative) (curveSens, error) {
	out := sensitivity.Empty()
	for _, d := range parts {
		s, err := instrument.Accept[curveSens](d, c, b)
		if err != nil {
			return curveSens{}, err
		}
		out = out.Plus(s)
	}
	return out, nil
}

// ParRateCurveSensitivityCalculator returns ∂ParRate/∂r(t) for the variants
// ParRateCalculator supports.
type ParRateCurveSensitivityCalculator struct{}

var _ instrument.Visitor[curveSens] = ParRateCurveSensitivityCalculator{}

const parRateSensitivityName = "ParRateCurveSensitivityCalculator"

func (ParRateCurveSensitivityCalculator) VisitCash(d *instrument.Cash, b *curves.Bundle) (curveSens, error) {
	_, ratio, err := forwardRate(b, d.Curve, d.StartTime, d.EndTime, d.YearFraction)
	if err != nil {
		return curveSens{}, err
	}
	return forwardSensitivity(d.Curve, d.StartTime, d.EndTime, d.YearFraction, ratio, 1), nil
}

func (ParRateCurveSensitivityCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, b *curves.Bundle) (curveSens, error) {
	return forwardOnly(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
}

func (ParRateCurveSensitivityCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, b *curves.Bundle) (curveSens, error) {
	return forwardOnly(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
}

func (ParRateCurveSensitivityCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (curveSens, error) {
	s, err := splitSwap(d.FixedLeg, d.IborLeg)
	if err != nil {
		return curveSens{}, err
	}
	return splitSensitivity(s, b)
}

func (ParRateCurveSensitivityCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (curveSens, error) {
	s, err := splitSwap(d.FixedLeg, d.OvernightLeg)
	if err != nil {
		return curveSens{}, err
	}
	return splitSensitivity(s, b)
}

func (ParRateCurveSensitivityCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (curveSens, error) {
	s, err := splitTenorSwap(d)
	if err != nil {
		return curveSens{}, err
	}
	return splitSensitivity(s, b)
}

func (ParRateCurveSensitivityCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (curveSens, error) {
	s, err := splitBond(d)
	if err != nil {
		return curveSens{}, err
	}
	return splitSensitivity(s, b)
}

func (ParRateCurveSensitivityCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, _ *curves.Bundle) (curveSens, error) {
	return curveSens{}, instrument.Unsupported(parRateSensitivityName, d)
}

func (ParRateCurveSensitivityCalculator) VisitCouponFixed(d *instrument.CouponFixed, _ *curves.Bundle) (curveSens, error) {
	return curveSens{}, instrument.Unsupported(parRateSensitivityName, d)
}

func (ParRateCurveSensitivityCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (curveSens, error) {
	return forwardOnly(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
}

func (ParRateCurveSensitivityCalculator) VisitCouponCMS(d *instrument.CouponCMS, _ *curves.Bundle) (curveSens, error) {
	return curveSens{}, instrument.Unsupported(parRateSensitivityName, d)
}

func (ParRateCurveSensitivityCalculator) VisitAnnuity(d *instrument.Annuity, _ *curves.Bundle) (curveSens, error) {
	return curveSens{}, instrument.Unsupported(parRateSensitivityName, d)
}

func forwardOnly(b *curves.Bundle, name string, t0, t1, yf float64) (curveSens, error) {
	_, ratio, err := forwardRate(b, name, t0, t1, yf)
	if err != nil {
		return curveSens{}, err
	}
	return forwardSensitivity(name, t0, t1, yf, ratio, 1), nil
}

// splitSensitivity differentiates S = −rest/A: ∂S = −∂rest/A + rest·∂A/A².
func splitSensitivity(s rateSplit, b *curves.Bundle) (curveSens, error) {
	_, annuity, rest, err := parRateFromSplit(s, b)
	if err != nil {
		return curveSens{}, err
	}
	dAnnuity, err := PresentValueCurveSensitivity(s.unit, b)
	if err != nil {
		return curveSens{}, err
	}
	dRest := sensitivity.Empty()
	for _, d := range s.rest {
		ds, err := PresentValueCurveSensitivity(d, b)
		if err != nil {
			return curveSens{}, err
		}
		dRest = dRest.Plus(ds)
	}
	return dRest.MultipliedBy(-1 / annuity).Plus(dAnnuity.MultipliedBy(rest / (annuity * annuity))), nil
}
