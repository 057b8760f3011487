package calculator

import (
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
)

// PresentValueCalculator values every variant.
type PresentValueCalculator struct{}

var _ instrument.Visitor[float64] = PresentValueCalculator{}

func (PresentValueCalculator) VisitCash(d *instrument.Cash, b *curves.Bundle) (float64, error) {
	c, err := b.Curve(d.Curve)
	if err != nil {
		return 0, err
	}
	return d.Notional * (-c.DiscountFactor(d.StartTime) + (1+d.Rate*d.YearFraction)*c.DiscountFactor(d.EndTime)), nil
}

func (PresentValueCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return 0, err
	}
	df, err := discount(b, d.FundingCurve, d.PaymentTime)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentYearFraction * (fwd - d.Rate) * df / (1 + d.PaymentYearFraction*fwd), nil
}

func (PresentValueCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentAccrualFactor * d.Quantity * (d.Rate - fwd), nil
}

func (c PresentValueCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (float64, error) {
	return c.legs(b, d.FixedLeg, d.IborLeg)
}

func (c PresentValueCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (float64, error) {
	return c.legs(b, d.FixedLeg, d.OvernightLeg)
}

func (c PresentValueCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (float64, error) {
	return c.legs(b, d.SpreadLeg, d.OtherLeg)
}

func (c PresentValueCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (float64, error) {
	if d.Coupons == nil || d.Nominal == nil {
		return 0, ErrNilLeg
	}
	return c.sum(b, d.Coupons, d.Nominal, bondSettlement(d))
}

func (PresentValueCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, b *curves.Bundle) (float64, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Amount * df, nil
}

func (PresentValueCalculator) VisitCouponFixed(d *instrument.CouponFixed, b *curves.Bundle) (float64, error) {
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Amount() * df, nil
}

func (PresentValueCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return 0, err
	}
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentYearFraction * (fwd + d.Spread) * df, nil
}

func (PresentValueCalculator) VisitCouponCMS(d *instrument.CouponCMS, b *curves.Bundle) (float64, error) {
	if d.Underlying == nil {
		return 0, ErrNilLeg
	}
	rate, err := ParRate(d.Underlying, b)
	if err != nil {
		return 0, err
	}
	df, err := discount(b, d.FundingCurve, d.Time)
	if err != nil {
		return 0, err
	}
	return d.Notional * d.PaymentYearFraction * rate * df, nil
}

func (c PresentValueCalculator) VisitAnnuity(d *instrument.Annuity, b *curves.Bundle) (float64, error) {
	total := 0.0
	for _, p := range d.Payments {
		if p == nil {
			return 0, ErrNilLeg
		}
		pv, err := instrument.Accept[float64](p, c, b)
		if err != nil {
			return 0, err
		}
		total += pv
	}
	return total, nil
}

func (c PresentValueCalculator) legs(b *curves.Bundle, first, second *instrument.Annuity) (float64, error) {
	if first == nil || second == nil {
		return 0, ErrNilLeg
	}
	return c.sum(b, first, second)
}

func (c PresentValueCalculator) sum(b *curves.Bundle, parts ...instrument.Derivative) (float64, error) {
	total := 0.0
	for _, d := range parts {
		pv, err := instrument.Accept[float64](d, c, b)
		if err != nil {
			return 0, err
		}
		total += pv
	}
	return total, nil
}
