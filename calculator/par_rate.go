package calculator

import (
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
)

// ParRateCalculator returns, for each quotable variant, the rate at which its present
// value is zero: deposit rate, FRA and future forward, swap fixed rate, tenor swap
// spread, bond coupon, Ibor coupon forward.
type ParRateCalculator struct{}

var _ instrument.Visitor[float64] = ParRateCalculator{}

const parRateName = "ParRateCalculator"

func (ParRateCalculator) VisitCash(d *instrument.Cash, b *curves.Bundle) (float64, error) {
	if d.YearFraction == 0 {
		return 0, ErrZeroAccrual
	}
	c, err := b.Curve(d.Curve)
	if err != nil {
		return 0, err
	}
	return (c.DiscountFactor(d.StartTime)/c.DiscountFactor(d.EndTime) - 1) / d.YearFraction, nil
}

func (ParRateCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	return fwd, err
}

func (ParRateCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	return fwd, err
}

func (ParRateCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (float64, error) {
	return parRate(splitSwap(d.FixedLeg, d.IborLeg))(b)
}

func (ParRateCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (float64, error) {
	return parRate(splitSwap(d.FixedLeg, d.OvernightLeg))(b)
}

func (ParRateCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (float64, error) {
	return parRate(splitTenorSwap(d))(b)
}

func (ParRateCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (float64, error) {
	return parRate(splitBond(d))(b)
}

func (ParRateCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(parRateName, d)
}

func (ParRateCalculator) VisitCouponFixed(d *instrument.CouponFixed, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(parRateName, d)
}

func (ParRateCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (float64, error) {
	fwd, _, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	return fwd, err
}

func (ParRateCalculator) VisitCouponCMS(d *instrument.CouponCMS, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(parRateName, d)
}

func (ParRateCalculator) VisitAnnuity(d *instrument.Annuity, _ *curves.Bundle) (float64, error) {
	return 0, instrument.Unsupported(parRateName, d)
}

func parRate(s rateSplit, err error) func(*curves.Bundle) (float64, error) {
	return func(b *curves.Bundle) (float64, error) {
		if err != nil {
			return 0, err
		}
		rate, _, _, err := parRateFromSplit(s, b)
		return rate, err
	}
}
