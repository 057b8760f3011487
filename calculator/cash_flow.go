package calculator

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/sensitivity"
)

// CashFlowEquivalentCalculator decomposes a derivative into fixed payments on one
// funding curve, merged by time and in ascending order.
//
// Floating coupons are replaced by the flows that replicate them under the curves
// passed in, so the result is PV-equivalent under those curves only. Revaluing it
// against bumped curves does not reproduce the bumped value of the original.
type CashFlowEquivalentCalculator struct{}

var _ instrument.Visitor[*instrument.Annuity] = CashFlowEquivalentCalculator{}

const cashFlowName = "CashFlowEquivalentCalculator"

type flow struct {
	time   float64
	amount float64
}

func (CashFlowEquivalentCalculator) VisitCash(d *instrument.Cash, _ *curves.Bundle) (*instrument.Annuity, error) {
	return flows(d.Curve,
		flow{d.StartTime, -d.Notional},
		flow{d.EndTime, d.Notional * (1 + d.Rate*d.YearFraction)},
	), nil
}

func (CashFlowEquivalentCalculator) VisitForwardRateAgreement(d *instrument.ForwardRateAgreement, _ *curves.Bundle) (*instrument.Annuity, error) {
	return nil, instrument.Unsupported(cashFlowName, d)
}

func (CashFlowEquivalentCalculator) VisitInterestRateFuture(d *instrument.InterestRateFuture, _ *curves.Bundle) (*instrument.Annuity, error) {
	return nil, instrument.Unsupported(cashFlowName, d)
}

func (c CashFlowEquivalentCalculator) VisitSwapFixedIbor(d *instrument.SwapFixedIbor, b *curves.Bundle) (*instrument.Annuity, error) {
	return c.merge(b, d.FixedLeg, d.IborLeg)
}

func (c CashFlowEquivalentCalculator) VisitSwapFixedOIS(d *instrument.SwapFixedOIS, b *curves.Bundle) (*instrument.Annuity, error) {
	return c.merge(b, d.FixedLeg, d.OvernightLeg)
}

func (c CashFlowEquivalentCalculator) VisitTenorSwap(d *instrument.TenorSwap, b *curves.Bundle) (*instrument.Annuity, error) {
	return c.merge(b, d.SpreadLeg, d.OtherLeg)
}

func (c CashFlowEquivalentCalculator) VisitBond(d *instrument.Bond, b *curves.Bundle) (*instrument.Annuity, error) {
	if d.Coupons == nil || d.Nominal == nil {
		return nil, ErrNilLeg
	}
	return c.merge(b, d.Coupons, d.Nominal, bondSettlement(d))
}

func (CashFlowEquivalentCalculator) VisitPaymentFixed(d *instrument.PaymentFixed, _ *curves.Bundle) (*instrument.Annuity, error) {
	return flows(d.FundingCurve, flow{d.Time, d.Amount}), nil
}

func (CashFlowEquivalentCalculator) VisitCouponFixed(d *instrument.CouponFixed, _ *curves.Bundle) (*instrument.Annuity, error) {
	return flows(d.FundingCurve, flow{d.Time, d.Amount()}), nil
}

// VisitCouponIbor replaces N·δ·F paid at t with β·N·δ/δf at the fixing-period start
// and −N·δ/δf at t, where β = Df(t0)/Df(t1)·D(t)/D(t0).
func (CashFlowEquivalentCalculator) VisitCouponIbor(d *instrument.CouponIbor, b *curves.Bundle) (*instrument.Annuity, error) {
	_, ratio, err := forwardRate(b, d.ForwardCurve, d.FixingPeriodStart, d.FixingPeriodEnd, d.FixingYearFraction)
	if err != nil {
		return nil, err
	}
	funding, err := b.Curve(d.FundingCurve)
	if err != nil {
		return nil, err
	}
	beta := ratio * funding.DiscountFactor(d.Time) / funding.DiscountFactor(d.FixingPeriodStart)
	scaled := d.Notional * d.PaymentYearFraction / d.FixingYearFraction

	out := []flow{
		{d.FixingPeriodStart, beta * scaled},
		{d.Time, -scaled},
	}
	if d.Spread != 0 {
		out = append(out, flow{d.Time, d.Notional * d.PaymentYearFraction * d.Spread})
	}
	return flows(d.FundingCurve, out...), nil
}

func (CashFlowEquivalentCalculator) VisitCouponCMS(d *instrument.CouponCMS, _ *curves.Bundle) (*instrument.Annuity, error) {
	return nil, instrument.Unsupported(cashFlowName, d)
}

func (c CashFlowEquivalentCalculator) VisitAnnuity(d *instrument.Annuity, b *curves.Bundle) (*instrument.Annuity, error) {
	parts := make([]instrument.Derivative, len(d.Payments))
	for i, p := range d.Payments {
		if p == nil {
			return nil, ErrNilLeg
		}
		parts[i] = p
	}
	return c.merge(b, parts...)
}

func (c CashFlowEquivalentCalculator) merge(b *curves.Bundle, parts ...instrument.Derivative) (*instrument.Annuity, error) {
	curve := ""
	var all []flow
	for _, part := range parts {
		equivalent, err := instrument.Accept[*instrument.Annuity](part, c, b)
		if err != nil {
			return nil, err
		}
		for _, p := range equivalent.Payments {
			pf := p.(*instrument.PaymentFixed)
			if curve == "" {
				curve = pf.FundingCurve
			} else if pf.FundingCurve != curve {
				return nil, errors.Wrapf(ErrMixedFunding, "%q and %q", curve, pf.FundingCurve)
			}
			all = append(all, flow{pf.Time, pf.Amount})
		}
	}
	return flows(curve, all...), nil
}

// flows sorts by time and sums flows closer than sensitivity.TimeTolerance.
func flows(curve string, in ...flow) *instrument.Annuity {
	sorted := make([]flow, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].time < sorted[j].time })

	payments := make([]instrument.Payment, 0, len(sorted))
	var last *instrument.PaymentFixed
	for _, f := range sorted {
		if last != nil && math.Abs(f.time-last.Time) < sensitivity.TimeTolerance {
			last.Amount += f.amount
			continue
		}
		last = &instrument.PaymentFixed{Time: f.time, Amount: f.amount, FundingCurve: curve}
		payments = append(payments, last)
	}
	return &instrument.Annuity{Payments: payments}
}
