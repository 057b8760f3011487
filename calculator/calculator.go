// Package calculator values derivatives against a curve bundle: present value, par
// rate, their continuous curve sensitivities, coupon sensitivity and the cash-flow
// equivalent. Each calculator is a stateless instrument.Visitor.
package calculator

import (
	"math"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/sensitivity"
)

var (
	ErrNilLeg       = errors.New("nil leg or payment")
	ErrZeroAccrual  = errors.New("zero accrual factor")
	ErrZeroAnnuity  = errors.New("zero annuity")
	ErrMixedFunding = errors.New("cash flows on more than one funding curve")
)

// PresentValue values d against b.
func PresentValue(d instrument.Derivative, b *curves.Bundle) (float64, error) {
	return instrument.Accept[float64](d, PresentValueCalculator{}, b)
}

// ParRate returns the quote at which d has zero present value.
func ParRate(d instrument.Derivative, b *curves.Bundle) (float64, error) {
	return instrument.Accept[float64](d, ParRateCalculator{}, b)
}

// PresentValueCurveSensitivity returns ∂PV/∂r(t) per curve.
func PresentValueCurveSensitivity(d instrument.Derivative, b *curves.Bundle) (sensitivity.CurveSensitivity, error) {
	return instrument.Accept[sensitivity.CurveSensitivity](d, PresentValueCurveSensitivityCalculator{}, b)
}

// ParRateCurveSensitivity returns ∂ParRate/∂r(t) per curve.
func ParRateCurveSensitivity(d instrument.Derivative, b *curves.Bundle) (sensitivity.CurveSensitivity, error) {
	return instrument.Accept[sensitivity.CurveSensitivity](d, ParRateCurveSensitivityCalculator{}, b)
}

// CouponSensitivity returns ∂PV/∂rate for the quoted rate of d.
func CouponSensitivity(d instrument.Derivative, b *curves.Bundle) (float64, error) {
	return instrument.Accept[float64](d, PresentValueCouponSensitivityCalculator{}, b)
}

// CashFlowEquivalent decomposes d into fixed payments with the same PV under b.
func CashFlowEquivalent(d instrument.Derivative, b *curves.Bundle) (*instrument.Annuity, error) {
	return instrument.Accept[*instrument.Annuity](d, CashFlowEquivalentCalculator{}, b)
}

func discount(b *curves.Bundle, name string, t float64) (float64, error) {
	c, err := b.Curve(name)
	if err != nil {
		return 0, err
	}
	return c.DiscountFactor(t), nil
}

// forwardRate is the simply-compounded rate of name over [t0, t1] with accrual yf,
// together with the ratio D(t0)/D(t1).
func forwardRate(b *curves.Bundle, name string, t0, t1, yf float64) (fwd, ratio float64, err error) {
	if yf == 0 {
		return 0, 0, errors.Wrapf(ErrZeroAccrual, "forward on %q over [%v, %v]", name, t0, t1)
	}
	c, err := b.Curve(name)
	if err != nil {
		return 0, 0, err
	}
	ratio = c.DiscountFactor(t0) / c.DiscountFactor(t1)
	return (ratio - 1) / yf, ratio, nil
}

// forwardSensitivity is scale·∂F/∂r(t) for a forward computed by forwardRate.
func forwardSensitivity(name string, t0, t1, yf, ratio, scale float64) sensitivity.CurveSensitivity {
	return sensitivity.Of(name,
		sensitivity.Point{Time: t0, Value: -t0 * ratio / yf * scale},
		sensitivity.Point{Time: t1, Value: t1 * ratio / yf * scale},
	)
}

// discountSensitivity is ∂(amount·D(t))/∂r(t).
func discountSensitivity(name string, t, amount, df float64) sensitivity.CurveSensitivity {
	return sensitivity.Of(name, sensitivity.Point{Time: t, Value: -t * amount * df})
}

// rateSplit separates a quoted composite into the quoted leg at unit rate and the
// rest, so that PV = rate·PV(unit) + PV(rest).
type rateSplit struct {
	unit *instrument.Annuity
	rest []instrument.Derivative
}

func splitSwap(fixedLeg, floatLeg *instrument.Annuity) (rateSplit, error) {
	if fixedLeg == nil || floatLeg == nil {
		return rateSplit{}, ErrNilLeg
	}
	unit, err := unitFixedLeg(fixedLeg)
	if err != nil {
		return rateSplit{}, err
	}
	return rateSplit{unit: unit, rest: []instrument.Derivative{floatLeg}}, nil
}

func splitTenorSwap(s *instrument.TenorSwap) (rateSplit, error) {
	if s.SpreadLeg == nil || s.OtherLeg == nil {
		return rateSplit{}, ErrNilLeg
	}
	coupons, ok := s.SpreadLeg.IborCoupons()
	if !ok {
		return rateSplit{}, errors.New("tenor swap spread leg must hold Ibor coupons")
	}
	unit := make([]instrument.Payment, len(coupons))
	noSpread := make([]instrument.Payment, len(coupons))
	for i, c := range coupons {
		unit[i] = &instrument.CouponFixed{
			Time:                c.Time,
			PaymentYearFraction: c.PaymentYearFraction,
			Notional:            c.Notional,
			Rate:                1,
			FundingCurve:        c.FundingCurve,
		}
		cp := *c
		cp.Spread = 0
		noSpread[i] = &cp
	}
	return rateSplit{
		unit: &instrument.Annuity{Payments: unit},
		rest: []instrument.Derivative{&instrument.Annuity{Payments: noSpread}, s.OtherLeg},
	}, nil
}

func splitBond(bond *instrument.Bond) (rateSplit, error) {
	if bond.Coupons == nil || bond.Nominal == nil {
		return rateSplit{}, ErrNilLeg
	}
	unit, err := unitFixedLeg(bond.Coupons)
	if err != nil {
		return rateSplit{}, err
	}
	return rateSplit{unit: unit, rest: []instrument.Derivative{bond.Nominal, bondSettlement(bond)}}, nil
}

func bondSettlement(bond *instrument.Bond) *instrument.PaymentFixed {
	return &instrument.PaymentFixed{
		Time:         bond.SettlementTime,
		Amount:       -bond.SettlementAmount,
		FundingCurve: bond.FundingCurve,
	}
}

func unitFixedLeg(leg *instrument.Annuity) (*instrument.Annuity, error) {
	coupons, ok := leg.FixedCoupons()
	if !ok {
		return nil, errors.New("quoted leg must hold fixed coupons")
	}
	payments := make([]instrument.Payment, len(coupons))
	for i, c := range coupons {
		cp := *c
		cp.Rate = 1
		payments[i] = &cp
	}
	return &instrument.Annuity{Payments: payments}, nil
}

// parRateFromSplit solves rate·A + rest = 0.
func parRateFromSplit(s rateSplit, b *curves.Bundle) (parRate, annuity, rest float64, err error) {
	annuity, err = PresentValue(s.unit, b)
	if err != nil {
		return 0, 0, 0, err
	}
	if annuity == 0 || math.IsNaN(annuity) {
		return 0, 0, 0, ErrZeroAnnuity
	}
	for _, d := range s.rest {
		pv, err := PresentValue(d, b)
		if err != nil {
			return 0, 0, 0, err
		}
		rest += pv
	}
	return -rest / annuity, annuity, rest, nil
}
