package instrument

import "github.com/pkg/errors"

// WithRate returns a copy of d with its quoted rate replaced: the fixed rate of a
// swap or bond, the deposit/FRA rate, the future rate (1 − price), the spread of a
// tenor swap or Ibor coupon. d itself is not modified.
func WithRate(d Derivative, rate float64) (Derivative, error) {
	switch x := d.(type) {
	case nil:
		return nil, ErrNilDerivative
	case *Cash:
		c := *x
		c.Rate = rate
		return &c, nil
	case *ForwardRateAgreement:
		f := *x
		f.Rate = rate
		return &f, nil
	case *InterestRateFuture:
		f := *x
		f.Rate = rate
		return &f, nil
	case *SwapFixedIbor:
		leg, err := fixedLegWithRate(x.FixedLeg, rate)
		if err != nil {
			return nil, errors.Wrap(err, "swap fixed leg")
		}
		return &SwapFixedIbor{FixedLeg: leg, IborLeg: x.IborLeg}, nil
	case *SwapFixedOIS:
		leg, err := fixedLegWithRate(x.FixedLeg, rate)
		if err != nil {
			return nil, errors.Wrap(err, "OIS fixed leg")
		}
		return &SwapFixedOIS{FixedLeg: leg, OvernightLeg: x.OvernightLeg}, nil
	case *TenorSwap:
		if x.SpreadLeg == nil {
			return nil, errors.New("tenor swap has no spread leg")
		}
		coupons, ok := x.SpreadLeg.IborCoupons()
		if !ok {
			return nil, errors.New("tenor swap spread leg must hold Ibor coupons")
		}
		payments := make([]Payment, len(coupons))
		for i, c := range coupons {
			cp := *c
			cp.Spread = rate
			payments[i] = &cp
		}
		return &TenorSwap{SpreadLeg: &Annuity{Payments: payments}, OtherLeg: x.OtherLeg}, nil
	case *Bond:
		coupons, err := fixedLegWithRate(x.Coupons, rate)
		if err != nil {
			return nil, errors.Wrap(err, "bond coupons")
		}
		b := *x
		b.Coupons = coupons
		return &b, nil
	case *CouponFixed:
		c := *x
		c.Rate = rate
		return &c, nil
	case *CouponIbor:
		c := *x
		c.Spread = rate
		return &c, nil
	}
	return nil, Unsupported("WithRate", d)
}

func fixedLegWithRate(leg *Annuity, rate float64) (*Annuity, error) {
	if leg == nil {
		return nil, errors.New("nil leg")
	}
	coupons, ok := leg.FixedCoupons()
	if !ok {
		return nil, errors.New("leg must hold fixed coupons")
	}
	payments := make([]Payment, len(coupons))
	for i, c := range coupons {
		cp := *c
		cp.Rate = rate
		payments[i] = &cp
	}
	return &Annuity{Payments: payments}, nil
}
