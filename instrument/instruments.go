package instrument

// Cash is a deposit: Notional lent at StartTime, repaid with simple interest at EndTime.
type Cash struct {
	StartTime    float64
	EndTime      float64
	YearFraction float64
	Notional     float64
	Rate         float64
	Curve        string
}

func (*Cash) derivative()            {}
func (c *Cash) CurveNames() []string { return []string{c.Curve} }

// ForwardRateAgreement settles Notional·PaymentYearFraction·(F−Rate)/(1+PaymentYearFraction·F)
// at PaymentTime.
type ForwardRateAgreement struct {
	PaymentTime         float64
	PaymentYearFraction float64
	Notional            float64
	FixingTime          float64
	FixingPeriodStart   float64
	FixingPeriodEnd     float64
	FixingYearFraction  float64
	Rate                float64
	FundingCurve        string
	ForwardCurve        string
}

func (*ForwardRateAgreement) derivative() {}
func (f *ForwardRateAgreement) CurveNames() []string {
	return curveSet(nil).add(f.FundingCurve, f.ForwardCurve)
}

// InterestRateFuture is a margined rate future. Rate is 1 minus the reference price.
type InterestRateFuture struct {
	LastTradingTime      float64
	FixingPeriodStart    float64
	FixingPeriodEnd      float64
	FixingYearFraction   float64
	PaymentAccrualFactor float64
	Notional             float64
	Quantity             float64
	Rate                 float64
	ForwardCurve         string
}

func (*InterestRateFuture) derivative()            {}
func (f *InterestRateFuture) CurveNames() []string { return []string{f.ForwardCurve} }

// SwapFixedIbor exchanges a fixed leg of CouponFixed against an Ibor leg of
// CouponIbor. Leg notionals carry the direction: a payer swap has a negative fixed
// notional.
type SwapFixedIbor struct {
	FixedLeg *Annuity
	IborLeg  *Annuity
}

func (*SwapFixedIbor) derivative() {}
func (s *SwapFixedIbor) CurveNames() []string {
	return legCurves(s.FixedLeg, s.IborLeg)
}

// SwapFixedOIS is SwapFixedIbor with the overnight leg forecast off the OIS curve.
// Overnight coupons are compounded over each accrual period, which makes them
// CouponIbor over the period.
type SwapFixedOIS struct {
	FixedLeg     *Annuity
	OvernightLeg *Annuity
}

func (*SwapFixedOIS) derivative() {}
func (s *SwapFixedOIS) CurveNames() []string {
	return legCurves(s.FixedLeg, s.OvernightLeg)
}

// TenorSwap exchanges two floating legs. The quoted spread sits on SpreadLeg.
type TenorSwap struct {
	SpreadLeg *Annuity
	OtherLeg  *Annuity
}

func (*TenorSwap) derivative() {}
func (s *TenorSwap) CurveNames() []string {
	return legCurves(s.SpreadLeg, s.OtherLeg)
}

// Bond is a fixed-rate bond transaction: coupons and redemption received,
// SettlementAmount paid at SettlementTime.
type Bond struct {
	Coupons          *Annuity
	Nominal          *PaymentFixed
	SettlementTime   float64
	SettlementAmount float64
	FundingCurve     string
}

func (*Bond) derivative() {}
func (b *Bond) CurveNames() []string {
	s := curveSet(nil).add(b.FundingCurve)
	if b.Coupons != nil {
		s = s.add(b.Coupons.CurveNames()...)
	}
	if b.Nominal != nil {
		s = s.add(b.Nominal.FundingCurve)
	}
	return s
}

func legCurves(legs ...*Annuity) []string {
	var s curveSet
	for _, l := range legs {
		if l != nil {
			s = s.add(l.CurveNames()...)
		}
	}
	return s
}
