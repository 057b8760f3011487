package instrument

// PaymentFixed pays Amount at Time.
type PaymentFixed struct {
	Time         float64
	Amount       float64
	FundingCurve string
}

func (*PaymentFixed) derivative()                {}
func (p *PaymentFixed) PaymentTime() float64     { return p.Time }
func (p *PaymentFixed) FundingCurveName() string { return p.FundingCurve }
func (p *PaymentFixed) CurveNames() []string     { return []string{p.FundingCurve} }

// CouponFixed pays Notional·PaymentYearFraction·Rate at Time.
type CouponFixed struct {
	Time                float64
	PaymentYearFraction float64
	Notional            float64
	Rate                float64
	FundingCurve        string
}

func (*CouponFixed) derivative()                {}
func (c *CouponFixed) PaymentTime() float64     { return c.Time }
func (c *CouponFixed) FundingCurveName() string { return c.FundingCurve }
func (c *CouponFixed) CurveNames() []string     { return []string{c.FundingCurve} }

// Amount is the fixed cash paid at Time.
func (c *CouponFixed) Amount() float64 {
	return c.Notional * c.PaymentYearFraction * c.Rate
}

// CouponIbor pays Notional·PaymentYearFraction·(F+Spread) at Time, where F is the
// simply-compounded forward of ForwardCurve over the fixing period.
type CouponIbor struct {
	Time                float64
	PaymentYearFraction float64
	Notional            float64
	FixingTime          float64
	FixingPeriodStart   float64
	FixingPeriodEnd     float64
	FixingYearFraction  float64
	Spread              float64
	FundingCurve        string
	ForwardCurve        string
}

func (*CouponIbor) derivative()                {}
func (c *CouponIbor) PaymentTime() float64     { return c.Time }
func (c *CouponIbor) FundingCurveName() string { return c.FundingCurve }
func (c *CouponIbor) CurveNames() []string {
	return curveSet(nil).add(c.FundingCurve, c.ForwardCurve)
}

// CouponCMS pays Notional·PaymentYearFraction·S at Time, where S is the par rate of
// Underlying observed at FixingTime. No convexity adjustment is applied.
type CouponCMS struct {
	Time                float64
	PaymentYearFraction float64
	Notional            float64
	FixingTime          float64
	Underlying          *SwapFixedIbor
	FundingCurve        string
}

func (*CouponCMS) derivative()                {}
func (c *CouponCMS) PaymentTime() float64     { return c.Time }
func (c *CouponCMS) FundingCurveName() string { return c.FundingCurve }
func (c *CouponCMS) CurveNames() []string {
	s := curveSet(nil).add(c.FundingCurve)
	if c.Underlying != nil {
		s = s.add(c.Underlying.CurveNames()...)
	}
	return s
}

// Annuity is an ordered sequence of payments, typically one swap leg.
type Annuity struct {
	Payments []Payment
}

func (*Annuity) derivative() {}

func (a *Annuity) CurveNames() []string {
	var s curveSet
	for _, p := range a.Payments {
		if p != nil {
			s = s.add(p.CurveNames()...)
		}
	}
	return s
}

// FixedCoupons returns the payments as fixed coupons, or false if any payment is of
// another kind.
func (a *Annuity) FixedCoupons() ([]*CouponFixed, bool) {
	out := make([]*CouponFixed, 0, len(a.Payments))
	for _, p := range a.Payments {
		c, ok := p.(*CouponFixed)
		if !ok || c == nil {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

// IborCoupons is FixedCoupons for floating coupons.
func (a *Annuity) IborCoupons() ([]*CouponIbor, bool) {
	out := make([]*CouponIbor, 0, len(a.Payments))
	for _, p := range a.Payments {
		c, ok := p.(*CouponIbor)
		if !ok || c == nil {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}
