package definition

import (
	"time"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/marketdata"
	"github.com/meenmo/mcurve/utils"
)

var (
	// ErrExpired is returned for an instrument with nothing left to pay after the valuation date.
	ErrExpired = errors.New("instrument has expired")
	// ErrMissingFixing is returned when a coupon fixed before the valuation date has no fixing.
	ErrMissingFixing = errors.New("missing fixing")
)

// Definition is a dated instrument.
type Definition interface {
	// ToDerivative converts dates into curve times from valuationDate. fixings supply
	// the rates of floating coupons fixed before valuationDate and may be nil.
	ToDerivative(valuationDate time.Time, fixings marketdata.FixingSeries) (instrument.Derivative, error)
	// Maturity is the last date the definition depends on.
	Maturity() time.Time
}

// DepositDefinition lends Notional from Start to End at Rate.
type DepositDefinition struct {
	Start, End time.Time
	DayCount   utils.DayCount
	Notional   float64
	Rate       float64
	Curve      string
}

func (d DepositDefinition) Maturity() time.Time { return d.End }

func (d DepositDefinition) ToDerivative(valuationDate time.Time, _ marketdata.FixingSeries) (instrument.Derivative, error) {
	if !d.End.After(valuationDate) {
		return nil, errors.Wrapf(ErrExpired, "deposit ending %s", d.End.Format(utils.DateLayout))
	}
	axis := TimeAxis{ValuationDate: valuationDate}
	return &instrument.Cash{
		StartTime:    axis.Time(d.Start),
		EndTime:      axis.Time(d.End),
		YearFraction: d.DayCount.YearFraction(d.Start, d.End),
		Notional:     d.Notional,
		Rate:         d.Rate,
		Curve:        d.Curve,
	}, nil
}

// FRADefinition settles the fixing of ForwardCurve over [Start, End] against Rate at Start.
type FRADefinition struct {
	FixingDate   time.Time
	Start, End   time.Time
	DayCount     utils.DayCount
	Notional     float64
	Rate         float64
	FundingCurve string
	ForwardCurve string
}

// NewFRADefinition fixes lag business days before start.
func NewFRADefinition(start, end time.Time, lag int, cal *calendar.Calendar, dc utils.DayCount, notional, rate float64, funding, forward string) FRADefinition {
	return FRADefinition{
		FixingDate:   cal.AddBusinessDays(start, -lag),
		Start:        start,
		End:          end,
		DayCount:     dc,
		Notional:     notional,
		Rate:         rate,
		FundingCurve: funding,
		ForwardCurve: forward,
	}
}

func (f FRADefinition) Maturity() time.Time { return f.End }

// ToDerivative returns a fixed settlement amount once the FRA has fixed.
func (f FRADefinition) ToDerivative(valuationDate time.Time, fixings marketdata.FixingSeries) (instrument.Derivative, error) {
	if !f.Start.After(valuationDate) {
		return nil, errors.Wrapf(ErrExpired, "FRA settling %s", f.Start.Format(utils.DateLayout))
	}
	axis := TimeAxis{ValuationDate: valuationDate}
	yf := f.DayCount.YearFraction(f.Start, f.End)
	if f.FixingDate.Before(valuationDate) {
		fix, err := fixing(fixings, f.FixingDate)
		if err != nil {
			return nil, err
		}
		return &instrument.PaymentFixed{
			Time:         axis.Time(f.Start),
			Amount:       f.Notional * yf * (fix - f.Rate) / (1 + yf*fix),
			FundingCurve: f.FundingCurve,
		}, nil
	}
	return &instrument.ForwardRateAgreement{
		PaymentTime:         axis.Time(f.Start),
		PaymentYearFraction: yf,
		Notional:            f.Notional,
		FixingTime:          axis.Time(f.FixingDate),
		FixingPeriodStart:   axis.Time(f.Start),
		FixingPeriodEnd:     axis.Time(f.End),
		FixingYearFraction:  yf,
		Rate:                f.Rate,
		FundingCurve:        f.FundingCurve,
		ForwardCurve:        f.ForwardCurve,
	}, nil
}

// SwapDefinition is a fixed-versus-floating swap. A payer swap pays the fixed rate.
// With Overnight set the floating leg is an overnight index compounded over each
// period and the result is a SwapFixedOIS.
type SwapDefinition struct {
	Effective, End time.Time
	Notional       float64
	FixedRate      float64
	Spread         float64
	Payer          bool
	Overnight      bool
	FixedLeg       LegConvention
	FloatLeg       LegConvention
	Calendar       *calendar.Calendar
	FundingCurve   string
	ForwardCurve   string
}

func (s SwapDefinition) Maturity() time.Time { return s.End }

func (s SwapDefinition) ToDerivative(valuationDate time.Time, fixings marketdata.FixingSeries) (instrument.Derivative, error) {
	fixedSign, floatSign := 1.0, -1.0
	if s.Payer {
		fixedSign, floatSign = -1, 1
	}
	fixed, err := s.fixedLeg(valuationDate, fixedSign*s.Notional)
	if err != nil {
		return nil, err
	}
	float, err := s.floatLeg(valuationDate, floatSign*s.Notional, fixings)
	if err != nil {
		return nil, err
	}
	if len(fixed.Payments) == 0 && len(float.Payments) == 0 {
		return nil, errors.Wrapf(ErrExpired, "swap ending %s", s.End.Format(utils.DateLayout))
	}
	if s.Overnight {
		return &instrument.SwapFixedOIS{FixedLeg: fixed, OvernightLeg: float}, nil
	}
	return &instrument.SwapFixedIbor{FixedLeg: fixed, IborLeg: float}, nil
}

func (s SwapDefinition) fixedLeg(valuationDate time.Time, notional float64) (*instrument.Annuity, error) {
	periods, err := GenerateSchedule(s.Effective, s.End, s.FixedLeg, s.Calendar)
	if err != nil {
		return nil, errors.Wrap(err, "fixed leg")
	}
	axis := TimeAxis{ValuationDate: valuationDate}
	leg := &instrument.Annuity{}
	for _, p := range periods {
		if !p.PayDate.After(valuationDate) {
			continue
		}
		leg.Payments = append(leg.Payments, &instrument.CouponFixed{
			Time:                axis.Time(p.PayDate),
			PaymentYearFraction: p.YearFraction,
			Notional:            notional,
			Rate:                s.FixedRate,
			FundingCurve:        s.FundingCurve,
		})
	}
	return leg, nil
}

func (s SwapDefinition) floatLeg(valuationDate time.Time, notional float64, fixings marketdata.FixingSeries) (*instrument.Annuity, error) {
	leg := s.FloatLeg
	if s.Overnight {
		// compounded in arrears: the period rate is known once the period has started
		leg.FixingLagDays = 0
	}
	periods, err := GenerateSchedule(s.Effective, s.End, leg, s.Calendar)
	if err != nil {
		return nil, errors.Wrap(err, "floating leg")
	}
	axis := TimeAxis{ValuationDate: valuationDate}
	out := &instrument.Annuity{}
	for _, p := range periods {
		if !p.PayDate.After(valuationDate) {
			continue
		}
		if p.FixingDate.Before(valuationDate) {
			fix, err := fixing(fixings, p.FixingDate)
			if err != nil {
				return nil, err
			}
			out.Payments = append(out.Payments, &instrument.CouponFixed{
				Time:                axis.Time(p.PayDate),
				PaymentYearFraction: p.YearFraction,
				Notional:            notional,
				Rate:                fix + s.Spread,
				FundingCurve:        s.FundingCurve,
			})
			continue
		}
		out.Payments = append(out.Payments, &instrument.CouponIbor{
			Time:                axis.Time(p.PayDate),
			PaymentYearFraction: p.YearFraction,
			Notional:            notional,
			FixingTime:          axis.Time(p.FixingDate),
			FixingPeriodStart:   axis.Time(p.StartDate),
			FixingPeriodEnd:     axis.Time(p.EndDate),
			FixingYearFraction:  p.YearFraction,
			Spread:              s.Spread,
			FundingCurve:        s.FundingCurve,
			ForwardCurve:        s.ForwardCurve,
		})
	}
	return out, nil
}

func fixing(fixings marketdata.FixingSeries, date time.Time) (float64, error) {
	if fixings != nil {
		if r, ok := fixings.RateOn(date); ok {
			return r, nil
		}
	}
	return 0, errors.Wrapf(ErrMissingFixing, "on %s", date.Format(utils.DateLayout))
}
