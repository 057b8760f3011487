package definition

import (
	"time"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/marketdata"
	"github.com/meenmo/mcurve/utils"
)

// Cashflow is a single dated cash payment of a bond.
//
// Amounts are in currency units, not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// BondDefinition is a fixed-coupon bullet bond bought for SettlementPrice per unit
// notional, accrued interest included, on SettlementDate.
type BondDefinition struct {
	Issue, End      time.Time
	Notional        float64
	CouponRate      float64
	Leg             LegConvention
	Calendar        *calendar.Calendar
	SettlementDate  time.Time
	SettlementPrice float64
	FundingCurve    string
}

func (b BondDefinition) Maturity() time.Time { return b.End }

// Cashflows lists coupons and the redemption by payment date.
func (b BondDefinition) Cashflows() ([]Cashflow, error) {
	periods, err := GenerateSchedule(b.Issue, b.End, b.Leg, b.Calendar)
	if err != nil {
		return nil, errors.Wrap(err, "bond schedule")
	}
	out := make([]Cashflow, len(periods))
	for i, p := range periods {
		out[i] = Cashflow{Date: p.PayDate, Coupon: b.Notional * b.CouponRate * p.YearFraction}
	}
	out[len(out)-1].Principal = b.Notional
	return out, nil
}

// ToDerivative keeps the flows paid after the settlement date.
func (b BondDefinition) ToDerivative(valuationDate time.Time, _ marketdata.FixingSeries) (instrument.Derivative, error) {
	if b.SettlementDate.Before(valuationDate) {
		return nil, errors.Errorf("bond settles %s, before valuation %s",
			b.SettlementDate.Format(utils.DateLayout), valuationDate.Format(utils.DateLayout))
	}
	periods, err := GenerateSchedule(b.Issue, b.End, b.Leg, b.Calendar)
	if err != nil {
		return nil, errors.Wrap(err, "bond schedule")
	}
	axis := TimeAxis{ValuationDate: valuationDate}
	coupons := &instrument.Annuity{}
	for _, p := range periods {
		if !p.PayDate.After(b.SettlementDate) {
			continue
		}
		coupons.Payments = append(coupons.Payments, &instrument.CouponFixed{
			Time:                axis.Time(p.PayDate),
			PaymentYearFraction: p.YearFraction,
			Notional:            b.Notional,
			Rate:                b.CouponRate,
			FundingCurve:        b.FundingCurve,
		})
	}
	if len(coupons.Payments) == 0 {
		return nil, errors.Wrapf(ErrExpired, "bond maturing %s", b.End.Format(utils.DateLayout))
	}
	last := periods[len(periods)-1]
	return &instrument.Bond{
		Coupons:          coupons,
		Nominal:          &instrument.PaymentFixed{Time: axis.Time(last.PayDate), Amount: b.Notional, FundingCurve: b.FundingCurve},
		SettlementTime:   axis.Time(b.SettlementDate),
		SettlementAmount: b.Notional * b.SettlementPrice,
		FundingCurve:     b.FundingCurve,
	}, nil
}
