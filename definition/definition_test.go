package definition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/config"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/definition"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/marketdata"
	"github.com/meenmo/mcurve/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var valuation = date(2025, 3, 14)

func mustConvention(t *testing.T, name string) definition.Convention {
	t.Helper()
	c, err := definition.ConventionByName(name)
	require.NoError(t, err)
	return c
}

func TestGenerateSchedule(t *testing.T) {
	t.Parallel()

	cal := calendar.WeekendsOnly()
	quarterly := definition.LegConvention{DayCount: utils.Act360, PayFrequency: 3, EndOfMonth: true}
	backward := quarterly
	backward.Direction = definition.ScheduleBackward
	noEOM := quarterly
	noEOM.EndOfMonth = false

	tests := []struct {
		name      string
		effective time.Time
		maturity  time.Time
		leg       definition.LegConvention
		ends      []time.Time
	}{
		{"forward month end", date(2025, 1, 31), date(2025, 7, 31), quarterly,
			[]time.Time{date(2025, 4, 30), date(2025, 7, 31)}},
		{"forward without month end roll", date(2025, 1, 31), date(2025, 7, 31), noEOM,
			[]time.Time{date(2025, 5, 1), date(2025, 7, 31)}},
		{"backward front stub", date(2025, 3, 18), date(2026, 1, 15), backward,
			[]time.Time{date(2025, 4, 15), date(2025, 7, 15), date(2025, 10, 15), date(2026, 1, 15)}},
		{"backward short stub merged", date(2025, 4, 10), date(2026, 1, 15), backward,
			[]time.Time{date(2025, 7, 15), date(2025, 10, 15), date(2026, 1, 15)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			periods, err := definition.GenerateSchedule(tt.effective, tt.maturity, tt.leg, cal)
			require.NoError(t, err)
			require.Len(t, periods, len(tt.ends))
			assert.Equal(t, tt.effective, periods[0].StartDate)
			for i, p := range periods {
				assert.Equal(t, tt.ends[i], p.EndDate, "period %d", i)
				if i > 0 {
					assert.Equal(t, periods[i-1].EndDate, p.StartDate)
				}
				assert.InDelta(t, utils.Days(p.StartDate, p.EndDate)/360, p.YearFraction, 1e-15)
			}
		})
	}

	lagged := quarterly
	lagged.FixingLagDays, lagged.PayDelayDays = 2, 2
	periods, err := definition.GenerateSchedule(date(2025, 3, 18), date(2025, 6, 18), lagged, cal)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, date(2025, 3, 14), periods[0].FixingDate)
	assert.Equal(t, date(2025, 6, 20), periods[0].PayDate)

	_, err = definition.GenerateSchedule(date(2025, 6, 18), date(2025, 3, 18), quarterly, cal)
	require.Error(t, err)
	_, err = definition.GenerateSchedule(date(2025, 3, 18), date(2025, 6, 18), definition.LegConvention{}, cal)
	require.Error(t, err)
	_, err = definition.GenerateSchedule(date(2025, 3, 18), date(2025, 6, 18), quarterly, nil)
	require.Error(t, err)
}

func TestDepositAndFRADefinitions(t *testing.T) {
	t.Parallel()

	axis := definition.TimeAxis{ValuationDate: valuation}
	dep := definition.DepositDefinition{
		Start: date(2025, 3, 18), End: date(2025, 6, 18), DayCount: utils.Act360,
		Notional: 1, Rate: 0.04, Curve: "C",
	}
	d, err := dep.ToDerivative(valuation, nil)
	require.NoError(t, err)
	cash := d.(*instrument.Cash)
	assert.InDelta(t, 4.0/365, cash.StartTime, 1e-15)
	assert.InDelta(t, axis.Time(dep.End), cash.EndTime, 1e-15)
	assert.InDelta(t, 92.0/360, cash.YearFraction, 1e-15)

	_, err = dep.ToDerivative(date(2025, 7, 1), nil)
	require.ErrorIs(t, err, definition.ErrExpired)

	cal := calendar.WeekendsOnly()
	fra := definition.NewFRADefinition(date(2025, 6, 18), date(2025, 9, 18), 2, cal, utils.Act360, 1, 0.03, "OIS", "FWD")
	assert.Equal(t, date(2025, 6, 16), fra.FixingDate)

	d, err = fra.ToDerivative(valuation, nil)
	require.NoError(t, err)
	f := d.(*instrument.ForwardRateAgreement)
	assert.InDelta(t, axis.Time(date(2025, 6, 16)), f.FixingTime, 1e-15)
	assert.InDelta(t, 92.0/360, f.PaymentYearFraction, 1e-15)
	assert.Equal(t, []string{"OIS", "FWD"}, f.CurveNames())

	// fixed but not yet settled
	fixings := marketdata.NewMapFixingSeries(map[string]float64{"2025-06-16": 0.035})
	d, err = fra.ToDerivative(date(2025, 6, 17), fixings)
	require.NoError(t, err)
	p := d.(*instrument.PaymentFixed)
	yf := 92.0 / 360
	assert.InDelta(t, yf*(0.035-0.03)/(1+yf*0.035), p.Amount, 1e-15)

	_, err = fra.ToDerivative(date(2025, 6, 17), nil)
	require.ErrorIs(t, err, definition.ErrMissingFixing)
}

func seasonedSwap(t *testing.T) definition.SwapDefinition {
	conv := mustConvention(t, "USD-LIBOR3M")
	return definition.SwapDefinition{
		Effective: date(2025, 1, 15), End: date(2027, 1, 15),
		Notional: 100, FixedRate: 0.04, Spread: 0.001, Payer: true,
		FixedLeg: conv.Fixed, FloatLeg: conv.Float, Calendar: calendar.WeekendsOnly(),
		FundingCurve: "OIS", ForwardCurve: "LIBOR",
	}
}

func TestSwapDefinition_UsesFixings(t *testing.T) {
	t.Parallel()

	def := seasonedSwap(t)
	fixings := marketdata.NewMapFixingSeries(map[string]float64{"2025-01-13": 0.0458, "2025-04-11": 0.0440})

	d, err := def.ToDerivative(valuation, fixings)
	require.NoError(t, err)
	swap := d.(*instrument.SwapFixedIbor)
	require.Len(t, swap.FixedLeg.Payments, 4)
	require.Len(t, swap.IborLeg.Payments, 8)

	first := swap.IborLeg.Payments[0].(*instrument.CouponFixed)
	assert.InDelta(t, 0.0468, first.Rate, 1e-15)
	assert.Equal(t, 100.0, first.Notional)
	for _, p := range swap.IborLeg.Payments[1:] {
		c := p.(*instrument.CouponIbor)
		assert.Equal(t, 0.001, c.Spread)
		assert.Greater(t, c.FixingTime, 0.0)
	}
	for _, p := range swap.FixedLeg.Payments {
		assert.Equal(t, -100.0, p.(*instrument.CouponFixed).Notional)
	}

	// after the first payment the second coupon has fixed too
	d, err = def.ToDerivative(date(2025, 5, 1), fixings)
	require.NoError(t, err)
	swap = d.(*instrument.SwapFixedIbor)
	require.Len(t, swap.IborLeg.Payments, 7)
	assert.InDelta(t, 0.0450, swap.IborLeg.Payments[0].(*instrument.CouponFixed).Rate, 1e-15)

	_, err = def.ToDerivative(valuation, nil)
	require.ErrorIs(t, err, definition.ErrMissingFixing)
	_, err = def.ToDerivative(date(2027, 2, 1), fixings)
	require.ErrorIs(t, err, definition.ErrExpired)
}

func TestSwapDefinition_Overnight(t *testing.T) {
	t.Parallel()

	conv := mustConvention(t, "USD-SOFR")
	def := definition.SwapDefinition{
		Effective: date(2025, 3, 18), End: date(2026, 3, 18), Notional: 1, FixedRate: 0.04,
		Overnight: true, FixedLeg: conv.Fixed, FloatLeg: conv.Float, Calendar: calendar.WeekendsOnly(),
		FundingCurve: "SOFR", ForwardCurve: "SOFR",
	}
	d, err := def.ToDerivative(valuation, nil)
	require.NoError(t, err)
	ois := d.(*instrument.SwapFixedOIS)
	require.Len(t, ois.OvernightLeg.Payments, 1)
	c := ois.OvernightLeg.Payments[0].(*instrument.CouponIbor)
	assert.Equal(t, c.FixingPeriodStart, c.FixingTime)
	assert.Equal(t, -1.0, c.Notional)
	assert.Equal(t, []string{"SOFR"}, ois.CurveNames())
}

func TestBondDefinition(t *testing.T) {
	t.Parallel()

	def := definition.BondDefinition{
		Issue: date(2024, 9, 16), End: date(2029, 9, 16), Notional: 100, CouponRate: 0.03,
		Leg:      definition.LegConvention{DayCount: utils.Dc30E360, PayFrequency: 12},
		Calendar: calendar.WeekendsOnly(), SettlementDate: date(2025, 3, 18), SettlementPrice: 1.01,
		FundingCurve: "GOV",
	}
	flows, err := def.Cashflows()
	require.NoError(t, err)
	require.Len(t, flows, 5)
	assert.Equal(t, 100.0, flows[4].Principal)
	assert.Equal(t, date(2029, 9, 17), flows[4].Date)
	assert.InDelta(t, 3.0, flows[1].Coupon, 1e-12)

	d, err := def.ToDerivative(valuation, nil)
	require.NoError(t, err)
	bond := d.(*instrument.Bond)
	assert.Len(t, bond.Coupons.Payments, 5)
	assert.InDelta(t, 101.0, bond.SettlementAmount, 1e-12)

	// the bond prices like its cash flows
	curve := curves.ConstantCurve{Rate: 0.025}
	b := curves.NewBundle().MustWith("GOV", curve)
	pv, err := calculator.PresentValue(bond, b)
	require.NoError(t, err)
	axis := definition.TimeAxis{ValuationDate: valuation}
	want := -101.0 * curve.DiscountFactor(axis.Time(def.SettlementDate))
	for _, f := range flows {
		want += f.Amount() * curve.DiscountFactor(axis.Time(f.Date))
	}
	assert.InDelta(t, want, pv, 1e-10)

	_, err = def.ToDerivative(date(2025, 3, 19), nil)
	require.Error(t, err)
}

func TestConventions(t *testing.T) {
	t.Parallel()

	_, err := definition.ConventionByName("GBP-SONIA")
	require.ErrorIs(t, err, definition.ErrUnknownConvention)
	names := definition.ConventionNames()
	assert.Contains(t, names, "USD-SOFR")
	assert.IsIncreasing(t, names)
}

func TestFromQuoteSet_CalibrationReprices(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"../marketdata/testdata/usd.yaml", "testdata/eur.yaml"} {
		qs, err := marketdata.LoadQuoteSet(path)
		require.NoError(t, err)
		in, err := definition.FromQuoteSet(qs, nil)
		require.NoError(t, err, path)
		require.Len(t, in.Labels, len(in.Instruments))

		data, err := in.ParRateData(nil)
		require.NoError(t, err, path)
		c, err := calibration.New(config.DefaultConfig, nil)
		require.NoError(t, err)
		res, err := c.CalibrateParRate(data, nil)
		require.NoError(t, err, path)

		for i, d := range in.Instruments {
			par, err := calculator.ParRate(d, res.Curves)
			require.NoError(t, err)
			assert.InDelta(t, in.Quotes[i], par, 1e-10, in.Labels[i])
		}

		pvData, err := in.PresentValueData(nil)
		require.NoError(t, err)
		pvRes, err := c.CalibratePresentValue(pvData, res.Parameters)
		require.NoError(t, err, path)
		assert.InDeltaSlice(t, res.Parameters, pvRes.Parameters, 1e-9)
	}
}

func TestFromQuoteSet_Errors(t *testing.T) {
	t.Parallel()

	parse := func(doc string) *marketdata.QuoteSet {
		qs, err := marketdata.ParseQuoteSet([]byte(doc))
		require.NoError(t, err)
		return qs
	}
	_, err := definition.FromQuoteSet(parse(`valuation_date: "2025-03-14"
curves:
  - name: C
    convention: GBP-SONIA
    quotes: [{type: ois, tenor: 1Y, rate: 0.01}]
`), nil)
	require.ErrorIs(t, err, definition.ErrUnknownConvention)

	_, err = definition.FromQuoteSet(parse(`valuation_date: "2025-03-14"
curves:
  - name: C
    convention: USD-SOFR
    interpolator: linear
    quotes: [{type: swap, tenor: 1Y, rate: 0.01}]
`), nil)
	require.Error(t, err)

	_, err = definition.FromQuoteSet(parse(`valuation_date: "2025-03-14"
curves:
  - name: C
    convention: USD-SOFR
    interpolator: linear
    quotes: [{type: ois, tenor: 1Y, rate: 0.01}, {type: ois, tenor: 12M, rate: 0.01}]
`), nil)
	require.Error(t, err)

	_, err = definition.FromQuoteSet(nil, nil)
	require.Error(t, err)
}
