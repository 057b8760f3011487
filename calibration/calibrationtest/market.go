// Package calibrationtest builds small synthetic markets for calibration and risk tests.
package calibrationtest

import (
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/interpolation"
)

// Curve names used by the markets in this package.
const (
	USD     = "USD"
	OIS     = "OIS"
	LIBOR3M = "LIBOR3M"
)

// Market is a set of instruments struck at their quotes, plus the curves to fit.
type Market struct {
	Instruments []instrument.Derivative
	Quotes      []float64
	Specs       []calibration.CurveSpec
	Known       *curves.Bundle
}

// ParRateData targets the quotes.
func (m Market) ParRateData() (*calibration.DataBundle, error) {
	return calibration.NewDataBundleFromSpecs(m.Instruments, m.Quotes, m.Known, m.Specs)
}

// PresentValueData targets zero present value.
func (m Market) PresentValueData() (*calibration.DataBundle, error) {
	return calibration.NewDataBundleFromSpecs(m.Instruments, make([]float64, len(m.Instruments)), m.Known, m.Specs)
}

// WithQuote re-strikes instrument i at q.
func (m Market) WithQuote(i int, q float64) (Market, error) {
	d, err := instrument.WithRate(m.Instruments[i], q)
	if err != nil {
		return Market{}, err
	}
	out := m
	out.Instruments = append([]instrument.Derivative(nil), m.Instruments...)
	out.Quotes = append([]float64(nil), m.Quotes...)
	out.Instruments[i] = d
	out.Quotes[i] = q
	return out, nil
}

// WithNodeSensitivity sets the node-weight calculator of every fitted curve.
func (m Market) WithNodeSensitivity(calc interpolation.NodeSensitivityCalculator) Market {
	out := m
	out.Specs = append([]calibration.CurveSpec(nil), m.Specs...)
	for i := range out.Specs {
		out.Specs[i].NodeSensitivity = calc
	}
	return out
}

var (
	singleTenors = []int{1, 2, 3, 4, 5, 7, 10, 12, 15, 20, 25, 30}
	singleQuotes = []float64{
		0.0100, 0.0120, // cash 3M, FRA 6x9
		0.0130, 0.0150, 0.0170, 0.0185, 0.0200, 0.0220, 0.0240, 0.0250, 0.0260, 0.0270, 0.0275, 0.0278,
	}

	oisTenors   = []int{1, 2, 3, 5, 7, 10}
	oisQuotes   = []float64{0.0080, 0.0095, 0.0110, 0.0135, 0.0155, 0.0175}
	liborTenors = []int{1, 2, 3, 5, 7, 10}
	liborQuotes = []float64{
		0.0105, 0.0118, // cash 3M, FRA 6x9
		0.0122, 0.0138, 0.0152, 0.0176, 0.0195, 0.0214,
	}
)

// SingleCurve fits one curve for discounting and forecasting: 3M cash, a 6x9 FRA and
// swaps out to 30Y, with a node at each maturity.
func SingleCurve(interp interpolation.Interpolator) Market {
	m := Market{Known: curves.NewBundle()}
	m.add(Cash(USD, 0.25, singleQuotes[0]), singleQuotes[0])
	m.add(FRA(USD, USD, 0.5, 0.75, singleQuotes[1]), singleQuotes[1])
	times := []float64{0.25, 0.75}
	for i, y := range singleTenors {
		q := singleQuotes[i+2]
		m.add(Swap(USD, USD, y, q), q)
		times = append(times, float64(y))
	}
	m.Specs = []calibration.CurveSpec{{Name: USD, Times: times, Interpolator: interp}}
	return m
}

// TwoCurve fits OIS from OIS swaps and LIBOR3M from cash, a FRA and swaps discounted on OIS.
func TwoCurve(interp interpolation.Interpolator) Market {
	m := Market{Known: curves.NewBundle()}
	oisTimes := m.addOIS()
	liborTimes := m.addLibor()
	m.Specs = []calibration.CurveSpec{
		{Name: OIS, Times: oisTimes, Interpolator: interp},
		{Name: LIBOR3M, Times: liborTimes, Interpolator: interp},
	}
	return m
}

// ForwardOnly fits LIBOR3M alone against a known OIS curve.
func ForwardOnly(interp interpolation.Interpolator, ois curves.YieldCurve) Market {
	m := Market{Known: curves.NewBundle().MustWith(OIS, ois)}
	times := m.addLibor()
	m.Specs = []calibration.CurveSpec{{Name: LIBOR3M, Times: times, Interpolator: interp}}
	return m
}

func (m *Market) add(d instrument.Derivative, q float64) {
	m.Instruments = append(m.Instruments, d)
	m.Quotes = append(m.Quotes, q)
}

func (m *Market) addOIS() []float64 {
	var times []float64
	for i, y := range oisTenors {
		m.add(OISSwap(OIS, y, oisQuotes[i]), oisQuotes[i])
		times = append(times, float64(y))
	}
	return times
}

func (m *Market) addLibor() []float64 {
	m.add(Cash(LIBOR3M, 0.25, liborQuotes[0]), liborQuotes[0])
	m.add(FRA(OIS, LIBOR3M, 0.5, 0.75, liborQuotes[1]), liborQuotes[1])
	times := []float64{0.25, 0.75}
	for i, y := range liborTenors {
		q := liborQuotes[i+2]
		m.add(Swap(OIS, LIBOR3M, y, q), q)
		times = append(times, float64(y))
	}
	return times
}

// Cash is a unit deposit from today to end.
func Cash(curve string, end, rate float64) *instrument.Cash {
	return &instrument.Cash{EndTime: end, YearFraction: end, Notional: 1, Rate: rate, Curve: curve}
}

// FRA is a unit FRA fixing and paying at start.
func FRA(funding, forward string, start, end, rate float64) *instrument.ForwardRateAgreement {
	return &instrument.ForwardRateAgreement{
		PaymentTime:         start,
		PaymentYearFraction: end - start,
		Notional:            1,
		FixingTime:          start,
		FixingPeriodStart:   start,
		FixingPeriodEnd:     end,
		FixingYearFraction:  end - start,
		Rate:                rate,
		FundingCurve:        funding,
		ForwardCurve:        forward,
	}
}

// Swap pays an annual fixed rate against quarterly floating on a unit notional.
func Swap(funding, forward string, years int, rate float64) *instrument.SwapFixedIbor {
	return &instrument.SwapFixedIbor{
		FixedLeg: FixedLeg(funding, -1, rate, years),
		IborLeg:  IborLeg(funding, forward, 1, 0, years),
	}
}

// OISSwap receives an annual fixed rate against quarterly compounded overnight.
func OISSwap(curve string, years int, rate float64) *instrument.SwapFixedOIS {
	return &instrument.SwapFixedOIS{
		FixedLeg:     FixedLeg(curve, 1, rate, years),
		OvernightLeg: IborLeg(curve, curve, -1, 0, years),
	}
}

// FixedLeg has annual coupons.
func FixedLeg(funding string, notional, rate float64, years int) *instrument.Annuity {
	payments := make([]instrument.Payment, years)
	for i := range payments {
		payments[i] = &instrument.CouponFixed{
			Time:                float64(i + 1),
			PaymentYearFraction: 1,
			Notional:            notional,
			Rate:                rate,
			FundingCurve:        funding,
		}
	}
	return &instrument.Annuity{Payments: payments}
}

// IborLeg has quarterly coupons fixing in advance and paying in arrears.
func IborLeg(funding, forward string, notional, spread float64, years int) *instrument.Annuity {
	payments := make([]instrument.Payment, 4*years)
	for i := range payments {
		start := float64(i) * 0.25
		end := start + 0.25
		payments[i] = &instrument.CouponIbor{
			Time:                end,
			PaymentYearFraction: 0.25,
			Notional:            notional,
			FixingTime:          start,
			FixingPeriodStart:   start,
			FixingPeriodEnd:     end,
			FixingYearFraction:  0.25,
			Spread:              spread,
			FundingCurve:        funding,
			ForwardCurve:        forward,
		}
	}
	return &instrument.Annuity{Payments: payments}
}
