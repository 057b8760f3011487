package definition

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/interpolation"
	"github.com/meenmo/mcurve/marketdata"
	"github.com/meenmo/mcurve/utils"
)

// Inputs are the calibration instruments of a quote set, struck at their quotes,
// with one node per instrument maturity.
type Inputs struct {
	ValuationDate time.Time
	Definitions   []Definition
	Instruments   []instrument.Derivative
	Quotes        []float64
	// Labels name each instrument, e.g. "USD-SOFR ois 2Y".
	Labels []string
	Specs  []calibration.CurveSpec
}

// ParRateData targets the quotes. known may be nil.
func (in *Inputs) ParRateData(known *curves.Bundle) (*calibration.DataBundle, error) {
	return calibration.NewDataBundleFromSpecs(in.Instruments, in.Quotes, known, in.Specs)
}

// PresentValueData targets zero present value. known may be nil.
func (in *Inputs) PresentValueData(known *curves.Bundle) (*calibration.DataBundle, error) {
	return calibration.NewDataBundleFromSpecs(in.Instruments, make([]float64, len(in.Instruments)), known, in.Specs)
}

type quoted struct {
	def   Definition
	d     instrument.Derivative
	quote float64
	label string
	time  float64
}

// FromQuoteSet builds unit-notional definitions from qs on cal. A nil cal is built from
// the quote set's holidays.
func FromQuoteSet(qs *marketdata.QuoteSet, cal *calendar.Calendar) (*Inputs, error) {
	if qs == nil {
		return nil, errors.New("nil quote set")
	}
	in := &Inputs{ValuationDate: qs.ValuationDate}
	axis := TimeAxis{ValuationDate: qs.ValuationDate}

	for _, c := range qs.Curves {
		conv, curveCal, spot, err := curveSetup(qs, c, cal)
		if err != nil {
			return nil, err
		}
		interp, err := interpolation.ByName(c.Interpolator)
		if err != nil {
			return nil, errors.Wrapf(err, "curve %q", c.Name)
		}

		var rows []quoted
		for _, q := range c.Quotes {
			def, err := definitionFor(q, c, conv, curveCal, spot)
			if err != nil {
				return nil, errors.Wrapf(err, "curve %q %s %s", c.Name, q.Type, q.Tenor)
			}
			d, err := def.ToDerivative(qs.ValuationDate, qs.FixingsFor(c.Name))
			if err != nil {
				return nil, errors.Wrapf(err, "curve %q %s %s", c.Name, q.Type, q.Tenor)
			}
			rows = append(rows, quoted{
				def:   def,
				d:     d,
				quote: q.Rate,
				label: label(c.Name, q),
				time:  axis.Time(curveCal.Adjust(def.Maturity())),
			})
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].time < rows[j].time })

		times := make([]float64, len(rows))
		for i, r := range rows {
			if i > 0 && r.time <= rows[i-1].time {
				return nil, errors.Errorf("curve %q: %s and %s mature together", c.Name, rows[i-1].label, r.label)
			}
			times[i] = r.time
			in.Definitions = append(in.Definitions, r.def)
			in.Instruments = append(in.Instruments, r.d)
			in.Quotes = append(in.Quotes, r.quote)
			in.Labels = append(in.Labels, r.label)
		}
		in.Specs = append(in.Specs, calibration.CurveSpec{Name: c.Name, Times: times, Interpolator: interp})
	}
	return in, nil
}

// QuotedDefinition builds the unit-notional definition q would have as a quote on
// curve, with that curve's conventions. A nil cal is built from the quote set's holidays.
func QuotedDefinition(qs *marketdata.QuoteSet, curve string, q marketdata.Quote, cal *calendar.Calendar) (Definition, error) {
	if qs == nil {
		return nil, errors.New("nil quote set")
	}
	for _, c := range qs.Curves {
		if c.Name != curve {
			continue
		}
		conv, curveCal, spot, err := curveSetup(qs, c, cal)
		if err != nil {
			return nil, err
		}
		return definitionFor(q, c, conv, curveCal, spot)
	}
	return nil, errors.Errorf("quote set has no curve %q", curve)
}

func curveSetup(qs *marketdata.QuoteSet, c marketdata.CurveQuotes, cal *calendar.Calendar) (Convention, *calendar.Calendar, time.Time, error) {
	conv, err := ConventionByName(c.Convention)
	if err != nil {
		return Convention{}, nil, time.Time{}, errors.Wrapf(err, "curve %q", c.Name)
	}
	if cal == nil {
		cal = calendar.New(conv.Calendar, qs.Holidays...)
	}
	return conv, cal, cal.AddBusinessDays(qs.ValuationDate, conv.SpotLag), nil
}

func definitionFor(q marketdata.Quote, c marketdata.CurveQuotes, conv Convention, cal *calendar.Calendar, spot time.Time) (Definition, error) {
	switch q.Type {
	case marketdata.Cash:
		return DepositDefinition{
			Start:    spot,
			End:      cal.Adjust(q.Tenor.AddTo(spot)),
			DayCount: conv.CashDayCount,
			Notional: 1,
			Rate:     q.Rate,
			Curve:    c.Name,
		}, nil
	case marketdata.FRA:
		start := q.Start.AddTo(spot)
		return NewFRADefinition(cal.Adjust(start), cal.Adjust(q.Tenor.AddTo(start)), conv.Float.FixingLagDays, cal,
			conv.Float.DayCount, 1, q.Rate, c.Discounting, c.Name), nil
	case marketdata.OIS, marketdata.Swap:
		if overnight := q.Type == marketdata.OIS; overnight != conv.Overnight {
			return nil, errors.Errorf("%s quote on %s convention", q.Type, conv.Name)
		}
		return SwapDefinition{
			Effective:    spot,
			End:          q.Tenor.AddTo(spot),
			Notional:     1,
			FixedRate:    q.Rate,
			Payer:        true,
			Overnight:    conv.Overnight,
			FixedLeg:     conv.Fixed,
			FloatLeg:     conv.Float,
			Calendar:     cal,
			FundingCurve: c.Discounting,
			ForwardCurve: c.Name,
		}, nil
	}
	return nil, errors.Errorf("unsupported quote type %q", q.Type)
}

func label(curve string, q marketdata.Quote) string {
	if q.Type == marketdata.FRA {
		return fmt.Sprintf("%s %s %sx%s", curve, q.Type, q.Start, utils.Tenor{Months: q.Start.Months + q.Tenor.Months, Days: q.Start.Days + q.Tenor.Days})
	}
	return fmt.Sprintf("%s %s %s", curve, q.Type, q.Tenor)
}
