package marketdata

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/mcurve/utils"
)

// ErrInvalidQuoteSet is wrapped by every quote-set validation failure.
var ErrInvalidQuoteSet = errors.New("invalid quote set")

// QuoteType is the instrument family a quote refers to.
type QuoteType string

const (
	Cash QuoteType = "cash"
	FRA  QuoteType = "fra"
	OIS  QuoteType = "ois"
	Swap QuoteType = "swap"
)

// Quote is one market rate. Start is the forward start of a FRA; Tenor is the
// length of the deposit, FRA period or swap.
type Quote struct {
	Type  QuoteType
	Start utils.Tenor
	Tenor utils.Tenor
	Rate  float64
}

// CurveQuotes are the quotes a single curve is fitted to.
type CurveQuotes struct {
	Name         string
	Interpolator string
	// Convention names the leg conventions of the curve's instruments, e.g. USD-SOFR.
	Convention string
	// Discounting is the curve that discounts the instruments; defaults to Name.
	Discounting string
	Quotes      []Quote
}

// QuoteSet is a complete market snapshot for one valuation date.
type QuoteSet struct {
	ValuationDate time.Time
	Holidays      []time.Time
	Curves        []CurveQuotes
	// Fixings are keyed by curve name.
	Fixings map[string]*MapFixingSeries
}

// FixingsFor returns the fixings of a curve, or nil.
func (q *QuoteSet) FixingsFor(curve string) FixingSeries {
	if s, ok := q.Fixings[curve]; ok {
		return s
	}
	return nil
}

type rawQuote struct {
	Type  string  `yaml:"type"`
	Start string  `yaml:"start"`
	Tenor string  `yaml:"tenor"`
	Rate  float64 `yaml:"rate"`
}

type rawCurve struct {
	Name         string     `yaml:"name"`
	Interpolator string     `yaml:"interpolator"`
	Convention   string     `yaml:"convention"`
	Discounting  string     `yaml:"discounting"`
	Quotes       []rawQuote `yaml:"quotes"`
}

type rawQuoteSet struct {
	ValuationDate string                        `yaml:"valuation_date"`
	Holidays      []string                      `yaml:"holidays"`
	Curves        []rawCurve                    `yaml:"curves"`
	Fixings       map[string]map[string]float64 `yaml:"fixings"`
}

// LoadQuoteSet reads a YAML quote set from path.
func LoadQuoteSet(path string) (*QuoteSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read quote set")
	}
	qs, err := ParseQuoteSet(data)
	if err != nil {
		return nil, errors.Wrapf(err, "quote set %s", path)
	}
	return qs, nil
}

// ParseQuoteSet decodes and validates a YAML quote set. Unknown keys are rejected.
func ParseQuoteSet(data []byte) (*QuoteSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw rawQuoteSet
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode quote set")
	}
	return raw.build()
}

func (r rawQuoteSet) build() (*QuoteSet, error) {
	vd, err := utils.ParseDate(r.ValuationDate)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidQuoteSet, err.Error())
	}
	qs := &QuoteSet{ValuationDate: vd, Fixings: make(map[string]*MapFixingSeries, len(r.Fixings))}

	for _, h := range r.Holidays {
		d, err := utils.ParseDate(h)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidQuoteSet, err.Error())
		}
		qs.Holidays = append(qs.Holidays, d)
	}

	if len(r.Curves) == 0 {
		return nil, errors.Wrap(ErrInvalidQuoteSet, "no curves")
	}
	seen := make(map[string]bool, len(r.Curves))
	for _, rc := range r.Curves {
		c, err := rc.build()
		if err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, errors.Wrapf(ErrInvalidQuoteSet, "curve %q listed twice", c.Name)
		}
		seen[c.Name] = true
		qs.Curves = append(qs.Curves, c)
	}

	for name, rates := range r.Fixings {
		for day := range rates {
			if _, err := utils.ParseDate(day); err != nil {
				return nil, errors.Wrapf(ErrInvalidQuoteSet, "fixings %q: %v", name, err)
			}
		}
		qs.Fixings[name] = NewMapFixingSeries(rates)
	}
	return qs, nil
}

func (rc rawCurve) build() (CurveQuotes, error) {
	if rc.Name == "" {
		return CurveQuotes{}, errors.Wrap(ErrInvalidQuoteSet, "curve without a name")
	}
	if rc.Convention == "" {
		return CurveQuotes{}, errors.Wrapf(ErrInvalidQuoteSet, "curve %q has no convention", rc.Name)
	}
	if len(rc.Quotes) == 0 {
		return CurveQuotes{}, errors.Wrapf(ErrInvalidQuoteSet, "curve %q has no quotes", rc.Name)
	}
	c := CurveQuotes{
		Name:         rc.Name,
		Interpolator: rc.Interpolator,
		Convention:   rc.Convention,
		Discounting:  rc.Discounting,
	}
	if c.Discounting == "" {
		c.Discounting = c.Name
	}
	for i, rq := range rc.Quotes {
		q, err := rq.build()
		if err != nil {
			return CurveQuotes{}, errors.Wrapf(err, "curve %q quote %d", rc.Name, i)
		}
		c.Quotes = append(c.Quotes, q)
	}
	return c, nil
}

func (rq rawQuote) build() (Quote, error) {
	q := Quote{Type: QuoteType(strings.ToLower(rq.Type)), Rate: rq.Rate}
	switch q.Type {
	case Cash, FRA, OIS, Swap:
	default:
		return Quote{}, errors.Wrapf(ErrInvalidQuoteSet, "unknown quote type %q", rq.Type)
	}
	var err error
	if q.Tenor, err = utils.ParseTenor(rq.Tenor); err != nil {
		return Quote{}, errors.Wrap(ErrInvalidQuoteSet, err.Error())
	}
	if q.Type == FRA {
		if q.Start, err = utils.ParseTenor(rq.Start); err != nil {
			return Quote{}, errors.Wrap(ErrInvalidQuoteSet, err.Error())
		}
	} else if rq.Start != "" {
		return Quote{}, errors.Wrapf(ErrInvalidQuoteSet, "start given for %s quote", q.Type)
	}
	return q, nil
}
