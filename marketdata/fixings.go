// Package marketdata holds the inputs of a curve build: quoted rates by curve and the
// historical fixings needed for coupons that have already fixed.
package marketdata

import (
	"time"

	"github.com/meenmo/mcurve/utils"
)

// FixingSeries supplies published index fixings by fixing date.
type FixingSeries interface {
	RateOn(date time.Time) (float64, bool)
}

// MapFixingSeries is a static map-backed series keyed by YYYY-MM-DD.
type MapFixingSeries struct {
	rates map[string]float64
}

// NewMapFixingSeries copies rates.
func NewMapFixingSeries(rates map[string]float64) *MapFixingSeries {
	m := &MapFixingSeries{rates: make(map[string]float64, len(rates))}
	for k, v := range rates {
		m.rates[k] = v
	}
	return m
}

func (m *MapFixingSeries) RateOn(date time.Time) (float64, bool) {
	if m == nil {
		return 0, false
	}
	val, ok := m.rates[date.Format(utils.DateLayout)]
	return val, ok
}

func (m *MapFixingSeries) Len() int { return len(m.rates) }
