package utils

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownDayCount is returned by ParseDayCount for an unrecognised convention.
var ErrUnknownDayCount = errors.New("unknown day count")

// DayCount is an accrual convention.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
	// Dc30E360 is 30E/360 ISDA (Eurobond basis).
	Dc30E360 DayCount = "30E/360"
)

// ParseDayCount accepts the names above, case-insensitively, plus "30/360" and "ACT/365".
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACT/360":
		return Act360, nil
	case "ACT/365F", "ACT/365":
		return Act365F, nil
	case "30E/360", "30/360":
		return Dc30E360, nil
	}
	return "", errors.Wrapf(ErrUnknownDayCount, "%q", s)
}

// YearFraction computes the accrual fraction between two dates.
func (dc DayCount) YearFraction(start, end time.Time) float64 {
	switch dc {
	case Act360:
		return Days(start, end) / 360.0
	case Dc30E360:
		// D1 and D2 are capped at 30
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}
