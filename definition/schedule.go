package definition

import (
	"time"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/utils"
)

// SchedulePeriod is one accrual period of a leg, business-day adjusted.
type SchedulePeriod struct {
	StartDate    time.Time
	EndDate      time.Time
	PayDate      time.Time
	FixingDate   time.Time
	YearFraction float64
}

// stubDays is the longest front stub kept as its own period in backward generation;
// shorter ones are merged into the first regular period.
const stubDays = 7

// GenerateSchedule builds the accrual periods of a leg between effective and maturity.
func GenerateSchedule(effective, maturity time.Time, leg LegConvention, cal *calendar.Calendar) ([]SchedulePeriod, error) {
	if cal == nil {
		return nil, errors.New("generate schedule: nil calendar")
	}
	if !maturity.After(effective) {
		return nil, errors.Errorf("generate schedule: maturity %s not after effective %s",
			maturity.Format(utils.DateLayout), effective.Format(utils.DateLayout))
	}
	if leg.PayFrequency <= 0 {
		return nil, errors.Errorf("generate schedule: unsupported pay frequency %d", leg.PayFrequency)
	}

	var dates []time.Time
	if leg.Direction == ScheduleBackward {
		dates = backwardDates(effective, maturity, leg)
	} else {
		dates = forwardDates(effective, maturity, leg)
	}

	periods := make([]SchedulePeriod, 0, len(dates)-1)
	for i := 0; i+1 < len(dates); i++ {
		start := cal.Adjust(dates[i])
		end := cal.Adjust(dates[i+1])
		periods = append(periods, SchedulePeriod{
			StartDate:    start,
			EndDate:      end,
			PayDate:      cal.AddBusinessDays(end, leg.PayDelayDays),
			FixingDate:   cal.AddBusinessDays(start, -leg.FixingLagDays),
			YearFraction: leg.DayCount.YearFraction(start, end),
		})
	}
	return periods, nil
}

func roll(t time.Time, months int, eom bool) time.Time {
	if eom {
		return utils.AddMonth(t, months)
	}
	return t.AddDate(0, months, 0)
}

// forwardDates are unadjusted period boundaries from effective, with a back stub
// ending at maturity when needed.
func forwardDates(effective, maturity time.Time, leg LegConvention) []time.Time {
	dates := []time.Time{effective}
	for k := 1; ; k++ {
		// roll from the effective date to avoid month-end drift
		next := roll(effective, k*leg.PayFrequency, leg.EndOfMonth)
		if !next.Before(maturity) {
			break
		}
		dates = append(dates, next)
	}
	return append(dates, maturity)
}

// backwardDates roll back from maturity; a front stub of stubDays or fewer is merged.
func backwardDates(effective, maturity time.Time, leg LegConvention) []time.Time {
	var rev []time.Time
	for k := 1; ; k++ {
		prev := roll(maturity, -k*leg.PayFrequency, leg.EndOfMonth)
		if !prev.After(effective) {
			break
		}
		rev = append(rev, prev)
	}
	if n := len(rev); n > 0 && utils.Days(effective, rev[n-1]) <= stubDays {
		rev = rev[:n-1]
	}
	dates := make([]time.Time, 0, len(rev)+2)
	dates = append(dates, effective)
	for i := len(rev) - 1; i >= 0; i-- {
		dates = append(dates, rev[i])
	}
	return append(dates, maturity)
}

// TimeAxis converts dates into curve times: ACT/365F year fractions from the valuation date.
type TimeAxis struct {
	ValuationDate time.Time
}

func (a TimeAxis) Time(d time.Time) float64 {
	return utils.Act365F.YearFraction(a.ValuationDate, d)
}
