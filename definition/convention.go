// Package definition describes dated instruments (deposits, FRAs, swaps, bonds) and
// converts them into time-based derivatives for a valuation date.
package definition

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/calendar"
	"github.com/meenmo/mcurve/utils"
)

// ErrUnknownConvention is returned by ConventionByName.
var ErrUnknownConvention = errors.New("unknown convention")

// ScheduleDirection selects where a stub period falls.
type ScheduleDirection int

const (
	// ScheduleForward rolls from the effective date; any stub is at the back.
	ScheduleForward ScheduleDirection = iota
	// ScheduleBackward rolls from maturity; any stub is at the front.
	ScheduleBackward
)

// LegConvention captures the settings of one swap leg.
type LegConvention struct {
	DayCount utils.DayCount
	// PayFrequency in months.
	PayFrequency  int
	FixingLagDays int
	PayDelayDays  int
	Direction     ScheduleDirection
	// EndOfMonth rolls month-end dates to month ends.
	EndOfMonth bool
}

// Convention groups the conventions of one curve's instruments.
type Convention struct {
	Name     string
	Calendar calendar.CalendarID
	SpotLag  int
	// Overnight marks an overnight-indexed curve: its floating leg is compounded in
	// arrears and fixes at the start of each period.
	Overnight    bool
	CashDayCount utils.DayCount
	Fixed        LegConvention
	Float        LegConvention
}

// Preset conventions, keyed by name.
var conventions = map[string]Convention{
	"USD-SOFR": {
		Name: "USD-SOFR", Calendar: calendar.USD, SpotLag: 2, Overnight: true, CashDayCount: utils.Act360,
		Fixed: LegConvention{DayCount: utils.Act360, PayFrequency: 12, PayDelayDays: 2, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act360, PayFrequency: 12, PayDelayDays: 2, EndOfMonth: true},
	},
	"USD-LIBOR3M": {
		Name: "USD-LIBOR3M", Calendar: calendar.USD, SpotLag: 2, CashDayCount: utils.Act360,
		Fixed: LegConvention{DayCount: utils.Dc30E360, PayFrequency: 6, Direction: ScheduleBackward, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act360, PayFrequency: 3, FixingLagDays: 2, Direction: ScheduleBackward, EndOfMonth: true},
	},
	"EUR-ESTR": {
		Name: "EUR-ESTR", Calendar: calendar.TARGET, SpotLag: 2, Overnight: true, CashDayCount: utils.Act360,
		Fixed: LegConvention{DayCount: utils.Act360, PayFrequency: 12, PayDelayDays: 1, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act360, PayFrequency: 12, PayDelayDays: 1, EndOfMonth: true},
	},
	"EUR-EURIBOR3M": {
		Name: "EUR-EURIBOR3M", Calendar: calendar.TARGET, SpotLag: 2, CashDayCount: utils.Act360,
		Fixed: LegConvention{DayCount: utils.Dc30E360, PayFrequency: 12, Direction: ScheduleBackward, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act360, PayFrequency: 3, FixingLagDays: 2, Direction: ScheduleBackward, EndOfMonth: true},
	},
	"EUR-EURIBOR6M": {
		Name: "EUR-EURIBOR6M", Calendar: calendar.TARGET, SpotLag: 2, CashDayCount: utils.Act360,
		Fixed: LegConvention{DayCount: utils.Dc30E360, PayFrequency: 12, Direction: ScheduleBackward, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act360, PayFrequency: 6, FixingLagDays: 2, Direction: ScheduleBackward, EndOfMonth: true},
	},
	"JPY-TONAR": {
		Name: "JPY-TONAR", Calendar: calendar.JPN, SpotLag: 2, Overnight: true, CashDayCount: utils.Act365F,
		Fixed: LegConvention{DayCount: utils.Act365F, PayFrequency: 12, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act365F, PayFrequency: 12, EndOfMonth: true},
	},
	"JPY-TIBOR3M": {
		Name: "JPY-TIBOR3M", Calendar: calendar.JPN, SpotLag: 2, CashDayCount: utils.Act365F,
		Fixed: LegConvention{DayCount: utils.Act365F, PayFrequency: 6, EndOfMonth: true},
		Float: LegConvention{DayCount: utils.Act365F, PayFrequency: 3, FixingLagDays: 2, PayDelayDays: 2, EndOfMonth: true},
	},
}

// ConventionByName looks up a preset.
func ConventionByName(name string) (Convention, error) {
	c, ok := conventions[name]
	if !ok {
		return Convention{}, errors.Wrapf(ErrUnknownConvention, "%q", name)
	}
	return c, nil
}

// ConventionNames lists the presets in sorted order.
func ConventionNames() []string {
	names := make([]string, 0, len(conventions))
	for n := range conventions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
