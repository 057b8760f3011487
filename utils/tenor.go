package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidTenor is returned by ParseTenor.
var ErrInvalidTenor = errors.New("invalid tenor")

// Tenor is a period such as 3M or 10Y. Days and weeks count calendar days.
type Tenor struct {
	Days   int
	Months int
}

// ParseTenor reads "<n>D", "<n>W", "<n>M" or "<n>Y" with n > 0.
func ParseTenor(s string) (Tenor, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Tenor{}, errors.Wrapf(ErrInvalidTenor, "%q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Tenor{}, errors.Wrapf(ErrInvalidTenor, "%q", s)
	}
	switch s[len(s)-1] {
	case 'D':
		return Tenor{Days: n}, nil
	case 'W':
		return Tenor{Days: 7 * n}, nil
	case 'M':
		return Tenor{Months: n}, nil
	case 'Y':
		return Tenor{Months: 12 * n}, nil
	}
	return Tenor{}, errors.Wrapf(ErrInvalidTenor, "%q", s)
}

// AddTo returns t moved by the tenor, month arithmetic as in AddMonth.
func (p Tenor) AddTo(t time.Time) time.Time {
	if p.Months != 0 {
		t = AddMonth(t, p.Months)
	}
	return t.AddDate(0, 0, p.Days)
}

// Years approximates the tenor length, for ordering and labels.
func (p Tenor) Years() float64 {
	return float64(p.Months)/12 + float64(p.Days)/365
}

func (p Tenor) String() string {
	switch {
	case p.Days == 0 && p.Months%12 == 0:
		return strconv.Itoa(p.Months/12) + "Y"
	case p.Days == 0:
		return strconv.Itoa(p.Months) + "M"
	case p.Months == 0:
		return strconv.Itoa(p.Days) + "D"
	}
	return strconv.Itoa(p.Months) + "M" + strconv.Itoa(p.Days) + "D"
}
