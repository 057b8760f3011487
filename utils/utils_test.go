package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mcurve/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start, end := date(2025, 1, 31), date(2025, 7, 31)
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"act/360", "ACT/360", 181.0 / 360},
		{"act/365f", "act/365f", 181.0 / 365},
		{"30e/360", "30/360", 0.5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dc, err := utils.ParseDayCount(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, dc.YearFraction(start, end), 1e-15)
		})
	}

	_, err := utils.ParseDayCount("BUS/252")
	require.ErrorIs(t, err, utils.ErrUnknownDayCount)
}

func TestAddMonth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, date(2025, 2, 28), utils.AddMonth(date(2025, 1, 31), 1))
	assert.Equal(t, date(2024, 2, 29), utils.AddMonth(date(2023, 11, 30), 3))
	assert.Equal(t, date(2024, 11, 28), utils.AddMonth(date(2025, 2, 28), -3))
}

func TestParseTenor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want utils.Tenor
		str  string
	}{
		{"3M", utils.Tenor{Months: 3}, "3M"},
		{"10y", utils.Tenor{Months: 120}, "10Y"},
		{"2W", utils.Tenor{Days: 14}, "14D"},
		{" 1D ", utils.Tenor{Days: 1}, "1D"},
		{"18M", utils.Tenor{Months: 18}, "18M"},
	}
	for _, tt := range tests {
		got, err := utils.ParseTenor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.str, got.String())
	}

	for _, bad := range []string{"", "M", "0Y", "-1M", "3Q", "xY"} {
		_, err := utils.ParseTenor(bad)
		require.ErrorIs(t, err, utils.ErrInvalidTenor, bad)
	}

	p, _ := utils.ParseTenor("1M")
	assert.Equal(t, date(2025, 2, 28), p.AddTo(date(2025, 1, 31)))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := utils.ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 14), d)

	_, err = utils.ParseDate("14/03/2025")
	require.Error(t, err)
}
