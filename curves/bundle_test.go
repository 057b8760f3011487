package curves_test

import (
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/interpolation"
)

func TestNewInterpolatedCurve_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		times  []float64
		rates  []float64
		interp interpolation.Interpolator
	}{
		{"empty", nil, nil, interpolation.Linear{}},
		{"length mismatch", []float64{1, 2}, []float64{0.01}, interpolation.Linear{}},
		{"not increasing", []float64{1, 1}, []float64{0.01, 0.02}, interpolation.Linear{}},
		{"nan rate", []float64{1, 2}, []float64{0.01, math.NaN()}, interpolation.Linear{}},
		{"nil interpolator", []float64{1}, []float64{0.01}, nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := curves.NewInterpolatedCurve(tc.times, tc.rates, tc.interp)
			require.ErrorIs(t, err, curves.ErrInvalidNodes)
		})
	}
}

func TestInterpolatedCurve_DiscountFactor(t *testing.T) {
	t.Parallel()

	times := []float64{1, 2}
	rates := []float64{0.02, 0.03}
	c, err := curves.NewInterpolatedCurve(times, rates, interpolation.Linear{})
	require.NoError(t, err)

	times[0] = 5 // the curve owns a copy
	assert.Equal(t, []float64{1, 2}, c.NodeTimes())

	assert.InDelta(t, math.Exp(-0.025*1.5), c.DiscountFactor(1.5), 1e-15)
	assert.InDelta(t, 1.0, c.DiscountFactor(0), 1e-15)
	assert.Equal(t, []float64{0.5, 0.5}, c.NodeSensitivities(1.5))
}

func TestBundle_WithMergeAndLookup(t *testing.T) {
	t.Parallel()

	known := curves.NewBundle().MustWith("OIS", curves.ConstantCurve{Rate: 0.01})
	fitted := curves.NewBundle().MustWith("LIBOR", curves.ConstantCurve{Rate: 0.02})

	merged, err := known.Merge(fitted)
	require.NoError(t, err)
	assert.Equal(t, []string{"OIS", "LIBOR"}, merged.Names())
	assert.Equal(t, 1, known.Len())

	c, err := merged.Curve("LIBOR")
	require.NoError(t, err)
	assert.Equal(t, 0.02, c.InterestRate(3))

	_, err = merged.Curve("EURIBOR")
	require.ErrorIs(t, err, curves.ErrMissingCurve)
	var missing *curves.MissingCurveError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "EURIBOR", missing.Name)

	_, err = merged.Merge(known)
	require.ErrorIs(t, err, curves.ErrDuplicateCurve)

	_, err = known.With("OIS", curves.ConstantCurve{})
	require.ErrorIs(t, err, curves.ErrDuplicateCurve)
}

func TestLayout_BindSharesHandles(t *testing.T) {
	t.Parallel()

	layout, err := curves.NewLayout("A", "B")
	require.NoError(t, err)

	first, err := layout.Bind([]curves.YieldCurve{curves.ConstantCurve{Rate: 0.01}, curves.ConstantCurve{Rate: 0.02}})
	require.NoError(t, err)
	second, err := layout.Bind([]curves.YieldCurve{curves.ConstantCurve{Rate: 0.03}, curves.ConstantCurve{Rate: 0.04}})
	require.NoError(t, err)

	h, ok := layout.Handle("B")
	require.True(t, ok)
	assert.Equal(t, 0.02, first.At(h).InterestRate(1))
	assert.Equal(t, 0.04, second.At(h).InterestRate(1))

	_, err = layout.Bind([]curves.YieldCurve{curves.ConstantCurve{}})
	require.Error(t, err)

	_, err = curves.NewLayout("A", "A")
	require.ErrorIs(t, err, curves.ErrDuplicateCurve)
}

func TestBundle_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	c, err := curves.NewInterpolatedCurve([]float64{1, 5, 10}, []float64{0.01, 0.02, 0.025}, interpolation.NaturalCubic{})
	require.NoError(t, err)
	bundle := curves.NewBundle().MustWith("A", c)

	want := c.DiscountFactor(7)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			crv, err := bundle.Curve("A")
			if err != nil {
				t.Error(err)
				return
			}
			if got := crv.DiscountFactor(7); got != want {
				t.Errorf("DiscountFactor mismatch: %v vs %v", got, want)
			}
		}()
	}
	wg.Wait()
}
