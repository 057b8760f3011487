package calibration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/calibration/calibrationtest"
	"github.com/meenmo/mcurve/config"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/interpolation"
	"github.com/meenmo/mcurve/rootfinding"
)

func newCalibrator(t *testing.T, method string) *calibration.Calibrator {
	t.Helper()
	cfg := config.DefaultConfig
	cfg.Solver.Method = method
	c, err := calibration.New(cfg, nil)
	require.NoError(t, err)
	return c
}

func assertReprices(t *testing.T, m calibrationtest.Market, b *curves.Bundle, tol float64) {
	t.Helper()
	for i, d := range m.Instruments {
		par, err := calculator.ParRate(d, b)
		require.NoError(t, err)
		assert.InDelta(t, m.Quotes[i], par, tol, "instrument %d (%s)", i, instrument.Kind(d))
	}
}

func TestCalibrateParRate_SingleCurve(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"newton", "broyden"} {
		for _, interp := range []interpolation.Interpolator{interpolation.LinearRT{}, interpolation.Linear{}} {
			m := calibrationtest.SingleCurve(interp)
			data, err := m.ParRateData()
			require.NoError(t, err)

			res, err := newCalibrator(t, method).CalibrateParRate(data, nil)
			require.NoError(t, err, "%s/%s", method, interp.Name())
			assert.Equal(t, calibration.ParRate, res.Kind)
			assert.Less(t, res.ResidualNorm, 1e-12)
			assert.Len(t, res.Parameters, data.TotalNodes())
			assertReprices(t, m, res.Curves, 1e-10)

			rows, cols := res.Jacobian.Dims()
			assert.Equal(t, data.NumInstruments(), rows)
			assert.Equal(t, data.TotalNodes(), cols)
			assert.Equal(t, []string{calibrationtest.USD}, res.Fitted.Names())
		}
	}
}

func TestCalibrateParRate_TwoCurves(t *testing.T) {
	t.Parallel()

	m := calibrationtest.TwoCurve(interpolation.LinearRT{})
	data, err := m.ParRateData()
	require.NoError(t, err)

	res, err := newCalibrator(t, "newton").CalibrateParRate(data, nil)
	require.NoError(t, err)
	assertReprices(t, m, res.Curves, 1e-10)
	assert.Equal(t, []string{calibrationtest.OIS, calibrationtest.LIBOR3M}, res.Fitted.Names())

	// fitting LIBOR3M alone against the calibrated OIS curve lands on the same nodes
	ois, err := res.Fitted.Curve(calibrationtest.OIS)
	require.NoError(t, err)
	fwd := calibrationtest.ForwardOnly(interpolation.LinearRT{}, ois)
	fwdData, err := fwd.ParRateData()
	require.NoError(t, err)

	fwdRes, err := newCalibrator(t, "broyden").CalibrateParRate(fwdData, nil)
	require.NoError(t, err)
	assertReprices(t, fwd, fwdRes.Curves, 1e-10)

	start, err := data.StartPosition(calibrationtest.LIBOR3M)
	require.NoError(t, err)
	assert.InDeltaSlice(t, res.Parameters[start:], fwdRes.Parameters, 1e-9)
	assert.ElementsMatch(t, []string{calibrationtest.LIBOR3M, calibrationtest.OIS}, fwdRes.Curves.Names())
}

func TestCalibratePresentValue_MatchesParRate(t *testing.T) {
	t.Parallel()

	m := calibrationtest.TwoCurve(interpolation.LinearRT{})
	parData, err := m.ParRateData()
	require.NoError(t, err)
	pvData, err := m.PresentValueData()
	require.NoError(t, err)

	c := newCalibrator(t, "newton")
	par, err := c.CalibrateParRate(parData, nil)
	require.NoError(t, err)
	pv, err := c.CalibratePresentValue(pvData, nil)
	require.NoError(t, err)

	assert.Equal(t, calibration.PresentValue, pv.Kind)
	assert.InDeltaSlice(t, par.Parameters, pv.Parameters, 1e-9)
	for _, d := range m.Instruments {
		v, err := calculator.PresentValue(d, pv.Curves)
		require.NoError(t, err)
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestJacobian_MatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	for name, m := range map[string]calibrationtest.Market{
		"single/linear_rt":     calibrationtest.SingleCurve(interpolation.LinearRT{}),
		"single/natural_cubic": calibrationtest.SingleCurve(interpolation.NaturalCubic{}),
		"two/linear":           calibrationtest.TwoCurve(interpolation.Linear{}),
		"two/fd_weights":       calibrationtest.TwoCurve(interpolation.LinearRT{}).WithNodeSensitivity(interpolation.FiniteDifference{}),
	} {
		data, err := m.ParRateData()
		require.NoError(t, err, name)

		x := make([]float64, data.TotalNodes())
		for i := range x {
			x[i] = 0.01 + 0.0005*float64(i%7)
		}

		par, err := calibration.NewResidualFunction(data, calculator.ParRateCalculator{}, 4)
		require.NoError(t, err)
		parJac, err := calibration.NewJacobian(data, calculator.ParRateCurveSensitivityCalculator{}, 4)
		require.NoError(t, err)
		checkJacobian(t, name+"/par", par, parJac, x)

		pv, err := calibration.NewResidualFunction(data, calculator.PresentValueCalculator{}, 1)
		require.NoError(t, err)
		pvJac, err := calibration.NewJacobian(data, calculator.PresentValueCurveSensitivityCalculator{}, 1)
		require.NoError(t, err)
		checkJacobian(t, name+"/pv", pv, pvJac, x)
	}
}

func checkJacobian(t *testing.T, name string, r *calibration.ResidualFunction, j *calibration.Jacobian, x []float64) {
	t.Helper()
	analytic, err := j.Evaluate(x)
	require.NoError(t, err, name)
	fd, err := rootfinding.FiniteDifferenceJacobian(r.Evaluate, 1e-6)(x)
	require.NoError(t, err, name)
	assert.True(t, mat.EqualApprox(analytic, fd, 1e-6), "%s\nanalytic\n%v\nfd\n%v",
		name, mat.Formatted(analytic, mat.Squeeze()), mat.Formatted(fd, mat.Squeeze()))
}

func TestResidualFunction_ParallelMatchesInline(t *testing.T) {
	t.Parallel()

	data, err := calibrationtest.TwoCurve(interpolation.LinearRT{}).ParRateData()
	require.NoError(t, err)
	x := make([]float64, data.TotalNodes())
	for i := range x {
		x[i] = 0.02
	}

	inline, err := calibration.NewResidualFunction(data, calculator.ParRateCalculator{}, 1)
	require.NoError(t, err)
	parallel, err := calibration.NewResidualFunction(data, calculator.ParRateCalculator{}, 8)
	require.NoError(t, err)

	a, err := inline.Evaluate(x)
	require.NoError(t, err)
	b, err := parallel.Evaluate(x)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalibrate_FiniteDifferenceJacobianConfig(t *testing.T) {
	t.Parallel()

	m := calibrationtest.SingleCurve(interpolation.LinearRT{})
	data, err := m.ParRateData()
	require.NoError(t, err)

	cfg := config.DefaultConfig
	cfg.Jacobian.FiniteDifference = true
	cfg.Jacobian.Parallelism = 1
	c, err := calibration.New(cfg, nil)
	require.NoError(t, err)

	res, err := c.CalibrateParRate(data, nil)
	require.NoError(t, err)
	assertReprices(t, m, res.Curves, 1e-10)
}

// ghostValuer prices cash off a curve nobody supplies.
type ghostValuer struct {
	calculator.PresentValueCalculator
}

func (ghostValuer) VisitCash(_ *instrument.Cash, b *curves.Bundle) (float64, error) {
	if _, err := b.Curve("GHOST"); err != nil {
		return 0, err
	}
	return 0, nil
}

func TestCalibrate_Errors(t *testing.T) {
	t.Parallel()

	m := calibrationtest.SingleCurve(interpolation.LinearRT{})
	data, err := m.ParRateData()
	require.NoError(t, err)

	t.Run("missing curve propagates", func(t *testing.T) {
		t.Parallel()
		r, err := calibration.NewResidualFunction(data, ghostValuer{}, 2)
		require.NoError(t, err)
		x := make([]float64, data.TotalNodes())
		_, err = r.Evaluate(x)
		require.ErrorIs(t, err, curves.ErrMissingCurve)

		_, err = newCalibrator(t, "newton").Calibrate(data, ghostValuer{}, calculator.PresentValueCurveSensitivityCalculator{}, calibration.PresentValue, nil)
		require.ErrorIs(t, err, curves.ErrMissingCurve)
	})

	t.Run("parameter length", func(t *testing.T) {
		t.Parallel()
		short := []float64{0.01}
		r, err := calibration.NewResidualFunction(data, calculator.ParRateCalculator{}, 1)
		require.NoError(t, err)
		_, err = r.Evaluate(short)
		require.ErrorIs(t, err, calibration.ErrParameterLength)

		j, err := calibration.NewJacobian(data, calculator.ParRateCurveSensitivityCalculator{}, 1)
		require.NoError(t, err)
		_, err = j.Evaluate(short)
		require.ErrorIs(t, err, calibration.ErrParameterLength)

		_, err = newCalibrator(t, "newton").CalibrateParRate(data, short)
		require.ErrorIs(t, err, calibration.ErrParameterLength)
	})

	t.Run("non-convergence", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig
		cfg.Solver.MaxIterations = 1
		c, err := calibration.New(cfg, nil)
		require.NoError(t, err)
		_, err = c.CalibrateParRate(data, nil)
		require.ErrorIs(t, err, rootfinding.ErrNonConvergence)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig
		cfg.Solver.Method = "secant"
		_, err := calibration.New(cfg, nil)
		require.Error(t, err)
	})
}

func TestNewDataBundle_Validation(t *testing.T) {
	t.Parallel()

	swap := calibrationtest.Swap(calibrationtest.OIS, calibrationtest.LIBOR3M, 2, 0.01)
	ois := calibrationtest.OISSwap(calibrationtest.OIS, 2, 0.01)
	known := curves.NewBundle().MustWith(calibrationtest.OIS, curves.ConstantCurve{Rate: 0.01})
	spec := func(name string, times ...float64) calibration.CurveSpec {
		return calibration.CurveSpec{Name: name, Times: times, Interpolator: interpolation.Linear{}}
	}
	one := []instrument.Derivative{ois}

	tests := []struct {
		name        string
		instruments []instrument.Derivative
		targets     []float64
		known       *curves.Bundle
		specs       []calibration.CurveSpec
		want        error
	}{
		{"no instruments", nil, nil, nil, []calibration.CurveSpec{spec("OIS", 1)}, calibration.ErrNoInstruments},
		{"nil instrument", []instrument.Derivative{nil}, []float64{0}, nil, []calibration.CurveSpec{spec("OIS", 1)}, instrument.ErrNilDerivative},
		{"typed nil instrument", []instrument.Derivative{(*instrument.Cash)(nil)}, []float64{0}, nil, []calibration.CurveSpec{spec("OIS", 1)}, instrument.ErrNilDerivative},
		{"target length", one, []float64{0, 0}, nil, []calibration.CurveSpec{spec("OIS", 1)}, calibration.ErrTargetLength},
		{"no curves", one, []float64{0}, nil, nil, calibration.ErrNoCurves},
		{"no nodes", one, []float64{0}, nil, []calibration.CurveSpec{spec("OIS")}, calibration.ErrNoNodes},
		{"unsorted nodes", one, []float64{0}, nil, []calibration.CurveSpec{spec("OIS", 2, 1)}, curves.ErrInvalidNodes},
		{"duplicate curve", one, []float64{0}, nil, []calibration.CurveSpec{spec("OIS", 1), spec("OIS", 2)}, curves.ErrDuplicateCurve},
		{"collides with known", one, []float64{0}, known, []calibration.CurveSpec{spec("OIS", 1)}, calibration.ErrCurveCollision},
		{"unresolved curve", []instrument.Derivative{swap}, []float64{0}, nil, []calibration.CurveSpec{spec("OIS", 1)}, calibration.ErrUnresolvedCurve},
		{"nil interpolator", one, []float64{0}, nil, []calibration.CurveSpec{{Name: "OIS", Times: []float64{1}}}, calibration.ErrNilInterpolator},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := calibration.NewDataBundleFromSpecs(tt.instruments, tt.targets, tt.known, tt.specs)
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("mismatched curve keys", func(t *testing.T) {
		t.Parallel()
		_, err := calibration.NewDataBundle(one, []float64{0}, nil,
			[]calibration.CurveNodes{{Name: "OIS", Times: []float64{1}}},
			[]calibration.CurveInterpolator{{Name: "LIBOR", Interpolator: interpolation.Linear{}}},
			nil)
		require.ErrorIs(t, err, calibration.ErrCurveKeys)

		_, err = calibration.NewDataBundle(one, []float64{0}, nil,
			[]calibration.CurveNodes{{Name: "OIS", Times: []float64{1}}},
			[]calibration.CurveInterpolator{{Name: "OIS", Interpolator: interpolation.Linear{}}},
			[]calibration.CurveNodeSensitivity{{Name: "OIS"}})
		require.ErrorIs(t, err, calibration.ErrNilNodeSensitivity)
	})
}

func TestDataBundle_Accessors(t *testing.T) {
	t.Parallel()

	data, err := calibrationtest.TwoCurve(interpolation.LinearRT{}).ParRateData()
	require.NoError(t, err)

	assert.Equal(t, []string{calibrationtest.OIS, calibrationtest.LIBOR3M}, data.CurveNames())
	assert.Equal(t, 14, data.NumInstruments())
	assert.Equal(t, 14, data.TotalNodes())

	start, err := data.StartPosition(calibrationtest.LIBOR3M)
	require.NoError(t, err)
	assert.Equal(t, 6, start)

	times, err := data.NodeTimes(calibrationtest.OIS)
	require.NoError(t, err)
	times[0] = -1
	again, _ := data.NodeTimes(calibrationtest.OIS)
	assert.Equal(t, 1.0, again[0])

	calc, err := data.NodeSensitivityCalculator(calibrationtest.LIBOR3M)
	require.NoError(t, err)
	assert.IsType(t, interpolation.Analytic{}, calc)

	_, err = data.Interpolator("EURIBOR")
	require.ErrorIs(t, err, curves.ErrMissingCurve)

	_, err = data.WithTargets([]float64{1})
	require.ErrorIs(t, err, calibration.ErrTargetLength)
	zero, err := data.WithTargets(make([]float64, 14))
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 14), zero.Targets())
	assert.NotEqual(t, zero.Targets(), data.Targets())
}
