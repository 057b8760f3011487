package rootfinding_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/linalg"
	"github.com/meenmo/mcurve/rootfinding"
)

// circle intersects x² + y² = 4 with x = y.
func circle(x []float64) ([]float64, error) {
	return []float64{x[0]*x[0] + x[1]*x[1] - 4, x[0] - x[1]}, nil
}

func circleJacobian(x []float64) (*mat.Dense, error) {
	return mat.NewDense(2, 2, []float64{2 * x[0], 2 * x[1], 1, -1}), nil
}

// coupled is a mildly nonlinear 3-dimensional system with root near (0, 0.6, 1).
func coupled(x []float64) ([]float64, error) {
	sum := x[0] + x[1] + x[2]
	out := make([]float64, 3)
	for i := range x {
		out[i] = math.Exp(x[i]) - float64(i+1) + 0.1*sum
	}
	return out, nil
}

func finders() map[string]rootfinding.VectorRootFinder {
	opts := rootfinding.DefaultOptions()
	return map[string]rootfinding.VectorRootFinder{
		"newton":  rootfinding.Newton{Options: opts},
		"broyden": rootfinding.Broyden{Options: opts},
	}
}

func TestRoot_AnalyticAndFiniteDifferenceJacobians(t *testing.T) {
	t.Parallel()

	want := math.Sqrt2
	for name, finder := range finders() {
		for _, j := range []rootfinding.JacobianFunction{circleJacobian, nil} {
			res, err := finder.Root(circle, j, []float64{1, 0.5})
			require.NoError(t, err, name)
			assert.InDelta(t, want, res.Root[0], 1e-10, name)
			assert.InDelta(t, want, res.Root[1], 1e-10, name)
			assert.Less(t, res.ResidualNorm, 1e-12)
			assert.Positive(t, res.JacobianEvaluations)
		}
	}
}

func TestRoot_CoupledSystem(t *testing.T) {
	t.Parallel()

	for name, finder := range finders() {
		res, err := finder.Root(coupled, nil, []float64{0, 0, 0})
		require.NoError(t, err, name)
		out, _ := coupled(res.Root)
		for _, v := range out {
			assert.InDelta(t, 0, v, 1e-11, name)
		}
	}
}

func TestBroyden_UsesFewerJacobians(t *testing.T) {
	t.Parallel()

	opts := rootfinding.DefaultOptions()
	newton, err := rootfinding.Newton{Options: opts}.Root(coupled, nil, []float64{0, 0, 0})
	require.NoError(t, err)
	broyden, err := rootfinding.Broyden{Options: opts}.Root(coupled, nil, []float64{0, 0, 0})
	require.NoError(t, err)
	assert.LessOrEqual(t, broyden.JacobianEvaluations, newton.JacobianEvaluations)
}

func TestRoot_NonConvergence(t *testing.T) {
	t.Parallel()

	opts := rootfinding.DefaultOptions()
	opts.MaxIterations = 1
	for name, finder := range map[string]rootfinding.VectorRootFinder{
		"newton":  rootfinding.Newton{Options: opts},
		"broyden": rootfinding.Broyden{Options: opts},
	} {
		res, err := finder.Root(circle, circleJacobian, []float64{10, -3})
		require.ErrorIs(t, err, rootfinding.ErrNonConvergence, name)
		assert.Nil(t, res)

		var nc *rootfinding.NonConvergenceError
		require.True(t, errors.As(err, &nc))
		assert.Equal(t, 1, nc.Iterations)
		assert.Positive(t, nc.ResidualNorm)
	}
}

func TestRoot_SingularJacobian(t *testing.T) {
	t.Parallel()

	f := func(x []float64) ([]float64, error) {
		return []float64{x[0] + x[1] - 1, 2*x[0] + 2*x[1] - 2}, nil
	}
	j := func([]float64) (*mat.Dense, error) {
		return mat.NewDense(2, 2, []float64{1, 1, 2, 2}), nil
	}
	for name, finder := range finders() {
		_, err := finder.Root(f, j, []float64{0, 0})
		require.ErrorIs(t, err, linalg.ErrSingular, name)
	}
}

func TestRoot_DimensionErrors(t *testing.T) {
	t.Parallel()

	finder := rootfinding.Newton{}
	short := func([]float64) ([]float64, error) { return []float64{1}, nil }
	_, err := finder.Root(short, nil, []float64{0, 0})
	require.ErrorIs(t, err, rootfinding.ErrDimension)

	_, err = finder.Root(circle, nil, nil)
	require.ErrorIs(t, err, rootfinding.ErrDimension)

	wide := func([]float64) (*mat.Dense, error) { return mat.NewDense(2, 3, nil), nil }
	_, err = finder.Root(circle, wide, []float64{1, 0.5})
	require.ErrorIs(t, err, rootfinding.ErrDimension)
}

func TestFiniteDifferenceJacobian(t *testing.T) {
	t.Parallel()

	x := []float64{1.3, -0.4}
	fd, err := rootfinding.FiniteDifferenceJacobian(circle, 1e-6)(x)
	require.NoError(t, err)
	analytic, _ := circleJacobian(x)
	assert.True(t, mat.EqualApprox(fd, analytic, 1e-8))
}

func TestNew(t *testing.T) {
	t.Parallel()

	f, err := rootfinding.New("Broyden", rootfinding.DefaultOptions())
	require.NoError(t, err)
	assert.IsType(t, rootfinding.Broyden{}, f)

	_, err = rootfinding.New("bisection", rootfinding.Options{})
	require.Error(t, err)
}
