// Package rootfinding solves F(x) = 0 for F: ℝⁿ → ℝⁿ with Newton and Broyden
// iterations.
package rootfinding

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/config"
	"github.com/meenmo/mcurve/linalg"
	"github.com/meenmo/mcurve/logger"
)

var (
	// ErrNonConvergence matches every *NonConvergenceError.
	ErrNonConvergence = errors.New("root finder did not converge")
	ErrDimension      = errors.New("dimension mismatch")
)

// VectorFunction is the system to solve.
type VectorFunction func(x []float64) ([]float64, error)

// JacobianFunction returns ∂F_i/∂x_j at x.
type JacobianFunction func(x []float64) (*mat.Dense, error)

// NonConvergenceError reports an exhausted iteration budget. No partial root is returned.
type NonConvergenceError struct {
	Method       string
	Iterations   int
	ResidualNorm float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: no root after %d iterations, |F| = %.3e", e.Method, e.Iterations, e.ResidualNorm)
}

func (e *NonConvergenceError) Is(target error) bool { return target == ErrNonConvergence }

// Options are shared by both methods. Zero values fall back to DefaultOptions.
type Options struct {
	AbsoluteTolerance     float64
	MaxIterations         int
	MaxLineSearch         int
	FiniteDifferenceShift float64
	Solver                linalg.Solver
	Logger                *zap.Logger
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig, nil)
}

// OptionsFromConfig maps the solver and linalg sections of cfg.
func OptionsFromConfig(cfg config.Config, log *zap.Logger) Options {
	return Options{
		AbsoluteTolerance:     cfg.Solver.AbsoluteTolerance,
		MaxIterations:         cfg.Solver.MaxIterations,
		MaxLineSearch:         cfg.Solver.MaxLineSearch,
		FiniteDifferenceShift: cfg.Solver.FiniteDifferenceShift,
		Solver: linalg.Solver{
			LUConditionLimit:    cfg.Linalg.LUConditionLimit,
			SingularValueCutoff: cfg.Linalg.SingularValueCutoff,
		},
		Logger: log,
	}
}

func (o Options) withDefaults() Options {
	d := config.DefaultConfig.Solver
	if o.AbsoluteTolerance <= 0 {
		o.AbsoluteTolerance = d.AbsoluteTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.MaxLineSearch < 0 {
		o.MaxLineSearch = 0
	}
	if o.FiniteDifferenceShift <= 0 {
		o.FiniteDifferenceShift = d.FiniteDifferenceShift
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

// Result is a converged root.
type Result struct {
	Root                []float64
	Residual            []float64
	ResidualNorm        float64
	Iterations          int
	JacobianEvaluations int
}

// VectorRootFinder finds x with ‖F(x)‖₂ below tolerance. A nil Jacobian is replaced
// by FiniteDifferenceJacobian.
type VectorRootFinder interface {
	Root(f VectorFunction, j JacobianFunction, x0 []float64) (*Result, error)
}

// New returns the finder named by method ("newton" or "broyden").
func New(method string, opts Options) (VectorRootFinder, error) {
	switch strings.ToLower(method) {
	case "", "newton":
		return Newton{Options: opts}, nil
	case "broyden":
		return Broyden{Options: opts}, nil
	}
	return nil, errors.Errorf("unknown root finder %q", method)
}

// FiniteDifferenceJacobian differentiates f by central differences with the given shift.
func FiniteDifferenceJacobian(f VectorFunction, shift float64) JacobianFunction {
	if shift <= 0 {
		shift = config.DefaultConfig.Solver.FiniteDifferenceShift
	}
	return func(x []float64) (*mat.Dense, error) {
		n := len(x)
		bumped := append([]float64(nil), x...)
		var jac *mat.Dense
		for j := 0; j < n; j++ {
			bumped[j] = x[j] + shift
			up, err := f(bumped)
			if err != nil {
				return nil, err
			}
			bumped[j] = x[j] - shift
			down, err := f(bumped)
			if err != nil {
				return nil, err
			}
			bumped[j] = x[j]

			if jac == nil {
				jac = mat.NewDense(len(up), n, nil)
			}
			if len(up) != len(down) {
				return nil, errors.Wrapf(ErrDimension, "function returned %d then %d values", len(up), len(down))
			}
			col := make([]float64, len(up))
			floats.SubTo(col, up, down)
			floats.Scale(1/(2*shift), col)
			jac.SetCol(j, col)
		}
		return jac, nil
	}
}

// evaluate calls f and checks the output length.
func evaluate(f VectorFunction, x []float64) ([]float64, float64, error) {
	fx, err := f(x)
	if err != nil {
		return nil, 0, err
	}
	if len(fx) != len(x) {
		return nil, 0, errors.Wrapf(ErrDimension, "function of %d parameters returned %d values", len(x), len(fx))
	}
	return fx, floats.Norm(fx, 2), nil
}

func jacobianAt(j JacobianFunction, x []float64) (*mat.Dense, error) {
	jac, err := j(x)
	if err != nil {
		return nil, err
	}
	if jac == nil {
		return nil, errors.Wrap(ErrDimension, "nil Jacobian")
	}
	if r, c := jac.Dims(); r != len(x) || c != len(x) {
		return nil, errors.Wrapf(ErrDimension, "Jacobian is %dx%d for %d parameters", r, c, len(x))
	}
	return jac, nil
}

// step is one damped move x − λ·dx.
type step struct {
	x, fx   []float64
	norm    float64
	lambda  float64
	reduced bool
}

// lineSearch halves λ from 1 until ‖F‖ drops below norm or MaxLineSearch halvings
// are spent. In the latter case the last finite trial is returned with reduced unset.
func (o Options) lineSearch(f VectorFunction, x, dx []float64, norm float64) (step, error) {
	var last *step
	lambda := 1.0
	for k := 0; k <= o.MaxLineSearch; k++ {
		trial := make([]float64, len(x))
		floats.AddScaledTo(trial, x, -lambda, dx)
		fx, n, err := evaluate(f, trial)
		if err != nil {
			return step{}, err
		}
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			s := step{x: trial, fx: fx, norm: n, lambda: lambda}
			if n < norm {
				s.reduced = true
				return s, nil
			}
			last = &s
		}
		lambda /= 2
	}
	if last == nil {
		return step{}, errors.New("residual is not finite along the search direction")
	}
	return *last, nil
}

func checkStart(x0 []float64) error {
	if len(x0) == 0 {
		return errors.Wrap(ErrDimension, "empty starting point")
	}
	for i, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("starting point entry %d is not finite", i)
		}
	}
	return nil
}
