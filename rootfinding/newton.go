package rootfinding

import (
	"go.uber.org/zap"
)

// Newton re-evaluates the full Jacobian at every iterate and solves J·dx = F.
type Newton struct {
	Options
}

func (n Newton) Root(f VectorFunction, j JacobianFunction, x0 []float64) (*Result, error) {
	o := n.Options.withDefaults()
	if err := checkStart(x0); err != nil {
		return nil, err
	}
	if j == nil {
		j = FiniteDifferenceJacobian(f, o.FiniteDifferenceShift)
	}

	x := append([]float64(nil), x0...)
	fx, norm, err := evaluate(f, x)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for iter := 0; ; iter++ {
		if norm < o.AbsoluteTolerance {
			res.Root, res.Residual, res.ResidualNorm, res.Iterations = x, fx, norm, iter
			o.Logger.Debug("newton converged", zap.Int("iterations", iter), zap.Float64("residual_norm", norm))
			return res, nil
		}
		if iter == o.MaxIterations {
			return nil, &NonConvergenceError{Method: "newton", Iterations: iter, ResidualNorm: norm}
		}

		jac, err := jacobianAt(j, x)
		if err != nil {
			return nil, err
		}
		res.JacobianEvaluations++

		dx, err := o.Solver.Solve(jac, fx)
		if err != nil {
			return nil, err
		}
		s, err := o.lineSearch(f, x, dx, norm)
		if err != nil {
			return nil, err
		}
		x, fx, norm = s.x, s.fx, s.norm

		o.Logger.Debug("newton iteration",
			zap.Int("iteration", iter+1),
			zap.Float64("residual_norm", norm),
			zap.Float64("step", s.lambda),
		)
	}
}
