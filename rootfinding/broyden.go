package rootfinding

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Broyden evaluates the Jacobian once and then applies rank-one secant updates
// J += (ΔF − J·Δx)·Δxᵀ / (Δxᵀ·Δx). When a damped step fails to reduce ‖F‖ the
// Jacobian is re-evaluated at the current point.
type Broyden struct {
	Options
}

func (b Broyden) Root(f VectorFunction, j JacobianFunction, x0 []float64) (*Result, error) {
	o := b.Options.withDefaults()
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
	var jac *mat.Dense
	fresh := false
	n := len(x)

	for iter := 0; ; iter++ {
		if norm < o.AbsoluteTolerance {
			res.Root, res.Residual, res.ResidualNorm, res.Iterations = x, fx, norm, iter
			o.Logger.Debug("broyden converged", zap.Int("iterations", iter), zap.Float64("residual_norm", norm))
			return res, nil
		}
		if iter == o.MaxIterations {
			return nil, &NonConvergenceError{Method: "broyden", Iterations: iter, ResidualNorm: norm}
		}

		if jac == nil {
			full, err := jacobianAt(j, x)
			if err != nil {
				return nil, err
			}
			jac = mat.DenseCopyOf(full)
			res.JacobianEvaluations++
			fresh = true
		}

		dx, err := o.Solver.Solve(jac, fx)
		if err != nil {
			if fresh {
				return nil, err
			}
			// the secant approximation degenerated
			jac = nil
			continue
		}
		s, err := o.lineSearch(f, x, dx, norm)
		if err != nil {
			return nil, err
		}
		if !s.reduced && !fresh {
			jac = nil
			continue
		}

		// secant update
		deltaX := make([]float64, n)
		floats.SubTo(deltaX, s.x, x)
		deltaF := make([]float64, n)
		floats.SubTo(deltaF, s.fx, fx)
		if ss := floats.Dot(deltaX, deltaX); ss > 0 {
			predicted := mat.NewVecDense(n, nil)
			predicted.MulVec(jac, mat.NewVecDense(n, deltaX))
			u := mat.NewVecDense(n, nil)
			u.SubVec(mat.NewVecDense(n, deltaF), predicted)
			jac.RankOne(jac, 1/ss, u, mat.NewVecDense(n, deltaX))
		}
		fresh = false

		x, fx, norm = s.x, s.fx, s.norm
		o.Logger.Debug("broyden iteration",
			zap.Int("iteration", iter+1),
			zap.Float64("residual_norm", norm),
			zap.Float64("step", s.lambda),
		)
	}
}
