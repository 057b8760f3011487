// Package linalg solves the small dense systems of curve calibration and
// sensitivity propagation.
package linalg

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultLUConditionLimit is the LU condition estimate above which the SVD is used.
	DefaultLUConditionLimit = 1e10
	// DefaultSingularValueCutoff is the smallest σ_min/σ_max accepted as full rank.
	DefaultSingularValueCutoff = 1e-13
)

// ErrSingular matches every *DecompositionError.
var ErrSingular = errors.New("singular or ill-posed matrix")

// DecompositionError reports a matrix that cannot be factorized into a reliable solve.
type DecompositionError struct {
	Method    string
	Reason    string
	Condition float64
}

func (e *DecompositionError) Error() string {
	if e.Condition > 0 {
		return fmt.Sprintf("%s decomposition: %s (condition %.3g)", e.Method, e.Reason, e.Condition)
	}
	return fmt.Sprintf("%s decomposition: %s", e.Method, e.Reason)
}

func (e *DecompositionError) Is(target error) bool { return target == ErrSingular }

// Solver picks the decomposition for each matrix.
type Solver struct {
	LUConditionLimit    float64
	SingularValueCutoff float64
}

// Default returns a Solver with the default limits.
func Default() Solver {
	return Solver{LUConditionLimit: DefaultLUConditionLimit, SingularValueCutoff: DefaultSingularValueCutoff}
}

// Solve returns x with a·x = b.
func Solve(a mat.Matrix, b []float64) ([]float64, error) { return Default().Solve(a, b) }

// SolveTransposed returns x with aᵀ·x = b.
func SolveTransposed(a mat.Matrix, b []float64) ([]float64, error) {
	return Default().SolveTransposed(a, b)
}

// Inverse returns a⁻¹.
func Inverse(a mat.Matrix) (*mat.Dense, error) { return Default().Inverse(a) }

func (s Solver) Solve(a mat.Matrix, b []float64) ([]float64, error) {
	f, err := s.Factorize(a)
	if err != nil {
		return nil, err
	}
	return f.Solve(b)
}

func (s Solver) SolveTransposed(a mat.Matrix, b []float64) ([]float64, error) {
	f, err := s.Factorize(a)
	if err != nil {
		return nil, err
	}
	return f.SolveTransposed(b)
}

func (s Solver) Inverse(a mat.Matrix) (*mat.Dense, error) {
	f, err := s.Factorize(a)
	if err != nil {
		return nil, err
	}
	return f.Inverse()
}

// Factorization is a reusable LU or SVD factorization of a square matrix.
type Factorization struct {
	n      int
	method string
	lu     *mat.LU
	u, v   *mat.Dense
	sigma  []float64
}

// Factorize validates a and factorizes it: LU when its condition estimate is within
// LUConditionLimit, otherwise SVD. A numerically rank-deficient matrix fails.
func (s Solver) Factorize(a mat.Matrix) (*Factorization, error) {
	if a == nil {
		return nil, &DecompositionError{Method: "LU", Reason: "nil matrix"}
	}
	r, c := a.Dims()
	if r != c || r == 0 {
		return nil, &DecompositionError{Method: "LU", Reason: fmt.Sprintf("matrix is %dx%d, not square", r, c)}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DecompositionError{Method: "LU", Reason: fmt.Sprintf("entry (%d,%d) is not finite", i, j)}
			}
		}
	}
	limit := s.LUConditionLimit
	if limit <= 0 {
		limit = DefaultLUConditionLimit
	}
	cutoff := s.SingularValueCutoff
	if cutoff <= 0 {
		cutoff = DefaultSingularValueCutoff
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); !math.IsInf(cond, 0) && !math.IsNaN(cond) && cond <= limit {
		return &Factorization{n: r, method: "LU", lu: &lu}, nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, &DecompositionError{Method: "SVD", Reason: "factorization did not converge"}
	}
	sigma := svd.Values(nil)
	if sigma[0] == 0 || sigma[r-1]/sigma[0] < cutoff {
		cond := math.Inf(1)
		if sigma[r-1] > 0 {
			cond = sigma[0] / sigma[r-1]
		}
		return nil, &DecompositionError{Method: "SVD", Reason: "matrix is numerically rank deficient", Condition: cond}
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &Factorization{n: r, method: "SVD", u: &u, v: &v, sigma: sigma}, nil
}

// Method is "LU" or "SVD".
func (f *Factorization) Method() string { return f.method }

func (f *Factorization) Solve(b []float64) ([]float64, error) { return f.solve(b, false) }

func (f *Factorization) SolveTransposed(b []float64) ([]float64, error) { return f.solve(b, true) }

// Inverse solves against every unit vector.
func (f *Factorization) Inverse() (*mat.Dense, error) {
	inv := mat.NewDense(f.n, f.n, nil)
	e := make([]float64, f.n)
	for j := 0; j < f.n; j++ {
		e[j] = 1
		col, err := f.solve(e, false)
		if err != nil {
			return nil, err
		}
		inv.SetCol(j, col)
		e[j] = 0
	}
	return inv, nil
}

func (f *Factorization) solve(b []float64, trans bool) ([]float64, error) {
	if len(b) != f.n {
		return nil, errors.Errorf("right-hand side has length %d, matrix is %dx%d", len(b), f.n, f.n)
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("right-hand side entry %d is not finite", i)
		}
	}
	rhs := mat.NewVecDense(f.n, append([]float64(nil), b...))
	x := mat.NewVecDense(f.n, nil)

	if f.lu != nil {
		if err := f.lu.SolveVecTo(x, trans, rhs); err != nil {
			return nil, &DecompositionError{Method: "LU", Reason: err.Error(), Condition: f.lu.Cond()}
		}
	} else {
		// a = U·Σ·Vᵀ, so a⁻¹ = V·Σ⁻¹·Uᵀ and a⁻ᵀ = U·Σ⁻¹·Vᵀ.
		left, right := f.v, f.u
		if trans {
			left, right = f.u, f.v
		}
		tmp := mat.NewVecDense(f.n, nil)
		tmp.MulVec(right.T(), rhs)
		for i := 0; i < f.n; i++ {
			tmp.SetVec(i, tmp.AtVec(i)/f.sigma[i])
		}
		x.MulVec(left, tmp)
	}

	out := x.RawVector().Data
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &DecompositionError{Method: f.method, Reason: fmt.Sprintf("solution entry %d is not finite", i)}
		}
	}
	return out, nil
}
