package calibration

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/config"
	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/logger"
	"github.com/meenmo/mcurve/rootfinding"
	"github.com/meenmo/mcurve/sensitivity"
)

// Kind is the quantity matched to the targets.
type Kind int

const (
	// ParRate matches par rates to quotes.
	ParRate Kind = iota
	// PresentValue matches present values, usually to zero, with instruments struck at their quotes.
	PresentValue
)

func (k Kind) String() string {
	switch k {
	case ParRate:
		return "par_rate"
	case PresentValue:
		return "present_value"
	}
	return "unknown"
}

// Result is a converged calibration.
type Result struct {
	Kind       Kind
	Data       *DataBundle
	Parameters []float64
	// Fitted holds only the calibrated curves, in DataBundle.CurveNames order.
	Fitted *curves.Bundle
	// Curves holds the fitted curves followed by the known ones.
	Curves *curves.Bundle
	// Jacobian is ∂residual/∂parameters at the solution.
	Jacobian     *mat.Dense
	Iterations   int
	ResidualNorm float64
}

// Calibrator solves for the node rates that reprice a DataBundle.
type Calibrator struct {
	cfg    config.Config
	finder rootfinding.VectorRootFinder
	log    *zap.Logger
}

// New validates cfg and selects the root finder it names. log may be nil.
func New(cfg config.Config, log *zap.Logger) (*Calibrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	finder, err := rootfinding.New(cfg.Solver.Method, rootfinding.OptionsFromConfig(cfg, log))
	if err != nil {
		return nil, err
	}
	return &Calibrator{cfg: cfg, finder: finder, log: log}, nil
}

// CalibrateParRate fits par rates to the bundle's targets.
func (c *Calibrator) CalibrateParRate(data *DataBundle, x0 []float64) (*Result, error) {
	return c.Calibrate(data, calculator.ParRateCalculator{}, calculator.ParRateCurveSensitivityCalculator{}, ParRate, x0)
}

// CalibratePresentValue fits present values to the bundle's targets.
func (c *Calibrator) CalibratePresentValue(data *DataBundle, x0 []float64) (*Result, error) {
	return c.Calibrate(data, calculator.PresentValueCalculator{}, calculator.PresentValueCurveSensitivityCalculator{}, PresentValue, x0)
}

// Calibrate runs the root finder on valuer − targets. sens must differentiate the
// same quantity as valuer. A nil x0 starts every node at the configured initial rate.
func (c *Calibrator) Calibrate(
	data *DataBundle,
	valuer instrument.Visitor[float64],
	sens instrument.Visitor[sensitivity.CurveSensitivity],
	kind Kind,
	x0 []float64,
) (*Result, error) {
	if data == nil {
		return nil, errors.New("nil data bundle")
	}
	if x0 == nil {
		x0 = make([]float64, data.TotalNodes())
		for i := range x0 {
			x0[i] = c.cfg.Solver.InitialRate
		}
	}
	if err := data.checkLength(x0); err != nil {
		return nil, err
	}

	parallelism := c.cfg.Jacobian.Parallelism
	residual, err := NewResidualFunction(data, valuer, parallelism)
	if err != nil {
		return nil, err
	}
	jacobian, err := NewJacobian(data, sens, parallelism)
	if err != nil {
		return nil, err
	}
	var jf rootfinding.JacobianFunction = jacobian.Evaluate
	if c.cfg.Jacobian.FiniteDifference {
		jf = rootfinding.FiniteDifferenceJacobian(residual.Evaluate, c.cfg.Solver.FiniteDifferenceShift)
	}

	start := time.Now()
	c.log.Info("calibration started",
		zap.Stringer("kind", kind),
		zap.Strings("curves", data.CurveNames()),
		zap.Int("instruments", data.NumInstruments()),
		zap.Int("nodes", data.TotalNodes()),
		zap.String("method", c.cfg.Solver.Method),
	)

	root, err := c.finder.Root(residual.Evaluate, jf, x0)
	if err != nil {
		c.log.Warn("calibration failed", zap.Stringer("kind", kind), zap.Error(err))
		return nil, errors.Wrapf(err, "%s calibration of %v", kind, data.CurveNames())
	}

	fitted, err := data.FittedCurves(root.Root)
	if err != nil {
		return nil, err
	}
	all, err := data.Curves(root.Root)
	if err != nil {
		return nil, err
	}
	jac, err := jf(root.Root)
	if err != nil {
		return nil, errors.Wrap(err, "jacobian at solution")
	}

	c.log.Info("calibration converged",
		zap.Stringer("kind", kind),
		zap.Int("iterations", root.Iterations),
		zap.Int("jacobian_evaluations", root.JacobianEvaluations),
		zap.Float64("residual_norm", root.ResidualNorm),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Result{
		Kind:         kind,
		Data:         data,
		Parameters:   root.Root,
		Fitted:       fitted,
		Curves:       all,
		Jacobian:     jac,
		Iterations:   root.Iterations,
		ResidualNorm: root.ResidualNorm,
	}, nil
}
