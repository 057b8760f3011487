// Package calibration fits interpolated yield curves so that a set of instruments
// reprices to its targets.
package calibration

import (
	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/curves"
	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/interpolation"
)

var (
	ErrNoInstruments      = errors.New("no calibration instruments")
	ErrTargetLength       = errors.New("target count differs from instrument count")
	ErrNoCurves           = errors.New("no curves to fit")
	ErrCurveKeys          = errors.New("curve node, interpolator and sensitivity names differ")
	ErrCurveCollision     = errors.New("fitted curve name collides with a known curve")
	ErrUnresolvedCurve    = errors.New("instrument references an unknown curve")
	ErrParameterLength    = errors.New("parameter vector length differs from node count")
	ErrNilInterpolator    = errors.New("nil interpolator")
	ErrNoNodes            = errors.New("curve has no nodes")
	ErrNilNodeSensitivity = errors.New("nil node sensitivity calculator")
)

// CurveNodes are the node times of one fitted curve.
type CurveNodes struct {
	Name  string
	Times []float64
}

// CurveInterpolator assigns the interpolator of one fitted curve.
type CurveInterpolator struct {
	Name         string
	Interpolator interpolation.Interpolator
}

// CurveNodeSensitivity assigns the node-weight calculator of one fitted curve.
type CurveNodeSensitivity struct {
	Name       string
	Calculator interpolation.NodeSensitivityCalculator
}

// CurveSpec describes a fitted curve in one place. A nil NodeSensitivity means analytic weights.
type CurveSpec struct {
	Name            string
	Times           []float64
	Interpolator    interpolation.Interpolator
	NodeSensitivity interpolation.NodeSensitivityCalculator
}

// DataBundle is the validated, immutable input of one calibration run.
type DataBundle struct {
	instruments []instrument.Derivative
	targets     []float64
	known       *curves.Bundle

	names     []string
	index     map[string]int
	times     [][]float64
	interps   []interpolation.Interpolator
	nodeCalcs []interpolation.NodeSensitivityCalculator
	starts    []int
	total     int

	// fitted curves first, then known ones
	layout       *curves.Layout
	fittedLayout *curves.Layout
}

// NewDataBundleFromSpecs builds the three per-curve sequences from specs.
func NewDataBundleFromSpecs(instruments []instrument.Derivative, targets []float64, known *curves.Bundle, specs []CurveSpec) (*DataBundle, error) {
	nodes := make([]CurveNodes, len(specs))
	interps := make([]CurveInterpolator, len(specs))
	calcs := make([]CurveNodeSensitivity, len(specs))
	for i, s := range specs {
		nodes[i] = CurveNodes{Name: s.Name, Times: s.Times}
		interps[i] = CurveInterpolator{Name: s.Name, Interpolator: s.Interpolator}
		calc := s.NodeSensitivity
		if calc == nil {
			calc = interpolation.Analytic{}
		}
		calcs[i] = CurveNodeSensitivity{Name: s.Name, Calculator: calc}
	}
	return NewDataBundle(instruments, targets, known, nodes, interps, calcs)
}

// NewDataBundle validates its inputs eagerly. nodes, interpolators and
// nodeSensitivities must name the same curves in the same order; a nil
// nodeSensitivities gives every curve analytic weights. known may be nil.
func NewDataBundle(
	instruments []instrument.Derivative,
	targets []float64,
	known *curves.Bundle,
	nodes []CurveNodes,
	interpolators []CurveInterpolator,
	nodeSensitivities []CurveNodeSensitivity,
) (*DataBundle, error) {
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}
	for i, d := range instruments {
		if instrument.IsNil(d) {
			return nil, errors.Wrapf(instrument.ErrNilDerivative, "instrument %d", i)
		}
	}
	if len(targets) != len(instruments) {
		return nil, errors.Wrapf(ErrTargetLength, "%d targets for %d instruments", len(targets), len(instruments))
	}
	if len(nodes) == 0 {
		return nil, ErrNoCurves
	}
	if nodeSensitivities == nil {
		nodeSensitivities = make([]CurveNodeSensitivity, len(nodes))
		for i, n := range nodes {
			nodeSensitivities[i] = CurveNodeSensitivity{Name: n.Name, Calculator: interpolation.Analytic{}}
		}
	}
	if len(interpolators) != len(nodes) || len(nodeSensitivities) != len(nodes) {
		return nil, errors.Wrapf(ErrCurveKeys, "%d node sets, %d interpolators, %d sensitivity calculators",
			len(nodes), len(interpolators), len(nodeSensitivities))
	}
	if known == nil {
		known = curves.NewBundle()
	}

	b := &DataBundle{
		instruments: append([]instrument.Derivative(nil), instruments...),
		targets:     append([]float64(nil), targets...),
		known:       known,
		index:       make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		if interpolators[i].Name != n.Name || nodeSensitivities[i].Name != n.Name {
			return nil, errors.Wrapf(ErrCurveKeys, "position %d: %q / %q / %q",
				i, n.Name, interpolators[i].Name, nodeSensitivities[i].Name)
		}
		if _, dup := b.index[n.Name]; dup {
			return nil, errors.Wrapf(curves.ErrDuplicateCurve, "fitted curve %q", n.Name)
		}
		if known.Has(n.Name) {
			return nil, errors.Wrapf(ErrCurveCollision, "%q", n.Name)
		}
		if len(n.Times) == 0 {
			return nil, errors.Wrapf(ErrNoNodes, "%q", n.Name)
		}
		if err := curves.ValidateTimes(n.Times); err != nil {
			return nil, errors.Wrapf(err, "curve %q", n.Name)
		}
		if interpolators[i].Interpolator == nil {
			return nil, errors.Wrapf(ErrNilInterpolator, "%q", n.Name)
		}
		if nodeSensitivities[i].Calculator == nil {
			return nil, errors.Wrapf(ErrNilNodeSensitivity, "%q", n.Name)
		}

		b.index[n.Name] = i
		b.names = append(b.names, n.Name)
		b.times = append(b.times, append([]float64(nil), n.Times...))
		b.interps = append(b.interps, interpolators[i].Interpolator)
		b.nodeCalcs = append(b.nodeCalcs, nodeSensitivities[i].Calculator)
		b.starts = append(b.starts, b.total)
		b.total += len(n.Times)
	}

	for i, d := range b.instruments {
		for _, name := range d.CurveNames() {
			if _, fitted := b.index[name]; !fitted && !known.Has(name) {
				return nil, errors.Wrapf(ErrUnresolvedCurve, "instrument %d (%s) uses %q", i, instrument.Kind(d), name)
			}
		}
	}

	var err error
	if b.fittedLayout, err = curves.NewLayout(b.names...); err != nil {
		return nil, err
	}
	if b.layout, err = curves.NewLayout(append(b.CurveNames(), known.Names()...)...); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *DataBundle) Derivative(i int) instrument.Derivative { return b.instruments[i] }

func (b *DataBundle) NumInstruments() int { return len(b.instruments) }

// Instruments returns a copy of the instrument list.
func (b *DataBundle) Instruments() []instrument.Derivative {
	return append([]instrument.Derivative(nil), b.instruments...)
}

// Targets returns a copy of the targets.
func (b *DataBundle) Targets() []float64 { return append([]float64(nil), b.targets...) }

// KnownCurves never returns nil.
func (b *DataBundle) KnownCurves() *curves.Bundle { return b.known }

// CurveNames lists the fitted curves in parameter order.
func (b *DataBundle) CurveNames() []string { return append([]string(nil), b.names...) }

// NodeTimes returns a copy of the node times of a fitted curve.
func (b *DataBundle) NodeTimes(name string) ([]float64, error) {
	i, err := b.curveIndex(name)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), b.times[i]...), nil
}

func (b *DataBundle) Interpolator(name string) (interpolation.Interpolator, error) {
	i, err := b.curveIndex(name)
	if err != nil {
		return nil, err
	}
	return b.interps[i], nil
}

func (b *DataBundle) NodeSensitivityCalculator(name string) (interpolation.NodeSensitivityCalculator, error) {
	i, err := b.curveIndex(name)
	if err != nil {
		return nil, err
	}
	return b.nodeCalcs[i], nil
}

// TotalNodes is the length of the parameter vector.
func (b *DataBundle) TotalNodes() int { return b.total }

// StartPosition is the offset of a fitted curve's first node in the parameter vector.
func (b *DataBundle) StartPosition(name string) (int, error) {
	i, err := b.curveIndex(name)
	if err != nil {
		return 0, err
	}
	return b.starts[i], nil
}

func (b *DataBundle) curveIndex(name string) (int, error) {
	i, ok := b.index[name]
	if !ok {
		return 0, &curves.MissingCurveError{Name: name}
	}
	return i, nil
}

// segment is the slice of x holding curve i's node rates.
func (b *DataBundle) segment(x []float64, i int) []float64 {
	return x[b.starts[i] : b.starts[i]+len(b.times[i])]
}

func (b *DataBundle) checkLength(x []float64) error {
	if len(x) != b.total {
		return errors.Wrapf(ErrParameterLength, "got %d, want %d", len(x), b.total)
	}
	return nil
}

func (b *DataBundle) fittedCurves(x []float64) ([]curves.YieldCurve, error) {
	if err := b.checkLength(x); err != nil {
		return nil, err
	}
	out := make([]curves.YieldCurve, len(b.names))
	for i, name := range b.names {
		c, err := curves.NewInterpolatedCurve(b.times[i], b.segment(x, i), b.interps[i])
		if err != nil {
			return nil, errors.Wrapf(err, "curve %q", name)
		}
		out[i] = c
	}
	return out, nil
}

// FittedCurves builds the fitted curves for parameters x.
func (b *DataBundle) FittedCurves(x []float64) (*curves.Bundle, error) {
	fitted, err := b.fittedCurves(x)
	if err != nil {
		return nil, err
	}
	return b.fittedLayout.Bind(fitted)
}

// Curves builds the fitted curves for x followed by the known curves.
func (b *DataBundle) Curves(x []float64) (*curves.Bundle, error) {
	fitted, err := b.fittedCurves(x)
	if err != nil {
		return nil, err
	}
	return b.layout.Bind(append(fitted, b.known.Curves()...))
}

// WithTargets returns a bundle sharing everything but the targets, e.g. zero PV
// targets for the same instruments.
func (b *DataBundle) WithTargets(targets []float64) (*DataBundle, error) {
	if len(targets) != len(b.instruments) {
		return nil, errors.Wrapf(ErrTargetLength, "%d targets for %d instruments", len(targets), len(b.instruments))
	}
	c := *b
	c.targets = append([]float64(nil), targets...)
	return &c, nil
}
