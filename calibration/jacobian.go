package calibration

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcurve/instrument"
	"github.com/meenmo/mcurve/sensitivity"
)

// Jacobian is ∂residual_i/∂x_j, built by pushing each instrument's continuous curve
// sensitivity through the node weights of the fitted curves. Known curves contribute
// nothing.
type Jacobian struct {
	data          *DataBundle
	sensitivities instrument.Visitor[sensitivity.CurveSensitivity]
	parallelism   int
}

func NewJacobian(data *DataBundle, sensitivities instrument.Visitor[sensitivity.CurveSensitivity], parallelism int) (*Jacobian, error) {
	if data == nil || sensitivities == nil {
		return nil, errors.New("jacobian needs a data bundle and a sensitivity calculator")
	}
	return &Jacobian{data: data, sensitivities: sensitivities, parallelism: parallelism}, nil
}

func (j *Jacobian) Evaluate(x []float64) (*mat.Dense, error) {
	bundle, err := j.data.Curves(x)
	if err != nil {
		return nil, err
	}
	d := j.data
	out := mat.NewDense(d.NumInstruments(), d.TotalNodes(), nil)
	err = forEachRow(d.NumInstruments(), j.parallelism, func(i int) error {
		s, err := instrument.Accept(d.instruments[i], j.sensitivities, bundle)
		if err != nil {
			return errors.Wrapf(err, "instrument %d", i)
		}
		// each goroutine writes only row i
		row := make([]float64, d.TotalNodes())
		for _, name := range s.CurveNames() {
			k, fitted := d.index[name]
			if !fitted {
				continue
			}
			ys := d.segment(x, k)
			for _, p := range s.Points(name) {
				w := d.nodeCalcs[k].NodeSensitivities(d.interps[k], d.times[k], ys, p.Time)
				for m, wm := range w {
					row[d.starts[k]+m] += p.Value * wm
				}
			}
		}
		out.SetRow(i, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
