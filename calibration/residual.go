package calibration

import (
	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/instrument"
)

// ResidualFunction maps node rates to value_i − target_i for every calibration instrument.
type ResidualFunction struct {
	data        *DataBundle
	valuer      instrument.Visitor[float64]
	parallelism int
}

// NewResidualFunction values rows with valuer, parallelism rows at a time.
func NewResidualFunction(data *DataBundle, valuer instrument.Visitor[float64], parallelism int) (*ResidualFunction, error) {
	if data == nil || valuer == nil {
		return nil, errors.New("residual function needs a data bundle and a valuer")
	}
	return &ResidualFunction{data: data, valuer: valuer, parallelism: parallelism}, nil
}

func (r *ResidualFunction) Evaluate(x []float64) ([]float64, error) {
	bundle, err := r.data.Curves(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, r.data.NumInstruments())
	err = forEachRow(len(out), r.parallelism, func(i int) error {
		v, err := instrument.Accept(r.data.instruments[i], r.valuer, bundle)
		if err != nil {
			return errors.Wrapf(err, "instrument %d", i)
		}
		out[i] = v - r.data.targets[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
