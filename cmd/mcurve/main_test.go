package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mcurve/cmd/mcurve/internal/calibrate"
	"github.com/meenmo/mcurve/cmd/mcurve/internal/delta"
)

const (
	usdQuotes = "../../marketdata/testdata/usd.yaml"
	cfgPath   = "testdata/config.yaml"
)

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"help"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "calibrate")
	assert.Equal(t, 2, run([]string{"bootstrap"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "bootstrap"`)
}

func TestRun_Calibrate(t *testing.T) {
	t.Parallel()

	for _, pv := range []bool{false, true} {
		args := []string{"calibrate", "--quotes", usdQuotes, "--config", cfgPath}
		if pv {
			args = append(args, "--pv")
		}
		var stdout, stderr bytes.Buffer
		require.Equal(t, 0, run(args, nil, &stdout, &stderr), stdout.String())

		var out calibrate.Output
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		assert.Empty(t, out.Error)
		assert.Equal(t, "2025-03-14", out.ValuationDate)
		require.Len(t, out.Curves, 2)
		assert.Equal(t, "USD-SOFR", out.Curves[0].Name)
		assert.Len(t, out.Curves[0].Nodes, 10)
		assert.Len(t, out.Curves[1].Nodes, 10)
		assert.Equal(t, "USD-LIBOR3M fra 3Mx6M", out.Curves[1].Nodes[1].Label)
		for _, c := range out.Curves {
			for i, n := range c.Nodes {
				assert.Less(t, n.DiscountFactor, 1.0, n.Label)
				if i > 0 {
					assert.Less(t, n.DiscountFactor, c.Nodes[i-1].DiscountFactor, n.Label)
				}
			}
		}
		if pv {
			assert.Equal(t, "present_value", out.Kind)
		} else {
			assert.Equal(t, "par_rate", out.Kind)
		}
	}
}

func TestRun_CalibrateErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"calibrate"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "--quotes is required")

	stdout.Reset()
	assert.Equal(t, 1, run([]string{"calibrate", "--quotes", "testdata/missing.yaml"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "error")

	assert.Equal(t, 2, run([]string{"calibrate", "--bogus"}, nil, &stdout, &stderr))
}

func TestRun_CalibrationFailureIsReported(t *testing.T) {
	t.Parallel()

	const oneIteration = "testdata/one_iteration.yaml"
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{"calibrate par", []string{"calibrate", "--quotes", usdQuotes, "--config", oneIteration}, ""},
		{"calibrate pv", []string{"calibrate", "--quotes", usdQuotes, "--config", oneIteration, "--pv"}, ""},
		{"delta", []string{"delta", "--quotes", usdQuotes, "--config", oneIteration},
			`{"curve":"USD-SOFR","tenor":"2Y","fixed_rate":0.0385,"notional":1,"direction":"PAY"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(tt.stdin), &stdout, &stderr)
			require.Equal(t, 1, code, stdout.String())

			var out struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
			assert.Contains(t, out.Error, "calibration of")
			assert.Contains(t, out.Error, "no root after 1 iterations")
		})
	}
}

func runDelta(t *testing.T, trade string) delta.Output {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run([]string{"delta", "--quotes", usdQuotes, "--config", cfgPath}, strings.NewReader(trade), &stdout, &stderr)
	var out delta.Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	if out.Error == "" {
		require.Equal(t, 0, code)
	}
	return out
}

func TestRun_Delta(t *testing.T) {
	t.Parallel()

	pay := runDelta(t, `{"curve":"USD-LIBOR3M","tenor":"6Y","fixed_rate":0.0391,"notional":1000000,"direction":"PAY"}`)
	require.Empty(t, pay.Error)
	require.Len(t, pay.Deltas, 20)
	rec := runDelta(t, `{"curve":"USD-LIBOR3M","tenor":"6Y","fixed_rate":0.0391,"notional":1000000,"direction":"rec"}`)
	require.Empty(t, rec.Error)

	assert.InDelta(t, -pay.PV, rec.PV, 1e-8)
	assert.InDelta(t, pay.ParRate, rec.ParRate, 1e-14)
	var libor float64
	for i := range pay.Deltas {
		assert.InDelta(t, -pay.Deltas[i].Delta, rec.Deltas[i].Delta, 1e-8, pay.Deltas[i].Label)
		if strings.HasPrefix(pay.Deltas[i].Label, "USD-LIBOR3M swap") {
			libor += pay.Deltas[i].Delta
		}
	}
	// a payer gains when swap rates rise, roughly annuity times notional per bp
	assert.Greater(t, libor, 400.0)
	assert.Less(t, libor, 700.0)

	ois := runDelta(t, `{"curve":"USD-SOFR","tenor":"2Y","fixed_rate":0.0385,"notional":1,"direction":"PAY"}`)
	require.Empty(t, ois.Error)
	assert.InDelta(t, 0.0385, ois.ParRate, 1e-10)
	assert.InDelta(t, 0, ois.PV, 1e-10)
	for _, d := range ois.Deltas {
		if d.Label == "USD-SOFR ois 2Y" {
			// the annuity, per bp
			assert.InDelta(t, 2e-4, d.Delta, 0.2e-4)
			continue
		}
		assert.InDelta(t, 0, d.Delta, 1e-10, d.Label)
	}
}

func TestRun_DeltaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		trade string
		want  string
	}{
		{"bad json", `{`, "failed to parse"},
		{"no notional", `{"curve":"USD-SOFR","tenor":"2Y","direction":"PAY"}`, "notional"},
		{"direction", `{"curve":"USD-SOFR","tenor":"2Y","notional":1,"direction":"BUY"}`, "direction"},
		{"tenor", `{"curve":"USD-SOFR","tenor":"2Q","notional":1,"direction":"PAY"}`, "tenor"},
		{"curve", `{"curve":"EUR-ESTR","tenor":"2Y","notional":1,"direction":"PAY"}`, "EUR-ESTR"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := runDelta(t, tt.trade)
			assert.Contains(t, out.Error, tt.want)
		})
	}
}
