package calibrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/meenmo/mcurve/cmd/mcurve/internal/session"
	"github.com/meenmo/mcurve/utils"
)

// Output lists the fitted nodes of every curve in parameter order.
type Output struct {
	ValuationDate string        `json:"valuation_date,omitempty"`
	Kind          string        `json:"kind,omitempty"`
	Iterations    int           `json:"iterations"`
	ResidualNorm  float64       `json:"residual_norm"`
	Curves        []CurveOutput `json:"curves,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type CurveOutput struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

// Node is one curve node, labelled by the instrument maturing there.
type Node struct {
	Label          string  `json:"label"`
	Time           float64 `json:"time"`
	ZeroRate       float64 `json:"zero_rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

// Command fits the curves of a quote set and prints their nodes as JSON.
func Command(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "calibrate",
		Usage:     "Fit the curves of a quote set and print their nodes",
		UsageText: "mcurve calibrate --quotes quotes.yaml [--config config.yaml] [--pv]",
		Flags:     session.Flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			s, err := session.Open(session.OptionsFrom(c))
			if err != nil {
				return writeError(stdout, err.Error())
			}
			defer s.Close()

			out, err := nodes(s)
			if err != nil {
				return writeError(stdout, err.Error())
			}
			outputBytes, _ := json.Marshal(out)
			fmt.Fprintln(stdout, string(outputBytes))
			return nil
		},
	}
}

func writeError(stdout io.Writer, msg string) error {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return cli.Exit("", 1)
}

func nodes(s *session.Session) (*Output, error) {
	res := s.Result
	out := &Output{
		ValuationDate: s.Quotes.ValuationDate.Format(utils.DateLayout),
		Kind:          res.Kind.String(),
		Iterations:    res.Iterations,
		ResidualNorm:  res.ResidualNorm,
	}
	for _, name := range res.Data.CurveNames() {
		times, err := res.Data.NodeTimes(name)
		if err != nil {
			return nil, err
		}
		start, err := res.Data.StartPosition(name)
		if err != nil {
			return nil, err
		}
		curve, err := res.Fitted.Curve(name)
		if err != nil {
			return nil, err
		}
		c := CurveOutput{Name: name}
		for k, t := range times {
			c.Nodes = append(c.Nodes, Node{
				Label:          s.Inputs.Labels[start+k],
				Time:           t,
				ZeroRate:       res.Parameters[start+k],
				DiscountFactor: curve.DiscountFactor(t),
			})
		}
		out.Curves = append(out.Curves, c)
	}
	return out, nil
}
