package delta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/meenmo/mcurve/calculator"
	"github.com/meenmo/mcurve/cmd/mcurve/internal/session"
	"github.com/meenmo/mcurve/definition"
	"github.com/meenmo/mcurve/marketdata"
	"github.com/meenmo/mcurve/risk"
	"github.com/meenmo/mcurve/utils"
)

// TradeInput is a spot-starting swap on one curve of the quote set.
//
// Rates are decimals (0.04 means 4%).
type TradeInput struct {
	Curve    string  `json:"curve"`
	Tenor    string  `json:"tenor"` // "6Y"
	Rate     float64 `json:"fixed_rate"`
	Notional float64 `json:"notional"`

	// Direction is from the trader perspective:
	// - PAY (pay fixed, receive floating)
	// - REC (receive fixed, pay floating)
	Direction string `json:"direction"`
}

type Output struct {
	PV      float64      `json:"pv"`
	ParRate float64      `json:"par_rate"`
	Deltas  []QuoteDelta `json:"deltas,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// QuoteDelta is the PV change for a one basis point rise of one quote.
type QuoteDelta struct {
	Label string  `json:"label"`
	Quote float64 `json:"quote"`
	Delta float64 `json:"delta_bp"`
}

const basisPoint = 1e-4

const inputFlag = "input"

// Command reads a JSON swap and prints its PV and bucketed delta against the quotes.
func Command(stdin io.Reader, stdout io.Writer) *cli.Command {
	flags := append(session.Flags(), &cli.StringFlag{
		Name:  inputFlag,
		Usage: "JSON trade path (optional; if set, ignores stdin)",
	})
	return &cli.Command{
		Name:      "delta",
		Usage:     "Bucketed delta of a swap against the quotes of a quote set",
		UsageText: "mcurve delta --quotes quotes.yaml [--config config.yaml] [--pv] [--input trade.json] < trade.json",
		Flags:     flags,
		Action: func(_ context.Context, c *cli.Command) error {
			path := strings.TrimSpace(c.String(inputFlag))
			if path == "" {
				if f, ok := stdin.(*os.File); ok {
					if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
						_ = cli.ShowSubcommandHelp(c)
						return cli.Exit("", 2)
					}
				}
			}
			inputBytes, err := readInput(stdin, path)
			if err != nil {
				return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
			}
			var input TradeInput
			if err := json.Unmarshal(inputBytes, &input); err != nil {
				return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
			}

			s, err := session.Open(session.OptionsFrom(c))
			if err != nil {
				return writeError(stdout, err.Error())
			}
			defer s.Close()

			out, err := calculate(s, input)
			if err != nil {
				s.Log.Warn("delta failed", zap.String("curve", input.Curve), zap.Error(err))
				return writeError(stdout, err.Error())
			}
			outputBytes, _ := json.Marshal(out)
			fmt.Fprintln(stdout, string(outputBytes))
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	if stdin == nil {
		return nil, errors.New("no input")
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) error {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return cli.Exit("", 1)
}

func calculate(s *session.Session, input TradeInput) (*Output, error) {
	if input.Notional == 0 {
		return nil, errors.New("notional is required")
	}
	var payer bool
	switch strings.ToUpper(strings.TrimSpace(input.Direction)) {
	case "PAY":
		payer = true
	case "REC":
	default:
		return nil, errors.Errorf("direction must be PAY or REC, got %q", input.Direction)
	}
	tenor, err := utils.ParseTenor(input.Tenor)
	if err != nil {
		return nil, err
	}

	quoteType := marketdata.Swap
	if conv, ok := conventionOf(s.Quotes, input.Curve); ok && conv.Overnight {
		quoteType = marketdata.OIS
	}
	def, err := definition.QuotedDefinition(s.Quotes, input.Curve,
		marketdata.Quote{Type: quoteType, Tenor: tenor, Rate: input.Rate}, nil)
	if err != nil {
		return nil, err
	}
	swap, ok := def.(definition.SwapDefinition)
	if !ok {
		return nil, errors.Errorf("curve %q does not quote swaps", input.Curve)
	}
	swap.Notional = input.Notional
	swap.Payer = payer

	d, err := swap.ToDerivative(s.Quotes.ValuationDate, s.Quotes.FixingsFor(input.Curve))
	if err != nil {
		return nil, err
	}
	pv, err := calculator.PresentValue(d, s.Result.Curves)
	if err != nil {
		return nil, err
	}
	par, err := calculator.ParRate(d, s.Result.Curves)
	if err != nil {
		return nil, err
	}
	deltas, err := risk.InstrumentSensitivityCalculator{Solver: s.Solver()}.BucketedDelta(d, s.Result)
	if err != nil {
		return nil, err
	}

	out := &Output{PV: pv, ParRate: par}
	for i, v := range deltas {
		out.Deltas = append(out.Deltas, QuoteDelta{
			Label: s.Inputs.Labels[i],
			Quote: s.Inputs.Quotes[i],
			Delta: v * basisPoint,
		})
	}
	return out, nil
}

func conventionOf(qs *marketdata.QuoteSet, curve string) (definition.Convention, bool) {
	for _, c := range qs.Curves {
		if c.Name == curve {
			conv, err := definition.ConventionByName(c.Convention)
			return conv, err == nil
		}
	}
	return definition.Convention{}, false
}
