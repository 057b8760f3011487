// Package session loads configuration and a quote set and calibrates its curves.
package session

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/meenmo/mcurve/calibration"
	"github.com/meenmo/mcurve/config"
	"github.com/meenmo/mcurve/definition"
	"github.com/meenmo/mcurve/linalg"
	"github.com/meenmo/mcurve/logger"
	"github.com/meenmo/mcurve/marketdata"
)

// Options are the flags shared by every command.
type Options struct {
	QuotesPath   string
	ConfigPath   string
	PresentValue bool
}

const (
	quotesFlag = "quotes"
	configFlag = "config"
	pvFlag     = "pv"
)

// Flags are registered on every command. Flags hold parsed values, so every command
// gets its own.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  quotesFlag,
			Usage: "YAML quote set path (required)",
		},
		&cli.StringFlag{
			Name:  configFlag,
			Usage: "YAML config path (optional; MCURVE_* variables override)",
		},
		&cli.BoolFlag{
			Name:  pvFlag,
			Usage: "Calibrate to zero present value instead of par rates",
		},
	}
}

func OptionsFrom(c *cli.Command) Options {
	return Options{
		QuotesPath:   c.String(quotesFlag),
		ConfigPath:   c.String(configFlag),
		PresentValue: c.Bool(pvFlag),
	}
}

// Session is a calibrated quote set.
type Session struct {
	Config *config.Config
	Log    *zap.Logger
	Quotes *marketdata.QuoteSet
	Inputs *definition.Inputs
	Result *calibration.Result
}

func Open(o Options) (*Session, error) {
	if o.QuotesPath == "" {
		return nil, errors.New("--quotes is required")
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	s := &Session{Config: cfg, Log: log}

	if s.Quotes, err = marketdata.LoadQuoteSet(o.QuotesPath); err != nil {
		return nil, err
	}
	if s.Inputs, err = definition.FromQuoteSet(s.Quotes, nil); err != nil {
		return nil, err
	}
	c, err := calibration.New(*cfg, log)
	if err != nil {
		return nil, err
	}

	var data *calibration.DataBundle
	if o.PresentValue {
		data, err = s.Inputs.PresentValueData(nil)
	} else {
		data, err = s.Inputs.ParRateData(nil)
	}
	if err != nil {
		return nil, err
	}
	if o.PresentValue {
		s.Result, err = c.CalibratePresentValue(data, nil)
	} else {
		s.Result, err = c.CalibrateParRate(data, nil)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Solver is the linear solver configured for the session.
func (s *Session) Solver() linalg.Solver {
	return linalg.Solver{
		LUConditionLimit:    s.Config.Linalg.LUConditionLimit,
		SingularValueCutoff: s.Config.Linalg.SingularValueCutoff,
	}
}

func (s *Session) Close() {
	_ = s.Log.Sync()
}
