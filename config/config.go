package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MCURVE_SOLVER_MAX_ITERATIONS.
const EnvPrefix = "MCURVE"

// Config holds solver, linear-algebra and logging parameters for calibration.
type Config struct {
	Solver   SolverConfig   `mapstructure:"solver"`
	Linalg   LinalgConfig   `mapstructure:"linalg"`
	Jacobian JacobianConfig `mapstructure:"jacobian"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SolverConfig controls the vector root finder.
type SolverConfig struct {
	// Method is "newton" or "broyden".
	Method string `mapstructure:"method"`

	// AbsoluteTolerance is the residual 2-norm below which calibration has converged.
	AbsoluteTolerance float64 `mapstructure:"absolute_tolerance"`

	MaxIterations int `mapstructure:"max_iterations"`

	// MaxLineSearch is the number of step halvings tried before a step is taken anyway.
	MaxLineSearch int `mapstructure:"max_line_search"`

	// InitialRate seeds every curve node when no starting point is given.
	InitialRate float64 `mapstructure:"initial_rate"`

	// FiniteDifferenceShift is the parameter bump for finite-difference Jacobians.
	FiniteDifferenceShift float64 `mapstructure:"finite_difference_shift"`
}

// LinalgConfig selects between LU and SVD solves.
type LinalgConfig struct {
	LUConditionLimit    float64 `mapstructure:"lu_condition_limit"`
	SingularValueCutoff float64 `mapstructure:"singular_value_cutoff"`
}

// JacobianConfig controls residual and Jacobian assembly.
type JacobianConfig struct {
	// Parallelism bounds the goroutines pricing instruments. 1 or less runs inline.
	Parallelism int `mapstructure:"parallelism"`

	// FiniteDifference replaces the analytic Jacobian with a bumped one.
	FiniteDifference bool `mapstructure:"finite_difference"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Mode is "development" or "production".
	Mode string `mapstructure:"mode"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Solver: SolverConfig{
		Method:                "newton",
		AbsoluteTolerance:     1e-12,
		MaxIterations:         100,
		MaxLineSearch:         20,
		InitialRate:           0.01,
		FiniteDifferenceShift: 1e-6,
	},
	Linalg: LinalgConfig{
		LUConditionLimit:    1e10,
		SingularValueCutoff: 1e-13,
	},
	Jacobian: JacobianConfig{
		Parallelism: 4,
	},
	Logging: LoggingConfig{
		Level: "info",
		Mode:  "production",
	},
}

// Load reads configuration from path, when given, and from MCURVE_* environment variables.
// Unset keys keep their DefaultConfig values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig

	v.SetDefault("solver.method", d.Solver.Method)
	v.SetDefault("solver.absolute_tolerance", d.Solver.AbsoluteTolerance)
	v.SetDefault("solver.max_iterations", d.Solver.MaxIterations)
	v.SetDefault("solver.max_line_search", d.Solver.MaxLineSearch)
	v.SetDefault("solver.initial_rate", d.Solver.InitialRate)
	v.SetDefault("solver.finite_difference_shift", d.Solver.FiniteDifferenceShift)

	v.SetDefault("linalg.lu_condition_limit", d.Linalg.LUConditionLimit)
	v.SetDefault("linalg.singular_value_cutoff", d.Linalg.SingularValueCutoff)

	v.SetDefault("jacobian.parallelism", d.Jacobian.Parallelism)
	v.SetDefault("jacobian.finite_difference", d.Jacobian.FiniteDifference)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.mode", d.Logging.Mode)
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Solver.Method) {
	case "newton", "broyden":
	default:
		return errors.Errorf("solver.method must be newton or broyden, got %q", c.Solver.Method)
	}
	if c.Solver.AbsoluteTolerance <= 0 {
		return errors.New("solver.absolute_tolerance must be positive")
	}
	if c.Solver.MaxIterations < 1 {
		return errors.New("solver.max_iterations must be at least 1")
	}
	if c.Solver.MaxLineSearch < 0 {
		return errors.New("solver.max_line_search must not be negative")
	}
	if c.Solver.FiniteDifferenceShift <= 0 {
		return errors.New("solver.finite_difference_shift must be positive")
	}
	if c.Linalg.LUConditionLimit <= 1 {
		return errors.New("linalg.lu_condition_limit must exceed 1")
	}
	if c.Linalg.SingularValueCutoff <= 0 || c.Linalg.SingularValueCutoff >= 1 {
		return errors.New("linalg.singular_value_cutoff must be in (0, 1)")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	validModes := map[string]bool{"development": true, "production": true}
	if !validModes[strings.ToLower(c.Logging.Mode)] {
		return errors.New("logging.mode must be development or production")
	}
	return nil
}
