package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/integrators"
)

// Control panel defaults. The horizon differs from epidemic.DefaultHorizon:
// the panel opens on a 50 day window.
const (
	DefaultI0         = epidemic.DefaultI0
	DefaultBeta       = epidemic.DefaultBeta
	DefaultGamma      = epidemic.DefaultGamma
	DefaultStep       = epidemic.DefaultStep
	DefaultHorizon    = 50.0
	DefaultIntegrator = "rk45"
)

type Config struct {
	I0         float64      `yaml:"i0"`
	Beta       float64      `yaml:"beta"`
	Gamma      float64      `yaml:"gamma"`
	Step       float64      `yaml:"step"`
	Horizon    float64      `yaml:"horizon"`
	Integrator string       `yaml:"integrator"`
	Solver     SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	MaxDt     float64 `yaml:"max_dt"`
	FixedDt   float64 `yaml:"fixed_dt"`
	MaxSteps  int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	opts := integrators.DefaultOptions()
	return &Config{
		I0:         DefaultI0,
		Beta:       DefaultBeta,
		Gamma:      DefaultGamma,
		Step:       DefaultStep,
		Horizon:    DefaultHorizon,
		Integrator: DefaultIntegrator,
		Solver: SolverConfig{
			Tolerance: opts.Tolerance,
			MaxDt:     opts.MaxDt,
			FixedDt:   opts.FixedDt,
			MaxSteps:  opts.MaxSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks only what would make a run impossible. Epidemiologically
// odd values such as negative rates pass.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{"i0": c.I0, "beta": c.Beta, "gamma": c.Gamma, "step": c.Step, "horizon": c.Horizon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite, got %v", name, v)
		}
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", c.Step)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must not be negative, got %v", c.Horizon)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance must be positive, got %v", c.Solver.Tolerance)
	}
	return nil
}

func (c *Config) Params() epidemic.Params {
	return epidemic.Params{
		I0:      c.I0,
		Beta:    c.Beta,
		Gamma:   c.Gamma,
		Step:    c.Step,
		Horizon: c.Horizon,
	}
}

func (c *Config) SolverOptions() integrators.Options {
	opts := integrators.DefaultOptions()
	if c.Solver.Tolerance > 0 {
		opts.Tolerance = c.Solver.Tolerance
	}
	if c.Solver.MaxDt > 0 {
		opts.MaxDt = c.Solver.MaxDt
	}
	if c.Solver.FixedDt > 0 {
		opts.FixedDt = c.Solver.FixedDt
	}
	if c.Solver.MaxSteps > 0 {
		opts.MaxSteps = c.Solver.MaxSteps
	}
	return opts
}

// Simulator builds an epidemic.Simulator with the configured integrator and
// solver options.
func (c *Config) Simulator() (*epidemic.Simulator, error) {
	integ, err := integrators.Get(c.Integrator)
	if err != nil {
		return nil, err
	}
	return epidemic.New(
		epidemic.WithIntegrator(integ),
		epidemic.WithSolverOptions(c.SolverOptions()),
	), nil
}
