package epidemic

import (
	"fmt"
	"math"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/metrics"
)

const (
	DefaultI0      = 0.00001
	DefaultBeta    = 2.0
	DefaultGamma   = 1.0
	DefaultStep    = 1.0
	DefaultHorizon = 70.0
)

// Params are the inputs of one run. I0, Beta and Gamma are deliberately not
// range checked: out of range values give non-physical but well defined curves.
type Params struct {
	I0      float64 `json:"i0" yaml:"i0"`
	Beta    float64 `json:"beta" yaml:"beta"`
	Gamma   float64 `json:"gamma" yaml:"gamma"`
	Step    float64 `json:"step" yaml:"step"`
	Horizon float64 `json:"horizon" yaml:"horizon"`
}

func DefaultParams() Params {
	return Params{
		I0:      DefaultI0,
		Beta:    DefaultBeta,
		Gamma:   DefaultGamma,
		Step:    DefaultStep,
		Horizon: DefaultHorizon,
	}
}

var _ dynamo.Configurable = (*Params)(nil)

// GetParams returns the run inputs by their flag names.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"i0":      p.I0,
		"beta":    p.Beta,
		"gamma":   p.Gamma,
		"step":    p.Step,
		"horizon": p.Horizon,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	switch name {
	case "i0":
		p.I0 = value
	case "beta":
		p.Beta = value
	case "gamma":
		p.Gamma = value
	case "step":
		p.Step = value
	case "horizon":
		p.Horizon = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func (p Params) checkFinite() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"i0", p.I0},
		{"beta", p.Beta},
		{"gamma", p.Gamma},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s=%v: %w", f.name, f.value, dynamo.ErrNonFinite)
		}
	}
	return nil
}

type Option func(*Simulator)

func WithIntegrator(integ dynamo.Integrator) Option {
	return func(s *Simulator) { s.integrator = integ }
}

func WithSolverOptions(opts integrators.Options) Option {
	return func(s *Simulator) { s.opts = opts }
}

// WithMetrics replaces the default metric set.
func WithMetrics(ms ...dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = ms }
}

// Simulator runs SIR simulations. It is not safe for concurrent use since
// integrators and metrics carry per-run state; build one per goroutine.
type Simulator struct {
	integrator dynamo.Integrator
	opts       integrators.Options
	metrics    []dynamo.Metric
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		integrator: integrators.NewRK45(),
		opts:       integrators.DefaultOptions(),
		metrics:    DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultMetrics returns fresh instances of the summary metrics attached to
// every run unless WithMetrics overrides them.
func DefaultMetrics() []dynamo.Metric {
	peak := metrics.NewPeak("peak_infected", Infected)
	return []dynamo.Metric{
		peak,
		metrics.NewPeakTime("peak_time", peak),
		metrics.NewFinal("final_susceptible", Susceptible),
		metrics.NewFinal("final_recovered", Recovered),
		metrics.NewConservationDrift(),
		metrics.NewFeasibility(),
	}
}

// Run integrates the SIR equations from (1-I0, I0, 0) over the grid
// 0..Horizon at spacing Step and returns one state per grid point.
func (s *Simulator) Run(p Params) (*Result, error) {
	if err := p.checkFinite(); err != nil {
		return nil, err
	}

	grid, err := TimeGrid(p.Step, p.Horizon)
	if err != nil {
		return nil, err
	}

	sys := NewSIR(p.Beta, p.Gamma)
	states, stats, err := integrators.Solve(sys, s.integrator, InitialState(p.I0), grid, s.opts)
	if err != nil {
		return nil, fmt.Errorf("integrate sir (beta=%g gamma=%g i0=%g): %w", p.Beta, p.Gamma, p.I0, err)
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	for k, x := range states {
		for _, m := range s.metrics {
			m.Observe(x, grid[k])
		}
	}

	result := &Result{
		Params:     p,
		Times:      grid,
		Trajectory: states,
		R0:         ReproductionRatio(p.Beta, p.Gamma),
		Stats:      stats,
		Metrics:    make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// Simulate runs p with the adaptive Dormand-Prince solver and default options.
func Simulate(p Params) (*Result, error) {
	return New().Run(p)
}
