package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

// Options controls how Solve advances between output points.
type Options struct {
	// Tolerance is the per-step relative error bound for adaptive integrators.
	Tolerance float64
	// InitialDt is the first trial step. Zero means the first grid spacing.
	InitialDt float64
	// MinDt aborts adaptive integration when a rejected step would fall below it.
	MinDt float64
	// MaxDt caps adaptive steps. Zero means no cap.
	MaxDt float64
	// FixedDt is the largest substep used by non-adaptive integrators.
	FixedDt float64
	// MaxSteps bounds the number of accepted plus rejected steps.
	MaxSteps int
	// StiffSwitch lets Solve hand an explicit adaptive integrator over to
	// Rosenbrock once the problem turns stiff.
	StiffSwitch bool
	// StiffAfter forces the switch after this many accepted explicit steps
	// even if stiffness was not detected. Zero disables the fallback.
	StiffAfter int
}

func DefaultOptions() Options {
	return Options{
		Tolerance:   1e-8,
		MinDt:       1e-12,
		FixedDt:     0.01,
		MaxSteps:    1_000_000,
		StiffSwitch: true,
		StiffAfter:  100_000,
	}
}

// Stats reports the work Solve performed.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
	Jacobians   int
	// Switched is set when Solve moved to the stiff integrator at SwitchTime.
	Switched   bool
	SwitchTime float64
}

type countingSystem struct {
	dynamo.System
	stats *Stats
}

func (c countingSystem) Derive(x dynamo.State, t float64) dynamo.State {
	c.stats.Evaluations++
	return c.System.Derive(x, t)
}

func (c countingSystem) Jacobian(x dynamo.State, t float64) ([][]float64, dynamo.State) {
	c.stats.Jacobians++
	if d, ok := c.System.(dynamo.Differentiable); ok {
		return d.Jacobian(x, t)
	}
	return numericJacobian(c, x, t)
}

// stiffness detection after Hairer and Wanner (DOPRI5): 15 accepted steps
// with h*|lambda| past the boundary, without 6 calm steps in between.
const (
	stiffBoundary = 3.25
	stiffRun      = 15
	calmRun       = 6
)

type stiffnessEstimator interface {
	StiffnessEstimate() float64
}

// Solve integrates sys from x0 over grid and returns one state per grid
// point. grid must be increasing; the first returned state is a copy of x0.
// Adaptive integrators choose their own steps but always land exactly on each
// grid point; other integrators take equal substeps no larger than FixedDt.
// With StiffSwitch an explicit adaptive integrator that reports stiffness is
// replaced by Rosenbrock for the rest of the run.
func Solve(sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, grid []float64, opts Options) ([]dynamo.State, Stats, error) {
	var stats Stats

	if dim := sys.StateDim(); dim > 0 && len(x0) != dim {
		return nil, stats, fmt.Errorf("state has %d components, system expects %d: %w", len(x0), dim, dynamo.ErrDimensionMismatch)
	}
	if len(grid) == 0 {
		return []dynamo.State{}, stats, nil
	}
	if err := validateOptions(opts, integ); err != nil {
		return nil, stats, err
	}

	counted := countingSystem{System: sys, stats: &stats}

	states := make([]dynamo.State, len(grid))
	states[0] = x0.Clone()

	var err error
	if adaptive, ok := integ.(dynamo.AdaptiveIntegrator); ok {
		err = solveAdaptive(counted, adaptive, states, grid, opts, &stats)
	} else {
		err = solveFixed(counted, integ, states, grid, opts, &stats)
	}
	if err != nil {
		return nil, stats, err
	}
	return states, stats, nil
}

func validateOptions(opts Options, integ dynamo.Integrator) error {
	if _, ok := integ.(dynamo.AdaptiveIntegrator); ok {
		if opts.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping, got %g", opts.Tolerance)
		}
	} else if opts.FixedDt <= 0 {
		return fmt.Errorf("fixed dt must be positive, got %g", opts.FixedDt)
	}
	if opts.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", opts.MaxSteps)
	}
	return nil
}

func solveAdaptive(sys dynamo.System, integ dynamo.AdaptiveIntegrator, states []dynamo.State, grid []float64, opts Options, stats *Stats) error {
	x := states[0].Clone()
	t := grid[0]

	h := opts.InitialDt
	if h <= 0 && len(grid) > 1 {
		h = grid[1] - grid[0]
	}

	detector, detect := integ.(stiffnessEstimator)
	detect = detect && opts.StiffSwitch
	stiff, calm := 0, 0

	for k := 1; k < len(grid); k++ {
		target := grid[k]

		for t < target {
			if stats.Steps+stats.Rejected >= opts.MaxSteps {
				return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrMaxSteps}
			}

			if h <= 0 {
				h = target - t
			}
			step := h
			last := false
			if remaining := target - t; step >= remaining {
				step, last = remaining, true
			}

			xNew, hNext, err := integ.StepAdaptive(sys, x, t, step, opts.Tolerance)
			if errors.Is(err, dynamo.ErrStepRejected) {
				stats.Rejected++
				if hNext < opts.MinDt {
					return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrStepTooSmall}
				}
				h = hNext
				continue
			}
			if err != nil {
				return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: err}
			}
			if !xNew.IsValid() {
				return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
			}

			x = xNew
			stats.Steps++
			if last {
				t = target
				// steps clipped to a grid point never shrink the next trial
				h = math.Max(h, hNext)
			} else {
				t += step
				h = hNext
			}
			if opts.MaxDt > 0 && h > opts.MaxDt {
				h = opts.MaxDt
			}

			if !detect {
				continue
			}
			if detector.StiffnessEstimate() > stiffBoundary {
				stiff, calm = stiff+1, 0
			} else if calm++; calm == calmRun {
				stiff = 0
			}
			if stiff >= stiffRun || (opts.StiffAfter > 0 && stats.Steps >= opts.StiffAfter) {
				integ = NewRosenbrock()
				detect = false
				stats.Switched, stats.SwitchTime = true, t
			}
		}

		states[k] = x.Clone()
	}

	return nil
}

func solveFixed(sys dynamo.System, integ dynamo.Integrator, states []dynamo.State, grid []float64, opts Options, stats *Stats) error {
	x := states[0].Clone()

	for k := 1; k < len(grid); k++ {
		t := grid[k-1]
		span := grid[k] - t

		n := int(math.Ceil(span/opts.FixedDt - 1e-9))
		if n < 1 {
			n = 1
		}
		h := span / float64(n)

		for i := 0; i < n; i++ {
			if stats.Steps >= opts.MaxSteps {
				return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrMaxSteps}
			}
			x = integ.Step(sys, x, t, h)
			stats.Steps++
			if !x.IsValid() {
				return &dynamo.SimulationError{Step: stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
			}
			t = grid[k-1] + float64(i+1)*h
		}

		states[k] = x.Clone()
	}

	return nil
}
