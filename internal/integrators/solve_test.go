package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

type decay struct{}

func (d *decay) Derive(x dynamo.State, t float64) dynamo.State { return dynamo.State{-x[0]} }
func (d *decay) StateDim() int                                  { return 1 }

type blowup struct{}

func (b *blowup) Derive(x dynamo.State, t float64) dynamo.State { return dynamo.State{x[0] * x[0]} }
func (b *blowup) StateDim() int                                  { return 1 }

func uniformGrid(step float64, n int) []float64 {
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	return grid
}

func TestSolveAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"rk45", NewRK45(), 1e-6},
		{"rk4", NewRK4(), 1e-7},
		{"euler", NewEuler(), 1e-2},
	}

	grid := uniformGrid(0.5, 11)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, _, err := Solve(&decay{}, tt.integ, dynamo.State{1.0}, grid, DefaultOptions())
			if err != nil {
				t.Fatalf("solve failed: %v", err)
			}
			if len(states) != len(grid) {
				t.Fatalf("expected %d states, got %d", len(grid), len(states))
			}
			for i, ti := range grid {
				if diff := math.Abs(states[i][0] - math.Exp(-ti)); diff > tt.tol {
					t.Errorf("t=%.1f: error %e exceeds %e", ti, diff, tt.tol)
				}
			}
		})
	}
}

func TestSolveInitialStateCopied(t *testing.T) {
	x0 := dynamo.State{1.0}
	states, _, err := Solve(&decay{}, NewRK45(), x0, uniformGrid(1, 3), DefaultOptions())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if states[0][0] != 1.0 {
		t.Errorf("first state = %v, want exact initial state", states[0])
	}
	states[0][0] = 42
	if x0[0] != 1.0 {
		t.Error("first state aliases the caller's initial state")
	}
}

func TestSolveStats(t *testing.T) {
	_, stats, err := Solve(&decay{}, NewRK45(), dynamo.State{1.0}, uniformGrid(1, 11), DefaultOptions())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if stats.Steps < 10 {
		t.Errorf("expected at least one step per interval, got %d", stats.Steps)
	}
	if want := 7 * (stats.Steps + stats.Rejected); stats.Evaluations != want {
		t.Errorf("expected %d evaluations, got %d", want, stats.Evaluations)
	}
}

func TestSolveEmptyAndSingleGrid(t *testing.T) {
	states, _, err := Solve(&decay{}, NewRK45(), dynamo.State{1.0}, nil, DefaultOptions())
	if err != nil || len(states) != 0 {
		t.Errorf("empty grid: got %d states, err %v", len(states), err)
	}

	states, stats, err := Solve(&decay{}, NewRK45(), dynamo.State{1.0}, []float64{0}, DefaultOptions())
	if err != nil || len(states) != 1 || stats.Steps != 0 {
		t.Errorf("single point grid: got %d states, %d steps, err %v", len(states), stats.Steps, err)
	}
}

func TestSolveErrors(t *testing.T) {
	t.Run("dimension mismatch", func(t *testing.T) {
		_, _, err := Solve(&decay{}, NewRK45(), dynamo.State{1, 2}, uniformGrid(1, 3), DefaultOptions())
		if !errors.Is(err, dynamo.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("max steps", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxSteps = 3
		_, _, err := Solve(&decay{}, NewRK4(), dynamo.State{1.0}, uniformGrid(1, 5), opts)
		if !errors.Is(err, dynamo.ErrMaxSteps) {
			t.Fatalf("expected ErrMaxSteps, got %v", err)
		}
		var simErr *dynamo.SimulationError
		if !errors.As(err, &simErr) {
			t.Fatalf("expected *SimulationError, got %T", err)
		}
		if simErr.Step != 3 {
			t.Errorf("expected failure at step 3, got %d", simErr.Step)
		}
	})

	t.Run("bad tolerance", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Tolerance = 0
		if _, _, err := Solve(&decay{}, NewRK45(), dynamo.State{1.0}, uniformGrid(1, 3), opts); err == nil {
			t.Error("expected error for zero tolerance")
		}
	})

	t.Run("finite time blowup", func(t *testing.T) {
		if _, _, err := Solve(&blowup{}, NewRK45(), dynamo.State{1.0}, uniformGrid(0.5, 5), DefaultOptions()); err == nil {
			t.Error("expected error integrating through a singularity")
		}
	})
}

func TestSolveRespectsMaxDt(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDt = 0.1
	_, stats, err := Solve(&decay{}, NewRK45(), dynamo.State{1.0}, uniformGrid(1, 3), opts)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if stats.Steps < 15 {
		t.Errorf("expected at least 15 steps with max dt 0.1 over t=2, got %d", stats.Steps)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		integ, err := Get(name)
		if err != nil {
			t.Errorf("Get(%q) failed: %v", name, err)
		}
		if integ == nil {
			t.Errorf("Get(%q) returned nil", name)
		}
	}

	if _, err := Get("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
