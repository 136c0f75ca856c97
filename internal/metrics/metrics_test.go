package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

func observeAll(m dynamo.Metric, states []dynamo.State) {
	for i, x := range states {
		m.Observe(x, float64(i))
	}
}

var curve = []dynamo.State{
	{0.9, 0.1, 0.0},
	{0.7, 0.25, 0.05},
	{0.5, 0.3, 0.2},
	{0.4, 0.2, 0.4},
	{0.35, 0.1, 0.55},
}

func TestPeak(t *testing.T) {
	p := NewPeak("peak_infected", 1)
	if !math.IsNaN(p.Value()) {
		t.Error("expected NaN before any observation")
	}

	observeAll(p, curve)

	if p.Value() != 0.3 {
		t.Errorf("expected peak 0.3, got %f", p.Value())
	}
	if p.Time() != 2 {
		t.Errorf("expected peak at t=2, got %f", p.Time())
	}

	pt := NewPeakTime("peak_time", p)
	if pt.Value() != 2 {
		t.Errorf("expected peak_time 2, got %f", pt.Value())
	}

	p.Reset()
	if !math.IsNaN(p.Value()) {
		t.Error("expected NaN after reset")
	}
}

func TestPeakNegativeValues(t *testing.T) {
	p := NewPeak("peak", 0)
	observeAll(p, []dynamo.State{{-3}, {-1}, {-2}})
	if p.Value() != -1 {
		t.Errorf("expected peak -1, got %f", p.Value())
	}
}

func TestFinal(t *testing.T) {
	f := NewFinal("final_recovered", 2)
	observeAll(f, curve)
	if f.Value() != 0.55 {
		t.Errorf("expected final 0.55, got %f", f.Value())
	}
	f.Reset()
	if !math.IsNaN(f.Value()) {
		t.Error("expected NaN after reset")
	}
}

func TestConservationDrift(t *testing.T) {
	c := NewConservationDrift()
	observeAll(c, curve)
	if c.Value() > 1e-12 {
		t.Errorf("expected no drift for a conserved curve, got %e", c.Value())
	}

	c.Observe(dynamo.State{0.5, 0.5, 0.1}, 5)
	if math.Abs(c.Value()-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %e", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestFeasibility(t *testing.T) {
	f := NewFeasibility()
	if f.Value() != 1.0 {
		t.Error("expected feasibility 1 with no samples")
	}

	f.Observe(dynamo.State{0.5, 0.5, 0}, 0)
	f.Observe(dynamo.State{-0.5, 1.5, 0}, 1)
	if f.Value() != 0.5 {
		t.Errorf("expected feasibility 0.5, got %f", f.Value())
	}
}
