package metrics

import "github.com/san-kum/episim/internal/dynamo"

// Feasibility is the fraction of samples whose components all lie in [0, 1].
// Out of range initial conditions are simulated anyway; this makes them visible.
type Feasibility struct {
	name       string
	violations int
	samples    int
}

func NewFeasibility() *Feasibility {
	return &Feasibility{
		name: "feasibility",
	}
}

func (f *Feasibility) Name() string {
	return f.name
}

func (f *Feasibility) Observe(x dynamo.State, t float64) {
	f.samples++
	for _, val := range x {
		if val < 0 || val > 1 {
			f.violations++
			break
		}
	}
}

func (f *Feasibility) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(f.violations)/float64(f.samples)
}

func (f *Feasibility) Reset() {
	f.violations = 0
	f.samples = 0
}
