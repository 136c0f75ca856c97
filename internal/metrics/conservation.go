package metrics

import (
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

// ConservationDrift tracks the largest deviation of the total population mass
// from its value at the first observed sample.
type ConservationDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewConservationDrift() *ConservationDrift {
	return &ConservationDrift{
		name: "conservation_drift",
	}
}

func (c *ConservationDrift) Name() string { return c.name }

func (c *ConservationDrift) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if c.samples == 0 {
		c.initial = total
	}
	c.samples++
	c.maxDrift = math.Max(c.maxDrift, math.Abs(total-c.initial))
}

func (c *ConservationDrift) Value() float64 {
	return c.maxDrift
}

func (c *ConservationDrift) Reset() {
	c.initial = 0
	c.maxDrift = 0
	c.samples = 0
}
