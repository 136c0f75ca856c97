package metrics

import (
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

// Peak records the largest value of one compartment and when it occurred.
type Peak struct {
	name  string
	index int
	value float64
	time  float64
	seen  bool
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if !p.seen || x[p.index] > p.value {
		p.value, p.time, p.seen = x[p.index], t, true
	}
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return math.NaN()
	}
	return p.value
}

// Time returns the sample time of the peak.
func (p *Peak) Time() float64 { return p.time }

func (p *Peak) Reset() {
	p.value, p.time, p.seen = 0, 0, false
}

// PeakTime exposes the time of a Peak as its own metric.
type PeakTime struct {
	name string
	peak *Peak
}

// NewPeakTime reads from peak, which must be observed separately.
func NewPeakTime(name string, peak *Peak) *PeakTime {
	return &PeakTime{name: name, peak: peak}
}

func (p *PeakTime) Name() string                      { return p.name }
func (p *PeakTime) Observe(x dynamo.State, t float64) {}
func (p *PeakTime) Value() float64                    { return p.peak.Time() }
func (p *PeakTime) Reset()                            {}

// Final records the last observed value of one compartment.
type Final struct {
	name  string
	index int
	value float64
}

func NewFinal(name string, index int) *Final {
	return &Final{name: name, index: index, value: math.NaN()}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(x dynamo.State, t float64) {
	if f.index < len(x) {
		f.value = x[f.index]
	}
}

func (f *Final) Value() float64 { return f.value }

func (f *Final) Reset() { f.value = math.NaN() }
