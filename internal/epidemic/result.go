package epidemic

import (
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/integrators"
)

// Result pairs Trajectory[k] with Times[k]. R0 is not rounded.
type Result struct {
	Params     Params
	Times      []float64
	Trajectory []dynamo.State
	R0         float64
	Stats      integrators.Stats
	Metrics    map[string]float64
}

type Point struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

func (r *Result) Len() int { return len(r.Times) }

// Column returns one compartment over time.
func (r *Result) Column(idx int) []float64 {
	col := make([]float64, len(r.Trajectory))
	for k, x := range r.Trajectory {
		col[k] = x[idx]
	}
	return col
}

func (r *Result) Susceptible() []float64 { return r.Column(Susceptible) }
func (r *Result) Infected() []float64    { return r.Column(Infected) }
func (r *Result) Recovered() []float64   { return r.Column(Recovered) }

// Series returns the Susceptible, Infected and Recovered curves as named
// (time, value) sequences on the shared time axis.
func (r *Result) Series() []Series {
	out := make([]Series, len(CompartmentNames))
	for idx, name := range CompartmentNames {
		pts := make([]Point, len(r.Trajectory))
		for k, x := range r.Trajectory {
			pts[k] = Point{T: r.Times[k], V: x[idx]}
		}
		out[idx] = Series{Name: name, Points: pts}
	}
	return out
}
