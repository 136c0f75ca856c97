// Package sweep runs independent simulations across a range of one parameter.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
)

type Config struct {
	Base    epidemic.Params
	Param   string
	Values  []float64
	Workers int
	// NewSimulator builds a simulator per run. Nil means epidemic.New().
	NewSimulator func() *epidemic.Simulator
}

type Row struct {
	Value            float64 `json:"value"`
	R0               float64 `json:"r0"`
	PeakInfected     float64 `json:"peak_infected"`
	PeakTime         float64 `json:"peak_time"`
	FinalSusceptible float64 `json:"final_susceptible"`
	FinalRecovered   float64 `json:"final_recovered"`
	HerdImmunity     float64 `json:"herd_immunity"`
}

// Params returns the names Run accepts in Config.Param.
func Params() []string {
	base := epidemic.DefaultParams()
	return names(&base)
}

func names(c dynamo.Configurable) []string {
	params := c.GetParams()
	out := make([]string, 0, len(params))
	for name := range params {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// set assigns one named parameter. Unknown names are reported with the list
// of sweepable ones.
func set(c dynamo.Configurable, name string, v float64) error {
	if _, ok := c.GetParams()[name]; !ok {
		return fmt.Errorf("unknown sweep param: %s (available: %v)", name, names(c))
	}
	return c.SetParam(name, v)
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Run simulates every value concurrently and returns rows in input order.
// The first failing run cancels the rest.
func Run(ctx context.Context, cfg Config) ([]Row, error) {
	check := cfg.Base
	if err := set(&check, cfg.Param, 0); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	newSim := cfg.NewSimulator
	if newSim == nil {
		newSim = func() *epidemic.Simulator { return epidemic.New() }
	}

	rows := make([]Row, len(cfg.Values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range cfg.Values {
		i, v := i, v // per-iteration copies (go < 1.22 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p := cfg.Base
			if err := set(&p, cfg.Param, v); err != nil {
				return err
			}
			res, err := newSim().Run(p)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", cfg.Param, v, err)
			}

			rows[i] = Row{
				Value:            v,
				R0:               res.R0,
				PeakInfected:     res.Metrics["peak_infected"],
				PeakTime:         res.Metrics["peak_time"],
				FinalSusceptible: res.Metrics["final_susceptible"],
				FinalRecovered:   res.Metrics["final_recovered"],
				HerdImmunity:     epidemic.HerdImmunityThreshold(res.R0),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
