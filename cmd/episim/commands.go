package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/chart"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/export"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/sweep"
)

var formats = []string{"table", "plot", "csv", "json", "svg"}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// withOutput calls fn with stdout, or with outFile when one was given.
func withOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	if outFile == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote", "path", outFile)
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var write func(io.Writer, *epidemic.Result) error
	switch format {
	case "table":
		write = writeSummary
	case "plot":
		write = func(w io.Writer, res *epidemic.Result) error {
			_, err := fmt.Fprintln(w, chart.Plot(res, chart.DefaultOptions()))
			return err
		}
	case "csv":
		write = export.WriteCSV
	case "json":
		write = export.WriteJSON
	case "svg":
		write = func(w io.Writer, res *epidemic.Result) error {
			_, err := io.WriteString(w, chart.SVG(res, 800, 500))
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (available: %v)", format, formats)
	}

	sim, err := cfg.Simulator()
	if err != nil {
		return err
	}

	logger.Debug("running", "i0", cfg.I0, "beta", cfg.Beta, "gamma", cfg.Gamma, "step", cfg.Step, "time", cfg.Horizon, "integrator", cfg.Integrator)
	start := time.Now()
	res, err := sim.Run(cfg.Params())
	if err != nil {
		return err
	}
	logger.Debug("solver", "elapsed", time.Since(start), "steps", res.Stats.Steps, "rejected", res.Stats.Rejected, "evaluations", res.Stats.Evaluations, "switched", res.Stats.Switched)

	return withOutput(cmd, func(w io.Writer) error { return write(w, res) })
}

func writeSummary(out io.Writer, res *epidemic.Result) error {
	fmt.Fprintln(out, chart.Title(res.R0))
	fmt.Fprintln(out)

	w := newTable(out)
	p := res.Params
	fmt.Fprintf(w, "i0\t%g\n", p.I0)
	fmt.Fprintf(w, "beta\t%g\n", p.Beta)
	fmt.Fprintf(w, "gamma\t%g\n", p.Gamma)
	fmt.Fprintf(w, "grid\t0..%g step %g (%d points)\n", p.Horizon, p.Step, res.Len())
	fmt.Fprintf(w, "steps\t%d (%d rejected, %d evaluations)\n", res.Stats.Steps, res.Stats.Rejected, res.Stats.Evaluations)
	if res.Stats.Switched {
		fmt.Fprintf(w, "stiff switch\tt=%.4g (%d jacobians)\n", res.Stats.SwitchTime, res.Stats.Jacobians)
	}
	fmt.Fprintln(w, "\t")

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6f\n", name, res.Metrics[name])
	}
	fmt.Fprintf(w, "herd_immunity\t%.6f\n", epidemic.HerdImmunityThreshold(res.R0))
	fmt.Fprintf(w, "final_size_estimate\t%.6f\n", epidemic.FinalSize(res.R0, 1-p.I0))
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "comparing integrators (beta=%g, gamma=%g, time=%g)\n\n", cfg.Beta, cfg.Gamma, cfg.Horizon)
	w := newTable(out)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tEVALS\tPEAK_I\tMAX_DIFF\tTIME_MS")

	var ref *epidemic.Result
	for _, name := range names {
		c := *cfg
		c.Integrator = name
		sim, err := c.Simulator()
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		start := time.Now()
		res, err := sim.Run(c.Params())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		if ref == nil {
			ref = res
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.6f\t%.2e\t%.2f\n",
			name, res.Stats.Steps, res.Stats.Rejected, res.Stats.Evaluations,
			res.Metrics["peak_infected"], maxDiff(ref, res), float64(elapsed.Microseconds())/1000)
	}

	return w.Flush()
}

func maxDiff(a, b *epidemic.Result) float64 {
	d := 0.0
	for k := range a.Trajectory {
		if k >= len(b.Trajectory) {
			break
		}
		d = math.Max(d, a.Trajectory[k].Sub(b.Trajectory[k]).Norm())
	}
	return d
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format: %s (available: [table json])", format)
	}

	values := sweep.Linspace(sweepFrom, sweepTo, sweepN)
	logger.Info("sweeping", "param", sweepParam, "from", sweepFrom, "to", sweepTo, "runs", len(values))

	start := time.Now()
	rows, err := sweep.Run(cmd.Context(), sweep.Config{
		Base:    cfg.Params(),
		Param:   sweepParam,
		Values:  values,
		Workers: workers,
		NewSimulator: func() *epidemic.Simulator {
			// cfg passed Validate, so the integrator name resolves
			sim, _ := cfg.Simulator()
			return sim
		},
	})
	if err != nil {
		return err
	}
	logger.Debug("sweep done", "elapsed", time.Since(start))

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := newTable(out)
	fmt.Fprintf(w, "%s\tR0\tPEAK_I\tPEAK_T\tFINAL_S\tFINAL_R\tHIT\n", sweepParam)
	for _, r := range rows {
		fmt.Fprintf(w, "%g\t%.3f\t%.6f\t%g\t%.6f\t%.6f\t%.4f\n",
			r.Value, r.R0, r.PeakInfected, r.PeakTime, r.FinalSusceptible, r.FinalRecovered, r.HerdImmunity)
	}
	return w.Flush()
}

func benchIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	horizons := []float64{50, 200, 1000}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking SIR (beta=%g, gamma=%g)\n\n", cfg.Beta, cfg.Gamma)
	w := newTable(out)
	fmt.Fprintln(w, "INTEGRATOR\tTIME\tSTEPS\tEVALS\tELAPSED\tEVALS/SEC")

	for _, name := range integrators.Names() {
		for _, h := range horizons {
			c := *cfg
			c.Integrator = name
			c.Horizon = h
			sim, err := c.Simulator()
			if err != nil {
				return err
			}

			start := time.Now()
			res, err := sim.Run(c.Params())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%s\t%g\t%d\t%d\t%v\t%.0f\n",
				name, h, res.Stats.Steps, res.Stats.Evaluations, elapsed, float64(res.Stats.Evaluations)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func plotExport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := export.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), chart.Plot(res, chart.DefaultOptions()))
	return err
}
