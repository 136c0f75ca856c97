// Package chart renders simulation results for terminals and SVG viewers.
package chart

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	XAxisTitle = "Time (t)"
	YAxisTitle = "Population Proportion"
)

// Title is the chart heading. R0 is rounded here and nowhere else.
func Title(r0 float64) string {
	return fmt.Sprintf("Reproduction Number (R0): %.2f", r0)
}

type Options struct {
	Width  int
	Height int
	Color  bool
}

func DefaultOptions() Options {
	return Options{Width: 70, Height: 15, Color: true}
}

var seriesColors = []asciigraph.AnsiColor{asciigraph.Blue, asciigraph.Red, asciigraph.Green}

// Plot draws the three compartments on one ASCII chart captioned with Title.
func Plot(res *epidemic.Result, opts Options) string {
	if res == nil || res.Len() == 0 {
		return ""
	}

	data := make([][]float64, len(epidemic.CompartmentNames))
	for idx := range data {
		data[idx] = res.Column(idx)
		if len(data[idx]) == 1 {
			// asciigraph needs two points to draw a line
			data[idx] = append(data[idx], data[idx][0])
		}
	}

	lo, hi := bounds(data)
	plotOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.LowerBound(lo),
		asciigraph.UpperBound(hi),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("%s  |  %s 0..%g", Title(res.R0), XAxisTitle, res.Times[len(res.Times)-1])),
		asciigraph.SeriesLegends(epidemic.CompartmentNames[:]...),
	}
	if opts.Color {
		plotOpts = append(plotOpts, asciigraph.SeriesColors(seriesColors...))
	}

	return asciigraph.PlotMany(data, plotOpts...)
}

// bounds returns [0, 1] widened to cover any out of range values.
func bounds(data [][]float64) (float64, float64) {
	lo, hi := 0.0, 1.0
	for _, series := range data {
		for _, v := range series {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}
