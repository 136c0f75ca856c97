package chart

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/epidemic"
)

var svgColors = []string{"#1f77b4", "#d62728", "#2ca02c"}

const (
	marginLeft   = 70.0
	marginRight  = 140.0
	marginTop    = 50.0
	marginBottom = 60.0
)

// SVG renders the result as a standalone line chart.
func SVG(res *epidemic.Result, width, height float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom

	if res == nil || res.Len() == 0 || plotW <= 0 || plotH <= 0 {
		sb.WriteString("</svg>\n")
		return sb.String()
	}

	data := make([][]float64, len(epidemic.CompartmentNames))
	for idx := range data {
		data[idx] = res.Column(idx)
	}
	lo, hi := bounds(data)
	tMax := res.Times[len(res.Times)-1]

	px := func(t float64) float64 {
		if tMax == 0 {
			return marginLeft
		}
		return marginLeft + t/tMax*plotW
	}
	py := func(v float64) float64 {
		return marginTop + (hi-v)/(hi-lo)*plotH
	}

	// axes
	sb.WriteString(fmt.Sprintf(`<g stroke="#333333" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, marginLeft, marginTop, marginLeft, marginTop+plotH, marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH))

	sb.WriteString(`<g font-family="sans-serif" font-size="12" fill="#333333">` + "\n")
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end">%.2f</text>`+"\n", marginLeft-8, py(v)+4, v))
		tv := tMax * float64(i) / 4
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%g</text>`+"\n", px(tv), marginTop+plotH+18, tv))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n", marginLeft+plotW/2, height-15, XAxisTitle))
	sb.WriteString(fmt.Sprintf(`<text x="15" y="%.1f" text-anchor="middle" transform="rotate(-90 15 %.1f)">%s</text>`+"\n", marginTop+plotH/2, marginTop+plotH/2, YAxisTitle))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="28" text-anchor="middle" font-size="16">%s</text>`+"\n", width/2, Title(res.R0)))
	sb.WriteString("</g>\n")

	for idx, series := range data {
		color := svgColors[idx%len(svgColors)]
		pts := make([]string, len(series))
		for k, v := range series {
			pts[k] = fmt.Sprintf("%.2f,%.2f", px(res.Times[k]), py(v))
		}
		sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n", color, strings.Join(pts, " ")))

		ly := marginTop + 20*float64(idx)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n", width-marginRight+15, ly, width-marginRight+35, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="12">%s</text>`+"\n", width-marginRight+40, ly+4, epidemic.CompartmentNames[idx]))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
