package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
)

type Document struct {
	Params  epidemic.Params    `json:"params"`
	R0      float64            `json:"r0"`
	Steps   int                `json:"steps"`
	Metrics map[string]float64 `json:"metrics"`
	Series  []epidemic.Series  `json:"series"`
}

func NewDocument(res *epidemic.Result) Document {
	metrics := make(map[string]float64, len(res.Metrics))
	for k, v := range res.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		metrics[k] = v
	}
	return Document{
		Params:  res.Params,
		R0:      res.R0,
		Steps:   res.Stats.Steps,
		Metrics: metrics,
		Series:  res.Series(),
	}
}

func WriteJSON(w io.Writer, res *epidemic.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(res))
}

// ReadJSON rebuilds a result from a document written by WriteJSON. Solver
// statistics other than the step count are not preserved.
func ReadJSON(r io.Reader) (*epidemic.Result, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if len(doc.Series) != len(epidemic.CompartmentNames) {
		return nil, fmt.Errorf("expected %d series, got %d", len(epidemic.CompartmentNames), len(doc.Series))
	}

	n := len(doc.Series[0].Points)
	res := &epidemic.Result{
		Params:     doc.Params,
		Times:      make([]float64, n),
		Trajectory: make([]dynamo.State, n),
		R0:         doc.R0,
		Metrics:    doc.Metrics,
	}
	res.Stats.Steps = doc.Steps

	for k := 0; k < n; k++ {
		res.Times[k] = doc.Series[0].Points[k].T
		res.Trajectory[k] = make(dynamo.State, len(doc.Series))
	}
	for idx, s := range doc.Series {
		if len(s.Points) != n {
			return nil, fmt.Errorf("series %s has %d points, expected %d", s.Name, len(s.Points), n)
		}
		for k, pt := range s.Points {
			res.Trajectory[k][idx] = pt.V
		}
	}
	return res, nil
}

// WriteCSV writes one row per grid point: time followed by the compartments.
func WriteCSV(w io.Writer, res *epidemic.Result) error {
	cw := csv.NewWriter(w)

	header := []string{"time"}
	for _, name := range epidemic.CompartmentNames {
		header = append(header, strings.ToLower(name))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for k, x := range res.Trajectory {
		row := []string{strconv.FormatFloat(res.Times[k], 'f', -1, 64)}
		for _, val := range x {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
