package epidemic

import (
	"fmt"
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

const (
	// gridSlack is the relative representation error in horizon/step that still
	// counts as an exact multiple, e.g. 0.3/0.1 = 2.9999999999999996.
	gridSlack = 1e-12

	MaxGridPoints = 10_000_000
)

// TimeGrid returns the points 0, step, 2*step, ... up to and including
// horizon: floor(horizon/step)+1 points in total. Points are computed as
// i*step so that rounding does not accumulate along the grid.
func TimeGrid(step, horizon float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("step %v: %w", step, dynamo.ErrInvalidStep)
	}
	if horizon < 0 || math.IsNaN(horizon) || math.IsInf(horizon, 0) {
		return nil, fmt.Errorf("horizon %v: %w", horizon, dynamo.ErrInvalidHorizon)
	}

	intervals := math.Floor(horizon / step * (1 + gridSlack))
	if intervals >= MaxGridPoints {
		return nil, fmt.Errorf("%.0f intervals exceeds %d: %w", intervals, MaxGridPoints, dynamo.ErrGridTooLarge)
	}

	n := int(intervals) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	return grid, nil
}
