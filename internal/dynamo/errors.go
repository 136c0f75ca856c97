package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNonFinite indicates a NaN or infinite input parameter.
	ErrNonFinite = errors.New("dynamo: non-finite parameter")

	// ErrInvalidStep indicates a non-positive or non-finite grid spacing.
	ErrInvalidStep = errors.New("dynamo: grid step must be positive and finite")

	// ErrInvalidHorizon indicates a negative or non-finite simulated duration.
	ErrInvalidHorizon = errors.New("dynamo: horizon must be non-negative and finite")

	// ErrGridTooLarge indicates a time grid with more points than a run may sample.
	ErrGridTooLarge = errors.New("dynamo: time grid too large")

	// ErrStepRejected is returned by adaptive integrators when a trial step fails
	// the error test. It is consumed by the solver and never escapes Solve.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrMaxSteps indicates the solver exhausted its step budget.
	ErrMaxSteps = errors.New("dynamo: maximum step count exceeded")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
