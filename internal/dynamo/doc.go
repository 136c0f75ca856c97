// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: integrator with embedded error control
//   - [Differentiable]: system with an analytic Jacobian for implicit methods
//   - [Metric]: scalar observer folded over sampled states
//
// # Example
//
//	sys := epidemic.NewSIR(2.0, 1.0)
//	grid, _ := epidemic.TimeGrid(1.0, 50)
//	states, stats, err := integrators.Solve(sys, integrators.NewRK45(), x0, grid, integrators.DefaultOptions())
//
// # Thread Safety
//
// States are plain slices. Integrators with scratch buffers (RK4) or per-step
// estimates (RK45) must not be shared between goroutines; construct one per run.
package dynamo
