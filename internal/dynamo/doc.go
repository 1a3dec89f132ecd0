// Package dynamo provides core simulation primitives for scalar decay systems.
//
// The package defines the fundamental interfaces and types for explicit
// time-stepping of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [Trajectory]: scalar state sequence indexed by step
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	dyn := models.NewLeaky(2, 10)
//	sim := dynamo.New(dyn, integrators.NewEuler())
//	result, _ := sim.Run(ctx, dynamo.State{1}, cfg)
//	traj := result.Component(0)
//
// # Thread Safety
//
// Simulator instances hold no per-run state and may be reused, but a single
// Run is not meant to be shared across goroutines.
package dynamo
