// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Bounded]: systems with a hard edge in state space
//   - [Integrator]: single-step numerical integrator
//   - [AdaptiveIntegrator]: integrator with an embedded error estimate
//
// Errors raised while integrating are wrapped in [SimulationError] and can be
// matched with errors.Is against [ErrDomain] and [ErrIntegration].
//
// # Thread Safety
//
// Integrators may keep scratch buffers and are NOT thread-safe. Use one
// integrator per goroutine; [ParallelFor] splits independent work.
package dynamo
