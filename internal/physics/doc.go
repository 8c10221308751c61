// Package physics models a steel ball on an incline held by a spring and
// pulled towards an electromagnet.
//
// The state is (position x1, velocity x2, coil current i). Two models
// implement [dynamo.System]:
//
//   - [Nonlinear]: the full law, singular as the ball reaches the gap
//   - [Linear]: small-signal dynamics about an [Equilibrium]
//
// [Solve] and [SolveAt] compute rest points; [Sweep] scans the admissible
// positions. Both models advance with Propagate, which continues from the
// previous call's final sample:
//
//	m, _ := physics.NewNonlinear(physics.DefaultParams())
//	traj, err := m.Propagate(m.Equilibrium().V, 1.0, 1001)
//
// A model owns its state and is not safe for concurrent use.
package physics
