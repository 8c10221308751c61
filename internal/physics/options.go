package physics

import (
	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/sim"
)

type settings struct {
	state      dynamo.State
	integrator dynamo.Integrator
	opts       *sim.Options
	eq         *Equilibrium
	bias       *float64
}

// Option configures a model at construction.
type Option func(*settings)

// WithState sets the absolute initial state of a Nonlinear model.
func WithState(x1, x2, i float64) Option {
	return func(s *settings) { s.state = dynamo.State{x1, x2, i} }
}

// WithPerturbation sets the initial deviation of a Linear model.
func WithPerturbation(x1, x2, i float64) Option {
	return func(s *settings) { s.state = dynamo.State{x1, x2, i} }
}

// WithBias adds a constant voltage offset to every Linear propagation.
func WithBias(vBar float64) Option {
	return func(s *settings) { s.bias = &vBar }
}

// WithEquilibrium replaces the nominal operating point, e.g. with a point
// from Sweep.
func WithEquilibrium(eq Equilibrium) Option {
	return func(s *settings) { s.eq = &eq }
}

func WithIntegrator(integ dynamo.Integrator) Option {
	return func(s *settings) { s.integrator = integ }
}

// WithOptions overrides the propagation step limits and tolerance.
func WithOptions(opts sim.Options) Option {
	return func(s *settings) { s.opts = &opts }
}

func collect(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
