package integrators

import (
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

// StepDoubling turns any fixed-step integrator of the given order into an
// adaptive one by comparing one full step against two half steps.
type StepDoubling struct {
	Base   dynamo.Integrator
	Order  int
	AbsTol float64
}

func NewStepDoubling(base dynamo.Integrator, order int) *StepDoubling {
	return &StepDoubling{Base: base, Order: order, AbsTol: 1e-9}
}

func (s *StepDoubling) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	return s.Base.Step(dyn, x, u, t, dt)
}

// StepAdaptive returns the two-half-step result with a Richardson error estimate.
func (s *StepDoubling) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	full, err := s.Base.Step(dyn, x, u, t, dt)
	if err != nil {
		return nil, 0, 0, err
	}
	half, err := s.Base.Step(dyn, x, u, t, dt/2)
	if err != nil {
		return nil, 0, 0, err
	}
	twice, err := s.Base.Step(dyn, half, u, t+dt/2, dt/2)
	if err != nil {
		return nil, 0, 0, err
	}

	denom := math.Pow(2, float64(s.Order)) - 1
	diff := twice.Sub(full).Scale(1 / denom)
	ratio := diff.ScaledMaxNorm(x, twice, tol, s.AbsTol)
	if math.IsNaN(ratio) {
		return twice, math.Inf(1), dt / 2, nil
	}

	next := dt
	switch {
	case ratio > 1:
		next = dt / 2
	case ratio < 0.1:
		next = dt * 2
	}
	return twice, ratio, next, nil
}
