package integrators

import (
	"fmt"

	"github.com/san-kum/magball/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// stiffDecay is x' = -lambda*(x - u).
type stiffDecay struct{ lambda float64 }

func (s *stiffDecay) StateDim() int   { return 1 }
func (s *stiffDecay) ControlDim() int { return 1 }

func (s *stiffDecay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-s.lambda * (x[0] - u.Scalar())}
}

// wall moves at constant speed towards a boundary at zero.
type wall struct{}

func (w *wall) StateDim() int   { return 1 }
func (w *wall) ControlDim() int { return 0 }

func (w *wall) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-1}
}

func (w *wall) CheckState(x dynamo.State) error {
	if !(x[0] > 0) {
		return fmt.Errorf("%w: crossed wall at x=%g", dynamo.ErrDomain, x[0])
	}
	return nil
}

func run(t interface{ Fatalf(string, ...any) }, integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, u dynamo.Control, dt float64, steps int) dynamo.State {
	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(dyn, x, u, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return x
}
