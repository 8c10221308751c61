package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/magball/internal/dynamo"
)

func TestFixedStepAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 1e-2},
		{"rk4", NewRK4(), 1e-8},
		{"rk45", NewRK45(), 1e-8},
		{"radau", NewRadau(), 1e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := 0.01
			steps := 100
			x := run(t, tt.integ, &harmonicOscillator{}, dynamo.State{1, 0}, nil, dt, steps)

			wantX := math.Cos(float64(steps) * dt)
			wantV := -math.Sin(float64(steps) * dt)
			if math.Abs(x[0]-wantX) > tt.tol {
				t.Errorf("position error too large: got %.8f, expected %.8f", x[0], wantX)
			}
			if math.Abs(x[1]-wantV) > tt.tol {
				t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], wantV)
			}
		})
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x := run(t, NewRK45(), dyn, x0.Clone(), nil, 0.01, 10000)

	drift := math.Abs(dyn.Energy(x)-dyn.Energy(x0)) / dyn.Energy(x0)
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	x0 := dynamo.State{1.0, 0.0}

	x, ratio, next, err := integrator.StepAdaptive(&harmonicOscillator{}, x0, nil, 0, 0.1, 1e-8)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if ratio <= 0 {
		t.Errorf("expected positive error ratio, got %g", ratio)
	}
	if next <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", next)
	}

	_, loose, nextLoose, _ := integrator.StepAdaptive(&harmonicOscillator{}, x0, nil, 0, 0.1, 1e-3)
	if loose >= ratio {
		t.Errorf("looser tolerance should shrink the ratio: %g vs %g", loose, ratio)
	}
	if nextLoose <= next {
		t.Errorf("looser tolerance should grow the suggested step: %g vs %g", nextLoose, next)
	}
}

func TestRK45_RejectsBadTolerance(t *testing.T) {
	_, _, _, err := NewRK45().StepAdaptive(&harmonicOscillator{}, dynamo.State{1, 0}, nil, 0, 0.1, 0)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestRadau_StiffDecay(t *testing.T) {
	dyn := &stiffDecay{lambda: 1e4}
	u := dynamo.Control{2}

	x := run(t, NewRadau(), dyn, dynamo.State{0}, u, 0.01, 50)
	if math.Abs(x[0]-2) > 1e-6 {
		t.Errorf("radau should settle on the input, got %g", x[0])
	}

	explicit, _ := NewRK4().Step(dyn, dynamo.State{0}, u, 0, 0.01)
	if math.Abs(explicit[0]) < 1e3 {
		t.Errorf("rk4 at this step size is expected to blow up, got %g", explicit[0])
	}
}

func TestRadau_StageDomainError(t *testing.T) {
	_, err := NewRadau().Step(&wall{}, dynamo.State{0.001}, nil, 0, 0.01)
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}

	x, err := NewRadau().Step(&wall{}, dynamo.State{1}, nil, 0, 0.01)
	if err != nil {
		t.Fatalf("unexpected error away from the wall: %v", err)
	}
	if math.Abs(x[0]-0.99) > 1e-9 {
		t.Errorf("expected 0.99, got %g", x[0])
	}
}

func TestRK45_StageDomainError(t *testing.T) {
	x, _, _, err := NewRK45().StepAdaptive(&wall{}, dynamo.State{0.001}, nil, 0, 0.01, 1e-6)
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
	if x != nil {
		t.Errorf("failed step returned a state: %v", x)
	}

	x, _, _, err = NewRK45().StepAdaptive(&wall{}, dynamo.State{1}, nil, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error away from the wall: %v", err)
	}
	if math.Abs(x[0]-0.99) > 1e-9 {
		t.Errorf("expected 0.99, got %g", x[0])
	}
}

func TestStepDoubling_ErrorEstimate(t *testing.T) {
	sd := NewStepDoubling(NewRK4(), 4)
	dyn := &harmonicOscillator{}

	_, small, _, err := sd.StepAdaptive(dyn, dynamo.State{1, 0}, nil, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	_, large, next, err := sd.StepAdaptive(dyn, dynamo.State{1, 0}, nil, 0, 1.0, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	if small >= 1 {
		t.Errorf("small step should be accepted, ratio %g", small)
	}
	if large <= 1 {
		t.Errorf("unit step should be rejected, ratio %g", large)
	}
	if next >= 1.0 {
		t.Errorf("rejected step should suggest a smaller size, got %g", next)
	}
}
