package physics_test

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

func TestPIDRegulatesLinearModel(t *testing.T) {
	lin, err := physics.NewLinear(physics.DefaultParams(), physics.WithPerturbation(0.1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	pid, err := control.NewPID(2, 1.9, 500, 0.001)
	if err != nil {
		t.Fatal(err)
	}

	cfg := sim.DefaultConfig()
	cfg.Ts = 0.001
	cfg.Duration = 1.0
	cfg.Setpoint = 0

	result, err := sim.New(lin, pid).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("closed loop failed: %v", err)
	}
	if n := len(result.Times); n != 1001 || math.Abs(result.Times[n-1]-1.0) > 1e-12 {
		t.Fatalf("unexpected time grid: %d samples ending at %v", n, result.Times[n-1])
	}
	if got := result.Final()[0]; math.Abs(got) >= 0.01 {
		t.Errorf("|x1_bar(1)| = %v, want < 0.01", math.Abs(got))
	}
}

func TestPIDHoldsNonlinearModel(t *testing.T) {
	p := physics.DefaultParams()
	eq, _ := physics.Solve(p)
	nl, err := physics.NewNonlinear(p, physics.WithState(eq.X1+0.005, 0, eq.I))
	if err != nil {
		t.Fatal(err)
	}
	pid, _ := control.NewPID(2, 1.9, 500, 0.001)

	cfg := sim.DefaultConfig()
	cfg.Ts = 0.001
	cfg.Duration = 1.0
	cfg.Setpoint = eq.X1
	cfg.Bias = eq.V

	result, err := sim.New(nl, pid).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("closed loop failed: %v", err)
	}
	if got := result.Final()[0]; math.Abs(got-eq.X1) > 1e-3 {
		t.Errorf("x1(1) = %v, want within 1 mm of %v", got, eq.X1)
	}
}
