package dynamo

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestState_ScaledMaxNorm(t *testing.T) {
	errEst := State{1e-6, 0}
	ref := State{1, 0}
	alt := State{3, 0}

	got := errEst.ScaledMaxNorm(ref, alt, 1e-6, 0)
	want := 1e-6 / 3e-6
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ScaledMaxNorm = %g, want %g", got, want)
	}

	if got := (State{1e-9}).ScaledMaxNorm(State{0}, nil, 1e-6, 1e-9); math.Abs(got-1) > 1e-12 {
		t.Errorf("absolute floor not applied: %g", got)
	}
}

func TestControl_Scalar(t *testing.T) {
	if got := (Control{}).Scalar(); got != 0 {
		t.Errorf("empty control = %g, want 0", got)
	}
	if got := (Control{4.5, 1}).Scalar(); got != 4.5 {
		t.Errorf("Scalar() = %g, want 4.5", got)
	}
}

func TestSimulationError(t *testing.T) {
	inner := fmt.Errorf("%w: gap closed", ErrDomain)
	err := error(&SimulationError{Step: 150, Time: 1.5, Wrapped: inner})

	expected := "step 150 (t=1.5): dynamo: outside model domain: gap closed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrDomain) {
		t.Error("errors.Is should see through SimulationError")
	}
	var se *SimulationError
	if !errors.As(err, &se) || se.Step != 150 {
		t.Error("errors.As should recover the step")
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		var total atomic.Int64
		covered := make([]int32, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&covered[i], 1)
				total.Add(1)
			}
		})
		if total.Load() != int64(n) {
			t.Errorf("n=%d: visited %d indices", n, total.Load())
		}
		for i, c := range covered {
			if c != 1 {
				t.Errorf("n=%d: index %d visited %d times", n, i, c)
				break
			}
		}
	}
}
