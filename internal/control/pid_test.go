package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/tf"
)

type controller interface {
	Control(measurement, setpoint float64) float64
}

func TestZeroGains(t *testing.T) {
	p, _ := NewP(0, 0.01)
	pd, _ := NewPD(0, 0, 0.01)
	pid, _ := NewPID(0, 0, 0, 0.01)

	pairs := [][2]float64{{1, 0}, {-3, 2}, {0.5, 0.5}, {100, -100}}
	for name, c := range map[string]controller{"p": p, "pd": pd, "pid": pid} {
		for _, pair := range pairs {
			if got := c.Control(pair[0], pair[1]); got != 0 {
				t.Errorf("%s: Control(%v, %v) = %v, want 0", name, pair[0], pair[1], got)
			}
		}
	}
}

func TestNonPositiveTs(t *testing.T) {
	tests := []struct {
		name string
		make func(ts float64) error
	}{
		{"p", func(ts float64) error { _, err := NewP(1, ts); return err }},
		{"pd", func(ts float64) error { _, err := NewPD(1, 1, ts); return err }},
		{"pid", func(ts float64) error { _, err := NewPID(1, 1, 1, ts); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, ts := range []float64{0, -0.001, math.NaN()} {
				if err := tt.make(ts); !errors.Is(err, dynamo.ErrDomain) {
					t.Errorf("ts=%v: expected ErrDomain, got %v", ts, err)
				}
			}
		})
	}
}

func TestFirstCallHasNoDerivative(t *testing.T) {
	pid, err := NewPID(0, 5, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	if got := pid.Control(1, 0); got != 0 {
		t.Errorf("first call applied a derivative term: %v", got)
	}
	if got := pid.Control(2, 0); math.Abs(got-(-50)) > 1e-12 {
		t.Errorf("second call = %v, want -50", got)
	}
}

func TestIntegralUsesPriorErrors(t *testing.T) {
	pid, _ := NewPID(0, 0, 10, 0.1)

	want := []float64{0, 1, 2, 3}
	for k, w := range want {
		if got := pid.Control(-1, 0); math.Abs(got-w) > 1e-12 {
			t.Errorf("call %d = %v, want %v", k, got, w)
		}
	}
}

func TestPIDSequence(t *testing.T) {
	pid, _ := NewPID(2, 0.3, 4, 0.1)

	if got := pid.Control(-1, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("first output = %v, want 2", got)
	}
	if got := pid.Control(-0.5, 0); math.Abs(got-(-0.1)) > 1e-12 {
		t.Errorf("second output = %v, want -0.1", got)
	}

	pid.Reset()
	if got := pid.Control(-1, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("after reset = %v, want 2", got)
	}
}

func TestPDMatchesPIDWithoutIntegral(t *testing.T) {
	pd, _ := NewPD(3, 0.2, 0.01)
	pid, _ := NewPID(3, 0.2, 0, 0.01)

	for k, m := range []float64{0.1, 0.08, 0.05, 0.01, -0.02} {
		a, b := pd.Control(m, 0), pid.Control(m, 0)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("step %d: pd %v != pid %v", k, a, b)
		}
	}
}

func TestTransferFunctions(t *testing.T) {
	pid, _ := NewPID(2, 1.9, 500, 0.001)
	g := pid.TransferFunction()
	if !g.Num.Equal(tf.Poly{1.9, 2, 500}) || !g.Den.Equal(tf.Poly{1, 0}) {
		t.Errorf("PID transfer function = %v", g)
	}

	pd, _ := NewPD(2, 1.9, 0.001)
	if g := pd.TransferFunction(); !g.Num.Equal(tf.Poly{1.9, 2}) {
		t.Errorf("PD transfer function = %v", g)
	}

	p, _ := NewP(2, 0.001)
	if g := p.TransferFunction(); g.DCGain() != 2 {
		t.Errorf("P transfer function = %v", g)
	}

	if got := pid.Gains(); got != (Gains{Kp: 2, Kd: 1.9, Ki: 500, Ts: 0.001}) {
		t.Errorf("Gains() = %+v", got)
	}
}

func TestConstant(t *testing.T) {
	c := Constant{Voltage: 36}
	if got := c.Control(1, 0); got != 36 {
		t.Errorf("Constant = %v", got)
	}
}
