package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/magball/internal/dynamo"
)

func TestSolveDefaults(t *testing.T) {
	p := DefaultParams()
	eq, err := Solve(p)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if !(eq.X1 > p.DLength && eq.X1 < p.Delta) {
		t.Errorf("x1_e = %v outside (%v, %v)", eq.X1, p.DLength, p.Delta)
	}
	if !(eq.I > 0) {
		t.Errorf("i_e = %v, want positive", eq.I)
	}
	if eq.X2 != 0 {
		t.Errorf("x2_e = %v, want 0", eq.X2)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"x1", eq.X1, 0.478613},
		{"i", eq.I, 0.680381},
		{"v", eq.V, 36.0602},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-4*math.Abs(c.want) {
			t.Errorf("%s = %v, want ~%v", c.name, c.got, c.want)
		}
	}
	if eq.V != eq.I*p.Resistance {
		t.Errorf("v_e must equal i_e*R")
	}
}

func TestSolveIsPure(t *testing.T) {
	p := DefaultParams()
	a, _ := Solve(p)
	b, _ := Solve(p)
	if a != b {
		t.Errorf("repeated solves differ: %+v vs %+v", a, b)
	}
	if p != DefaultParams() {
		t.Error("solve modified its params")
	}
}

func TestSolveAt(t *testing.T) {
	p := DefaultParams()

	eq, err := SolveAt(p, p.Delta)
	if err != nil {
		t.Fatalf("solve at the gap: %v", err)
	}
	if eq.I != 0 {
		t.Errorf("current at the gap = %v, want 0", eq.I)
	}

	tests := []struct {
		name string
		x1   float64
	}{
		{"below natural length", p.DLength - 0.01},
		{"beyond gap", p.Delta + 0.01},
		{"nan", math.NaN()},
		{"spring too short to balance gravity", p.DLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SolveAt(p, tt.x1); !errors.Is(err, dynamo.ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
		})
	}
}

func TestSolveRejectsBadParams(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(p *Params)
	}{
		{"zero mass", func(p *Params) { p.Mass = 0 }},
		{"gap inside spring", func(p *Params) { p.Delta = p.DLength }},
		{"negative resistance", func(p *Params) { p.Resistance = -1 }},
		{"nan slope", func(p *Params) { p.Phi = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.tweak(&p)
			if _, err := Solve(p); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	p := DefaultParams()
	points, err := Sweep(p, 1001)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(points) != 1001 {
		t.Fatalf("expected 1001 points, got %d", len(points))
	}

	lo := p.DLength + p.GravityForce()/p.KSpring
	if math.Abs(points[0].X1-lo) > 1e-12 || points[0].I > 1e-5 {
		t.Errorf("first point %+v should rest on the spring alone", points[0])
	}
	if points[1000].X1 != p.Delta || points[1000].I != 0 {
		t.Errorf("last point %+v should sit at the gap", points[1000])
	}
	for k, eq := range points {
		if eq.I < 0 || math.IsNaN(eq.I) {
			t.Fatalf("point %d has current %v", k, eq.I)
		}
	}

	peak, ok := PeakVoltage(points)
	if !ok {
		t.Fatal("no peak")
	}
	if math.Abs(peak.X1-0.49758) > 1e-3 || math.Abs(peak.V-37.012) > 1e-2 {
		t.Errorf("peak = %+v, want x1~0.4976 v~37.01", peak)
	}

	if _, err := Sweep(p, 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("single-point sweep: %v", err)
	}
	if _, ok := PeakVoltage(nil); ok {
		t.Error("peak of an empty sweep")
	}
}

func TestParamsSetParam(t *testing.T) {
	p := DefaultParams()
	for _, name := range ParamNames() {
		if err := p.SetParam(name, 1); err != nil {
			t.Errorf("SetParam(%q): %v", name, err)
		}
	}
	for name, v := range p.GetParams() {
		if v != 1 {
			t.Errorf("%s = %v after set", name, v)
		}
	}
	if err := p.SetParam("bogus", 1); err == nil {
		t.Error("unknown param accepted")
	}
}
