package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/magball/internal/dynamo"
)

// Params describes the ball, spring, and electromagnet. It is a value type:
// models copy it at construction, so later edits never reach a built model.
type Params struct {
	Mass       float64 // kg
	Gravity    float64 // m/s^2
	Phi        float64 // incline slope, rad
	CConst     float64 // magnetic force constant
	Delta      float64 // magnet gap position, m
	KSpring    float64 // N/m
	DLength    float64 // natural spring length, m
	BDamper    float64 // N*s/m
	Ell0       float64 // nominal inductance, H
	Ell1       float64 // inductance slope, H
	Alpha      float64 // inductance decay constant, 1/m
	Resistance float64 // Ohm
}

func DefaultParams() Params {
	return Params{
		Mass:       0.425,
		Gravity:    9.81,
		Phi:        42 * math.Pi / 180,
		CConst:     6.815,
		Delta:      0.65,
		KSpring:    1880,
		DLength:    0.42,
		BDamper:    10.4,
		Ell0:       0.12,
		Ell1:       0.025,
		Alpha:      1.2,
		Resistance: 53,
	}
}

// GravityForce is the slope component of the ball's weight, m*g*sin(phi).
func (p Params) GravityForce() float64 {
	return p.Mass * p.Gravity * math.Sin(p.Phi)
}

// Inductance returns L(gap) = Ell0 + Ell1*exp(-Alpha*gap).
func (p Params) Inductance(gap float64) float64 {
	return p.Ell0 + p.Ell1*math.Exp(-p.Alpha*gap)
}

func (p Params) Validate() error {
	for name, v := range p.GetParams() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrParameterBounds, name)
		}
	}
	switch {
	case p.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, p.Mass)
	case p.KSpring <= 0:
		return fmt.Errorf("%w: spring constant must be positive, got %g", dynamo.ErrParameterBounds, p.KSpring)
	case p.CConst <= 0:
		return fmt.Errorf("%w: magnetic constant must be positive, got %g", dynamo.ErrParameterBounds, p.CConst)
	case p.Delta <= p.DLength:
		return fmt.Errorf("%w: gap %g must lie beyond the natural spring length %g", dynamo.ErrParameterBounds, p.Delta, p.DLength)
	case p.Ell0 <= 0 || p.Ell1 < 0:
		return fmt.Errorf("%w: inductance must be positive", dynamo.ErrParameterBounds)
	case p.Resistance <= 0:
		return fmt.Errorf("%w: resistance must be positive, got %g", dynamo.ErrParameterBounds, p.Resistance)
	case p.BDamper < 0:
		return fmt.Errorf("%w: damping must be non-negative, got %g", dynamo.ErrParameterBounds, p.BDamper)
	}
	return nil
}

func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       p.Mass,
		"gravity":    p.Gravity,
		"phi":        p.Phi,
		"c_const":    p.CConst,
		"delta":      p.Delta,
		"k_spring":   p.KSpring,
		"d_length":   p.DLength,
		"b_damper":   p.BDamper,
		"ell_0":      p.Ell0,
		"ell_1":      p.Ell1,
		"alpha":      p.Alpha,
		"resistance": p.Resistance,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "gravity":
		p.Gravity = value
	case "phi":
		p.Phi = value
	case "c_const":
		p.CConst = value
	case "delta":
		p.Delta = value
	case "k_spring":
		p.KSpring = value
	case "d_length":
		p.DLength = value
	case "b_damper":
		p.BDamper = value
	case "ell_0":
		p.Ell0 = value
	case "ell_1":
		p.Ell1 = value
	case "alpha":
		p.Alpha = value
	case "resistance":
		p.Resistance = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// ParamNames lists the keys accepted by SetParam in sorted order.
func ParamNames() []string {
	names := make([]string, 0, 12)
	for name := range DefaultParams().GetParams() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
