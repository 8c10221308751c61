package routh

import (
	"fmt"
	"math"
	"math/big"

	"github.com/san-kum/magball/internal/symbolic"
	"github.com/san-kum/magball/internal/tf"
)

// Gain symbols of the parametric PID loop.
const (
	SymKp = "k_p"
	SymKd = "k_d"
	SymKi = "k_i"
)

// Parametric is the Routh array of a PID loop with unresolved gains.
type Parametric struct {
	char  symbolic.Poly
	array *Array[symbolic.Ratio]
}

// ParametricPID forms the characteristic polynomial of
// feedback(pid*plant, sensor) with pid = (k_d s^2 + k_p s + k_i)/s:
//
//	s*plant.Den*sensor.Den + plant.Num*sensor.Num*(k_d s^2 + k_p s + k_i)
func ParametricPID(plant, sensor tf.System) (*Parametric, error) {
	for _, p := range []tf.Poly{plant.Num, plant.Den, sensor.Num, sensor.Den} {
		for _, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("routh: non-finite coefficient in %v", p)
			}
		}
	}

	s := symbolic.Poly{symbolic.Int(1), symbolic.Int(0)}
	pid := symbolic.Poly{symbolic.Symbol(SymKd), symbolic.Symbol(SymKp), symbolic.Symbol(SymKi)}

	open := s.Mul(symbolic.FromFloats(plant.Den)).Mul(symbolic.FromFloats(sensor.Den))
	loop := symbolic.FromFloats(plant.Num).Mul(symbolic.FromFloats(sensor.Num)).Mul(pid)
	char := open.Add(loop).Trim()

	coeffs := make([]symbolic.Ratio, len(char))
	for i, c := range char {
		coeffs[i] = symbolic.FromExpr(c)
	}
	arr, err := Build(coeffs, symbolic.FromExpr(symbolic.Zero()))
	if err != nil {
		return nil, err
	}
	return &Parametric{char: char, array: arr}, nil
}

// ClassifyParametric classifies the PID loop for all positive gains at once;
// it is Indeterminate unless every first-column entry has a fixed sign.
func ClassifyParametric(plant, sensor tf.System) (Verdict, error) {
	p, err := ParametricPID(plant, sensor)
	if err != nil {
		return Indeterminate, err
	}
	return p.Verdict(), nil
}

func (p *Parametric) Characteristic() symbolic.Poly { return p.char }
func (p *Parametric) Array() *Array[symbolic.Ratio] { return p.array }
func (p *Parametric) Verdict() Verdict              { return p.array.Verdict() }

// Substitute evaluates the characteristic polynomial at concrete gains.
func (p *Parametric) Substitute(kp, kd, ki float64) (tf.Poly, error) {
	values := map[string]*big.Rat{}
	for name, v := range map[string]float64{SymKp: kp, SymKd: kd, SymKi: ki} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("routh: gain %s is not finite", name)
		}
		r, _ := symbolic.Float(v).IsConst()
		values[name] = r
	}

	exact, err := p.char.Substitute(values)
	if err != nil {
		return nil, err
	}
	out := make(tf.Poly, len(exact))
	for i, r := range exact {
		out[i], _ = r.Float64()
	}
	return out, nil
}

// ClassifyAt substitutes the gains and classifies numerically.
func (p *Parametric) ClassifyAt(kp, kd, ki float64) (Verdict, error) {
	poly, err := p.Substitute(kp, kd, ki)
	if err != nil {
		return Indeterminate, err
	}
	return Classify(poly), nil
}
