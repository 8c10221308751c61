package control

import (
	"fmt"
	"math"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/tf"
)

// Gains are the continuous-time gains and the sampling interval.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Kd float64 `yaml:"kd" json:"kd"`
	Ki float64 `yaml:"ki" json:"ki"`
	Ts float64 `yaml:"ts" json:"ts"`
}

func (g Gains) validate() error {
	if !(g.Ts > 0) || math.IsInf(g.Ts, 0) {
		return fmt.Errorf("%w: sampling interval must be positive, got %g", dynamo.ErrDomain, g.Ts)
	}
	for _, v := range []float64{g.Kp, g.Kd, g.Ki} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: gains must be finite: %+v", dynamo.ErrParameterBounds, g)
		}
	}
	return nil
}

func (g Gains) String() string {
	return fmt.Sprintf("kp=%g kd=%g ki=%g ts=%g", g.Kp, g.Kd, g.Ki, g.Ts)
}

type P struct {
	gains Gains
	prop  proportional
}

func NewP(kp, ts float64) (*P, error) {
	g := Gains{Kp: kp, Ts: ts}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &P{gains: g, prop: proportional{kp: kp}}, nil
}

func (c *P) Control(measurement, setpoint float64) float64 {
	return c.prop.term(setpoint - measurement)
}

func (c *P) Reset()       {}
func (c *P) Gains() Gains { return c.gains }

func (c *P) TransferFunction() tf.System {
	return tf.Gain(c.gains.Kp)
}

type PD struct {
	gains Gains
	prop  proportional
	deriv derivative
}

func NewPD(kp, kd, ts float64) (*PD, error) {
	g := Gains{Kp: kp, Kd: kd, Ts: ts}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &PD{
		gains: g,
		prop:  proportional{kp: kp},
		deriv: derivative{gain: kd / ts},
	}, nil
}

func (c *PD) Control(measurement, setpoint float64) float64 {
	err := setpoint - measurement
	out := c.prop.term(err) + c.deriv.term(err)
	c.deriv.update(err)
	return out
}

func (c *PD) Reset()       { c.deriv.reset() }
func (c *PD) Gains() Gains { return c.gains }

func (c *PD) TransferFunction() tf.System {
	return tf.System{Num: tf.Poly{c.gains.Kd, c.gains.Kp}, Den: tf.Poly{1}}
}

// PID is a discrete PID controller: backward-difference derivative and a
// rectangular integral over prior errors.
type PID struct {
	gains Gains
	prop  proportional
	deriv derivative
	integ integral
}

func NewPID(kp, kd, ki, ts float64) (*PID, error) {
	g := Gains{Kp: kp, Kd: kd, Ki: ki, Ts: ts}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &PID{
		gains: g,
		prop:  proportional{kp: kp},
		deriv: derivative{gain: kd / ts},
		integ: integral{gain: ki * ts},
	}, nil
}

func (c *PID) Control(measurement, setpoint float64) float64 {
	err := setpoint - measurement
	out := c.prop.term(err) + c.deriv.term(err) + c.integ.term()
	c.integ.update(err)
	c.deriv.update(err)
	return out
}

// Reset clears integral and derivative state
func (c *PID) Reset() {
	c.deriv.reset()
	c.integ.reset()
}

func (c *PID) Gains() Gains { return c.gains }

// TransferFunction is kd*s + kp + ki/s over the continuous gains.
func (c *PID) TransferFunction() tf.System {
	return tf.System{
		Num: tf.Poly{c.gains.Kd, c.gains.Kp, c.gains.Ki},
		Den: tf.Poly{1, 0},
	}
}

// Constant is an open-loop controller that always returns the same voltage.
type Constant struct {
	Voltage float64
}

func (c Constant) Control(measurement, setpoint float64) float64 { return c.Voltage }
