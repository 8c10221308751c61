package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// ScaledMaxNorm returns max_i |s_i| / (atol + rtol*max(|ref_i|, |alt_i|)),
// the weighted error norm used by the adaptive steppers.
func (s State) ScaledMaxNorm(ref, alt State, rtol, atol float64) float64 {
	worst := 0.0
	for i, v := range s {
		mag := math.Abs(ref[i])
		if i < len(alt) {
			mag = math.Max(mag, math.Abs(alt[i]))
		}
		worst = math.Max(worst, math.Abs(v)/(atol+rtol*mag))
	}
	return worst
}

type Control []float64

// Scalar returns the first control channel, or 0 for an empty control.
func (u Control) Scalar() float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Bounded is implemented by systems whose state space has a hard edge.
// CheckState returns an error wrapping ErrDomain for states outside it.
type Bounded interface {
	CheckState(x State) error
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) (State, error)
}

// AdaptiveIntegrator carries an embedded error estimate. errRatio <= 1
// means the step meets tol; next is the suggested size for the following step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (newX State, errRatio, next float64, err error)
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}
