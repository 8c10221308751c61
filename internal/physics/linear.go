package physics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/integrators"
	"github.com/san-kum/magball/internal/sim"
	"github.com/san-kum/magball/internal/tf"
)

// Coefficients of the small-signal model about an equilibrium.
type Coefficients struct {
	D float64 // current to acceleration
	F float64 // position to acceleration
	H float64 // velocity damping
	N float64 // inverse inductance
	P float64 // R/L
}

func Linearize(p Params, eq Equilibrium) (Coefficients, error) {
	gap := p.Delta - eq.X1
	if !(gap > 0) {
		return Coefficients{}, fmt.Errorf("%w: cannot linearize at the gap (x1=%g)", dynamo.ErrDomain, eq.X1)
	}
	scale := 5 / (3 * p.Mass)
	n := 1 / p.Inductance(gap)
	return Coefficients{
		D: scale * 2 * p.CConst * eq.I / (gap * gap),
		F: scale * (2*p.CConst*eq.I*eq.I/(gap*gap*gap) - p.KSpring),
		H: scale * p.BDamper,
		N: n,
		P: p.Resistance * n,
	}, nil
}

// Linear is the perturbation model about an equilibrium. Its state and
// input are deviations from the operating point.
type Linear struct {
	params     Params
	eq         Equilibrium
	coef       Coefficients
	bias       float64
	state      dynamo.State
	integrator dynamo.Integrator
	opts       sim.Options
}

// NewLinear linearizes about the nominal equilibrium, or the one given by
// WithEquilibrium. The default integrator is the adaptive Dormand-Prince RK45.
func NewLinear(p Params, opts ...Option) (*Linear, error) {
	s := collect(opts)

	eq, err := Solve(p)
	if err != nil {
		return nil, err
	}
	if s.eq != nil {
		eq = *s.eq
	}
	coef, err := Linearize(p, eq)
	if err != nil {
		return nil, err
	}

	m := &Linear{
		params:     p,
		eq:         eq,
		coef:       coef,
		state:      dynamo.State{0, 0, 0},
		integrator: integrators.NewRK45(),
		opts:       sim.DefaultOptions(),
	}
	if s.state != nil {
		m.state = s.state
	}
	if s.bias != nil {
		m.bias = *s.bias
	}
	if s.integrator != nil {
		m.integrator = s.integrator
	}
	if s.opts != nil {
		m.opts = *s.opts
	}
	if !m.state.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return m, nil
}

func (m *Linear) StateDim() int   { return 3 }
func (m *Linear) ControlDim() int { return 1 }

func (m *Linear) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	c := &m.coef
	return dynamo.State{
		x[1],
		c.D*x[2] + c.F*x[0] - c.H*x[1],
		c.N*(u.Scalar()+m.bias) - c.P*x[2],
	}
}

// Propagate integrates the perturbation dynamics over [0, dt] under a
// constant perturbation voltage (the bias is added on top).
func (m *Linear) Propagate(voltage, dt float64, numPoints int) (*sim.Trajectory, error) {
	traj, err := sim.Propagate(m, m.integrator, m.state, dynamo.Control{voltage}, dt, numPoints, m.opts)
	if err != nil {
		return nil, fmt.Errorf("linear propagate: %w", err)
	}
	m.state = traj.Final()
	return traj, nil
}

// TransferFunction is G(s) = D*N / (s^3 + (H+P)s^2 + (HP-F)s - FP), from
// perturbation voltage to position perturbation.
func (m *Linear) TransferFunction() tf.System {
	c := m.coef
	return tf.System{
		Num: tf.Poly{c.D * c.N},
		Den: tf.Poly{1, c.H + c.P, c.H*c.P - c.F, -c.F * c.P},
	}
}

// Jacobian returns the state matrix A of x' = A x + B v.
func (m *Linear) Jacobian() *mat.Dense {
	c := m.coef
	return mat.NewDense(3, 3, []float64{
		0, 1, 0,
		c.F, -c.H, c.D,
		0, 0, -c.P,
	})
}

// Absolute converts a perturbation state to absolute coordinates.
func (m *Linear) Absolute(x dynamo.State) dynamo.State {
	return x.Add(m.eq.State())
}

func (m *Linear) State() dynamo.State        { return m.state.Clone() }
func (m *Linear) Equilibrium() Equilibrium   { return m.eq }
func (m *Linear) Params() Params             { return m.params }
func (m *Linear) Coefficients() Coefficients { return m.coef }
func (m *Linear) Bias() float64              { return m.bias }
