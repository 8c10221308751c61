package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/integrators"
	"github.com/san-kum/magball/internal/sim"
)

// Nonlinear is the full ball, spring, and coil model with state
// (position, velocity, current) in absolute coordinates.
type Nonlinear struct {
	params     Params
	eq         Equilibrium
	state      dynamo.State
	integrator dynamo.Integrator
	opts       sim.Options
}

// NewNonlinear builds the model at the nominal equilibrium unless WithState
// or WithEquilibrium says otherwise. The default integrator is Radau IIA.
func NewNonlinear(p Params, opts ...Option) (*Nonlinear, error) {
	s := collect(opts)
	if s.bias != nil {
		return nil, fmt.Errorf("%w: voltage bias applies to the linear model only", dynamo.ErrParameterBounds)
	}

	eq, err := Solve(p)
	if err != nil {
		return nil, err
	}
	if s.eq != nil {
		eq = *s.eq
	}

	m := &Nonlinear{
		params:     p,
		eq:         eq,
		state:      eq.State(),
		integrator: integrators.NewRadau(),
		opts:       sim.DefaultOptions(),
	}
	if s.state != nil {
		m.state = s.state
	}
	if s.integrator != nil {
		m.integrator = s.integrator
	}
	if s.opts != nil {
		m.opts = *s.opts
	}

	if err := m.CheckState(m.state); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Nonlinear) StateDim() int   { return 3 }
func (m *Nonlinear) ControlDim() int { return 1 }

// Derive returns NaN rates once the ball reaches the gap; Propagate rejects
// such states before they are recorded.
func (m *Nonlinear) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p := &m.params
	x1, x2, i := x[0], x[1], x[2]

	gap := p.Delta - x1
	if !(gap > 0) {
		return dynamo.State{math.NaN(), math.NaN(), math.NaN()}
	}

	pull := i / gap
	force := p.GravityForce() + p.CConst*pull*pull - p.KSpring*(x1-p.DLength) - p.BDamper*x2
	accel := 5 / (3 * p.Mass) * force
	di := (u.Scalar() - i*p.Resistance) / p.Inductance(gap)

	return dynamo.State{x2, accel, di}
}

// CheckState implements dynamo.Bounded.
func (m *Nonlinear) CheckState(x dynamo.State) error {
	if len(x) != 3 {
		return fmt.Errorf("%w: expected 3 states, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	if gap := m.params.Delta - x[0]; !(gap > 0) {
		return fmt.Errorf("%w: ball reached the magnet gap (x1=%g, delta=%g)", dynamo.ErrDomain, x[0], m.params.Delta)
	}
	return nil
}

// Propagate integrates the model over [0, dt] under a constant voltage and
// continues from the last sample on the next call. On error the state is
// left unchanged.
func (m *Nonlinear) Propagate(voltage, dt float64, numPoints int) (*sim.Trajectory, error) {
	traj, err := sim.Propagate(m, m.integrator, m.state, dynamo.Control{voltage}, dt, numPoints, m.opts)
	if err != nil {
		return nil, fmt.Errorf("nonlinear propagate: %w", err)
	}
	m.state = traj.Final()
	return traj, nil
}

func (m *Nonlinear) State() dynamo.State      { return m.state.Clone() }
func (m *Nonlinear) Equilibrium() Equilibrium { return m.eq }
func (m *Nonlinear) Params() Params           { return m.params }
