package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

// radicandSlack absorbs rounding when the ball sits where the spring alone
// balances gravity and the required current is zero.
const radicandSlack = 1e-12

// Equilibrium is the rest point reached under a constant voltage.
type Equilibrium struct {
	X1 float64 // position, m
	X2 float64 // velocity, always 0
	I  float64 // coil current, A
	V  float64 // holding voltage, V
}

func (e Equilibrium) State() dynamo.State {
	return dynamo.State{e.X1, e.X2, e.I}
}

// Solve computes the nominal equilibrium: the ball a quarter of the way from
// the spring's loaded rest position towards the magnet gap.
func Solve(p Params) (Equilibrium, error) {
	if err := p.Validate(); err != nil {
		return Equilibrium{}, err
	}
	x1 := 0.75*(p.DLength+p.GravityForce()/p.KSpring) + 0.25*p.Delta
	return solveAt(p, x1)
}

// SolveAt computes the equilibrium with the ball held at x1.
func SolveAt(p Params, x1 float64) (Equilibrium, error) {
	if err := p.Validate(); err != nil {
		return Equilibrium{}, err
	}
	if !(x1 >= p.DLength && x1 <= p.Delta) {
		return Equilibrium{}, fmt.Errorf("%w: position %g outside [%g, %g]", dynamo.ErrDomain, x1, p.DLength, p.Delta)
	}
	return solveAt(p, x1)
}

func solveAt(p Params, x1 float64) (Equilibrium, error) {
	gap := p.Delta - x1
	radicand := (p.GravityForce() - p.KSpring*(x1-p.DLength)) / (-p.CConst) * gap * gap
	if radicand < -radicandSlack {
		return Equilibrium{}, fmt.Errorf("%w: negative current radicand %g at x1=%g", dynamo.ErrDomain, radicand, x1)
	}
	i := math.Sqrt(math.Max(radicand, 0))
	return Equilibrium{X1: x1, X2: 0, I: i, V: i * p.Resistance}, nil
}

// Sweep evaluates n equilibria evenly spaced from the spring's loaded rest
// position, where no current is needed, up to the magnet gap.
func Sweep(p Params, n int) ([]Equilibrium, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: sweep needs at least 2 points, got %d", dynamo.ErrParameterBounds, n)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lo := p.DLength + p.GravityForce()/p.KSpring
	if lo > p.Delta {
		return nil, fmt.Errorf("%w: spring rest position %g beyond gap %g", dynamo.ErrDomain, lo, p.Delta)
	}

	points := make([]Equilibrium, n)
	for k := range points {
		x1 := lo + (p.Delta-lo)*float64(k)/float64(n-1)
		if k == n-1 {
			x1 = p.Delta
		}
		eq, err := solveAt(p, x1)
		if err != nil {
			return nil, fmt.Errorf("sweep point %d: %w", k, err)
		}
		points[k] = eq
	}
	return points, nil
}

// PeakVoltage returns the swept point demanding the largest holding voltage.
func PeakVoltage(points []Equilibrium) (Equilibrium, bool) {
	if len(points) == 0 {
		return Equilibrium{}, false
	}
	best := points[0]
	for _, eq := range points[1:] {
		if eq.V > best.V {
			best = eq
		}
	}
	return best, true
}
