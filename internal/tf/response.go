package tf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/integrators"
)

// realization is the controllable canonical form of a proper system:
// x' = A x + B u, y = C x + D u with B = e1.
type realization struct {
	a *mat.Dense
	c []float64
	d float64
}

func (g System) realize() (*realization, error) {
	den := g.Den.Trim()
	if den.IsZero() {
		return nil, fmt.Errorf("%w: denominator", ErrZeroPolynomial)
	}
	if !g.Proper() {
		return nil, fmt.Errorf("%w: %v", ErrImproper, g)
	}
	n := len(den) - 1
	lead := den[0]

	num := make(Poly, n+1)
	trimmed := g.Num.Trim()
	copy(num[n+1-len(trimmed):], trimmed)

	r := &realization{a: mat.NewDense(max(n, 1), max(n, 1), nil), c: make([]float64, n)}
	r.d = num[0] / lead
	for j := 0; j < n; j++ {
		r.a.Set(0, j, -den[j+1]/lead)
		r.c[j] = num[j+1]/lead - r.d*den[j+1]/lead
	}
	for i := 1; i < n; i++ {
		r.a.Set(i, i-1, 1)
	}
	return r, nil
}

func (r *realization) StateDim() int   { return len(r.c) }
func (r *realization) ControlDim() int { return 1 }

func (r *realization) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := len(x)
	var dx mat.VecDense
	dx.MulVec(r.a, mat.NewVecDense(n, x))
	out := make(dynamo.State, n)
	for i := range out {
		out[i] = dx.AtVec(i)
	}
	out[0] += u.Scalar()
	return out
}

func (r *realization) output(x dynamo.State, u float64) float64 {
	y := r.d * u
	for i, c := range r.c {
		y += c * x[i]
	}
	return y
}

// StepResponse returns y(t) for a unit step applied at t = 0.
func (g System) StepResponse(times []float64) ([]float64, error) {
	return g.simulate(times, false)
}

// ImpulseResponse returns the regular part of the response to a unit
// impulse at t = 0; a direct feedthrough term contributes only a Dirac
// spike and is omitted.
func (g System) ImpulseResponse(times []float64) ([]float64, error) {
	return g.simulate(times, true)
}

func (g System) simulate(times []float64, impulse bool) ([]float64, error) {
	if len(times) == 0 || times[0] < 0 {
		return nil, fmt.Errorf("%w: need a non-empty grid starting at t >= 0", ErrTimeGrid)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("%w: times not increasing at index %d", ErrTimeGrid, i)
		}
	}

	r, err := g.realize()
	if err != nil {
		return nil, err
	}
	n := r.StateDim()
	out := make([]float64, len(times))
	if n == 0 {
		if !impulse {
			for i := range out {
				out[i] = r.d
			}
		}
		return out, nil
	}

	poles, err := g.Poles()
	if err != nil {
		return nil, err
	}
	hMax := math.Inf(1)
	if rho := maxAbs(poles); rho > 0 {
		hMax = 0.05 / rho
	}

	x := make(dynamo.State, n)
	u := dynamo.Control{1}
	if impulse {
		x[0] = 1
		u[0] = 0
	}
	rk := integrators.NewRK4()

	t := 0.0
	for k, target := range times {
		for t < target {
			h := math.Min(hMax, target-t)
			x, err = rk.Step(r, x, u, t, h)
			if err != nil {
				return nil, err
			}
			if h == target-t {
				t = target
			} else {
				t += h
			}
		}
		out[k] = r.output(x, u[0])
	}
	return out, nil
}
