package integrators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/magball/internal/dynamo"
)

// Two-stage Radau IIA tableau (order 3, L-stable, stiffly accurate).
var (
	radauC = [2]float64{1.0 / 3.0, 1.0}
	radauA = [2][2]float64{
		{5.0 / 12.0, -1.0 / 12.0},
		{3.0 / 4.0, 1.0 / 4.0},
	}
)

// Radau is an implicit two-stage Radau IIA integrator. Stage equations are
// solved by simplified Newton iteration with a finite-difference Jacobian
// frozen at the start of the step.
type Radau struct {
	maxIter   int
	newtonTol float64
	doubling  *StepDoubling
}

func NewRadau() *Radau {
	r := &Radau{maxIter: 12, newtonTol: 1e-10}
	r.doubling = NewStepDoubling(r, 3)
	return r
}

func (r *Radau) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	n := len(x)
	bounded, _ := dyn.(dynamo.Bounded)

	f0 := dyn.Derive(x, u, t)
	if !f0.IsValid() {
		if bounded != nil {
			if err := bounded.CheckState(x); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: non-finite derivative at step start", dynamo.ErrIntegration)
	}
	jac := finiteJacobian(dyn, x, u, t, f0)

	m := mat.NewDense(2*n, 2*n, nil)
	for k := 0; k < 2; k++ {
		for l := 0; l < 2; l++ {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					v := -dt * radauA[k][l] * jac.At(i, j)
					if k == l && i == j {
						v += 1
					}
					m.Set(k*n+i, l*n+j, v)
				}
			}
		}
	}
	var lu mat.LU
	lu.Factorize(m)

	// Z holds the stage increments; start from the explicit guess c_k*dt*f0.
	z := make([]float64, 2*n)
	for k := 0; k < 2; k++ {
		for i := 0; i < n; i++ {
			z[k*n+i] = radauC[k] * dt * f0[i]
		}
	}

	stage := make(dynamo.State, n)
	rhs := mat.NewVecDense(2*n, nil)
	var dz mat.VecDense
	for iter := 0; iter < r.maxIter; iter++ {
		var fs [2]dynamo.State
		for k := 0; k < 2; k++ {
			for i := 0; i < n; i++ {
				stage[i] = x[i] + z[k*n+i]
			}
			if bounded != nil {
				if err := bounded.CheckState(stage); err != nil {
					return nil, err
				}
			}
			fs[k] = dyn.Derive(stage, u, t+radauC[k]*dt)
			if !fs[k].IsValid() {
				return nil, fmt.Errorf("%w: non-finite stage derivative", dynamo.ErrIntegration)
			}
		}

		for k := 0; k < 2; k++ {
			for i := 0; i < n; i++ {
				g := z[k*n+i] - dt*(radauA[k][0]*fs[0][i]+radauA[k][1]*fs[1][i])
				rhs.SetVec(k*n+i, -g)
			}
		}
		if err := lu.SolveVecTo(&dz, false, rhs); err != nil {
			return nil, fmt.Errorf("%w: singular newton matrix: %v", dynamo.ErrIntegration, err)
		}

		worst := 0.0
		for idx := range z {
			d := dz.AtVec(idx)
			z[idx] += d
			scale := r.newtonTol * (1 + math.Abs(x[idx%n]))
			worst = math.Max(worst, math.Abs(d)/scale)
		}
		if worst <= 1 {
			result := make(dynamo.State, n)
			for i := 0; i < n; i++ {
				result[i] = x[i] + z[n+i]
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("%w: radau newton iteration did not converge", dynamo.ErrIntegration)
}

func (r *Radau) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	return r.doubling.StepAdaptive(dyn, x, u, t, dt, tol)
}

func finiteJacobian(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, f0 dynamo.State) *mat.Dense {
	n := len(x)
	jac := mat.NewDense(n, n, nil)
	xp := x.Clone()
	for j := 0; j < n; j++ {
		h := math.Sqrt(2.2e-16) * math.Max(math.Abs(x[j]), 1)
		xp[j] = x[j] + h
		fp := dyn.Derive(xp, u, t)
		xp[j] = x[j]
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fp[i]-f0[i])/h)
		}
	}
	return jac
}
