package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

type Options struct {
	MaxStep   float64
	MinStep   float64
	Tolerance float64
	MaxSteps  int
	// Adaptive enables error control when the integrator supports it.
	Adaptive bool
}

func DefaultOptions() Options {
	return Options{
		MaxStep:   1e-3,
		MinStep:   1e-12,
		Tolerance: 1e-6,
		MaxSteps:  1_000_000,
		Adaptive:  true,
	}
}

func (o Options) validate() error {
	if o.MaxStep <= 0 || o.MinStep <= 0 || o.MinStep > o.MaxStep {
		return fmt.Errorf("%w: step limits [%g, %g]", dynamo.ErrParameterBounds, o.MinStep, o.MaxStep)
	}
	if o.Adaptive && o.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrParameterBounds)
	}
	if o.MaxSteps <= 0 {
		return fmt.Errorf("%w: step budget must be positive", dynamo.ErrParameterBounds)
	}
	return nil
}

// Propagate integrates dyn from x0 over [0, span] under a constant input.
// With numPoints > 1 the trajectory holds numPoints evenly spaced samples
// including both ends; with numPoints == 0 it holds every accepted step.
//
// Every candidate state is checked for finiteness and, when dyn implements
// dynamo.Bounded, for domain membership. A rejected step is halved; once the
// step falls below opts.MinStep the call fails with a *dynamo.SimulationError
// wrapping either the domain error that caused the rejections or
// dynamo.ErrIntegration. A collapse with no rejected candidate outside the
// domain still counts as a domain error when the current rates carry the
// state out of it, as they do on the approach to a singular boundary.
func Propagate(dyn dynamo.System, integ dynamo.Integrator, x0 dynamo.State, u dynamo.Control, span float64, numPoints int, opts Options) (*Trajectory, error) {
	if !(span > 0) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("%w: span must be positive and finite, got %g", dynamo.ErrParameterBounds, span)
	}
	if numPoints < 0 || numPoints == 1 {
		return nil, fmt.Errorf("%w: numPoints must be 0 or at least 2, got %d", dynamo.ErrParameterBounds, numPoints)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if err := checkState(dyn, x0); err != nil {
		return nil, &dynamo.SimulationError{Step: 0, Time: 0, State: x0.Clone(), Wrapped: err}
	}

	adaptive, _ := integ.(dynamo.AdaptiveIntegrator)
	if !opts.Adaptive {
		adaptive = nil
	}

	traj := &Trajectory{}
	capacity := numPoints
	if capacity == 0 {
		capacity = int(math.Min(span/opts.MaxStep, 1e5)) + 2
	}
	traj.Times = make([]float64, 0, capacity)
	traj.States = make([]dynamo.State, 0, capacity)
	traj.append(0, x0)

	target := func(k int) float64 {
		if k >= numPoints-1 {
			return span
		}
		return span * float64(k) / float64(numPoints-1)
	}

	x := x0.Clone()
	t := 0.0
	h := math.Min(opts.MaxStep, span)
	sample := 1
	var lastErr, domainErr error

	for steps := 0; t < span; steps++ {
		if steps >= opts.MaxSteps {
			return nil, &dynamo.SimulationError{
				Step: steps, Time: t, State: x.Clone(),
				Wrapped: fmt.Errorf("%w: step budget of %d exhausted", dynamo.ErrIntegration, opts.MaxSteps),
			}
		}

		stop := span
		if numPoints > 0 {
			stop = target(sample)
		}
		hTry := math.Min(h, stop-t)
		last := hTry >= stop-t

		var (
			next  dynamo.State
			ratio float64
			hNext = hTry
			err   error
		)
		if adaptive != nil {
			next, ratio, hNext, err = adaptive.StepAdaptive(dyn, x, u, t, hTry, opts.Tolerance)
		} else {
			next, err = integ.Step(dyn, x, u, t, hTry)
		}
		if err == nil {
			err = checkState(dyn, next)
		}

		if err != nil {
			if !errors.Is(err, dynamo.ErrDomain) && !errors.Is(err, dynamo.ErrIntegration) && !errors.Is(err, dynamo.ErrInvalidState) {
				return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: err}
			}
			lastErr = err
			if errors.Is(err, dynamo.ErrDomain) {
				domainErr = err
			}
			h = hTry / 2
			if h < opts.MinStep {
				if domainErr == nil {
					domainErr = escapes(dyn, x, u, t, hTry)
				}
				return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: failure(domainErr, lastErr)}
			}
			continue
		}

		if adaptive != nil && ratio > 1 {
			h = math.Min(hNext, hTry/2)
			if h < opts.MinStep {
				if domainErr == nil {
					domainErr = escapes(dyn, x, u, t, hTry)
				}
				return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: failure(domainErr, lastErr)}
			}
			continue
		}

		x = next
		if last {
			t = stop
		} else {
			t += hTry
		}
		domainErr, lastErr = nil, nil

		switch {
		case numPoints == 0:
			traj.append(t, x)
		case last:
			traj.append(t, x)
			sample++
		}

		if adaptive != nil {
			h = math.Min(math.Max(hNext, opts.MinStep), opts.MaxStep)
		} else {
			h = opts.MaxStep
		}
	}

	return traj, nil
}

func checkState(dyn dynamo.System, x dynamo.State) error {
	if b, ok := dyn.(dynamo.Bounded); ok {
		if err := b.CheckState(x); err != nil {
			return err
		}
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

// escapeSteps bounds the forward-Euler walk in escapes.
const escapeSteps = 10_000

// escapes follows forward-Euler steps of size h from x and returns the domain
// error of the first state that leaves the domain of a dynamo.Bounded system.
// It returns nil when dyn is unbounded, when the rates stop being finite, or
// when the walk stays inside for escapeSteps steps.
func escapes(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, h float64) error {
	b, ok := dyn.(dynamo.Bounded)
	if !ok {
		return nil
	}
	y := x.Clone()
	for k := 0; k < escapeSteps; k++ {
		d := dyn.Derive(y, u, t)
		if !d.IsValid() {
			return nil
		}
		for i := range y {
			y[i] += h * d[i]
		}
		t += h
		if !y.IsValid() {
			return nil
		}
		if err := b.CheckState(y); err != nil {
			if errors.Is(err, dynamo.ErrDomain) {
				return err
			}
			return nil
		}
	}
	return nil
}

func failure(domainErr, lastErr error) error {
	if domainErr != nil {
		return domainErr
	}
	if lastErr == nil {
		return fmt.Errorf("%w: %w", dynamo.ErrIntegration, dynamo.ErrStepTooSmall)
	}
	return fmt.Errorf("%w: %w: %v", dynamo.ErrIntegration, dynamo.ErrStepTooSmall, lastErr)
}
