package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/integrators"
	"github.com/san-kum/magball/internal/metrics"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

// ModelFactory builds a plant. init is absolute for the nonlinear model and
// a perturbation for the linear one; an empty init starts at equilibrium.
type ModelFactory func(p physics.Params, init []float64, integ dynamo.Integrator) (sim.Plant, error)

// ControllerFactory builds a controller from its gains.
type ControllerFactory func(g control.Gains) (sim.Controller, error)

type Registry struct {
	models      map[string]ModelFactory
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelFactory),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.models["nonlinear"] = func(p physics.Params, init []float64, integ dynamo.Integrator) (sim.Plant, error) {
		opts := []physics.Option{physics.WithIntegrator(integ)}
		if len(init) > 0 {
			if len(init) != 3 {
				return nil, fmt.Errorf("%w: initial state needs 3 entries, got %d", dynamo.ErrDimensionMismatch, len(init))
			}
			opts = append(opts, physics.WithState(init[0], init[1], init[2]))
		}
		return physics.NewNonlinear(p, opts...)
	}
	r.models["linear"] = func(p physics.Params, init []float64, integ dynamo.Integrator) (sim.Plant, error) {
		opts := []physics.Option{physics.WithIntegrator(integ)}
		if len(init) > 0 {
			if len(init) != 3 {
				return nil, fmt.Errorf("%w: initial state needs 3 entries, got %d", dynamo.ErrDimensionMismatch, len(init))
			}
			opts = append(opts, physics.WithPerturbation(init[0], init[1], init[2]))
		}
		return physics.NewLinear(p, opts...)
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["radau"] = func() dynamo.Integrator { return integrators.NewRadau() }

	r.controllers["none"] = func(control.Gains) (sim.Controller, error) {
		return control.Constant{}, nil
	}
	r.controllers["p"] = func(g control.Gains) (sim.Controller, error) {
		return control.NewP(g.Kp, g.Ts)
	}
	r.controllers["pd"] = func(g control.Gains) (sim.Controller, error) {
		return control.NewPD(g.Kp, g.Kd, g.Ts)
	}
	r.controllers["pid"] = func(g control.Gains) (sim.Controller, error) {
		return control.NewPID(g.Kp, g.Kd, g.Ki, g.Ts)
	}

	return r
}

func (r *Registry) GetModel(name string, p physics.Params, init []float64, integ dynamo.Integrator) (sim.Plant, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(p, init, integ)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, g control.Gains) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(g)
}

func (r *Registry) ListModels() []string      { return sortedKeys(r.models) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

// DefaultMetrics watches the measured coordinate with a 1 mm band.
func (r *Registry) DefaultMetrics(output int, setpoint float64) []dynamo.Metric {
	return metrics.Default(output, setpoint, 1e-3)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
