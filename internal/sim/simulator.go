package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

// Plant is a model advanced in fixed sample intervals under a held voltage.
type Plant interface {
	Propagate(voltage, dt float64, numPoints int) (*Trajectory, error)
	State() dynamo.State
}

// Controller turns a measurement into the next actuation.
type Controller interface {
	Control(measurement, setpoint float64) float64
}

type Config struct {
	Ts       float64
	Duration float64
	Setpoint float64
	// Bias is a feedforward voltage added to every controller output.
	Bias float64
	// Output selects the measured state coordinate.
	Output int
	// Points is the number of samples per tick handed to Propagate.
	Points int
	// SensorLag is the time constant of a first-order 1/(T s + 1) filter
	// between the plant output and the controller. Zero measures directly.
	SensorLag float64
}

func DefaultConfig() Config {
	return Config{
		Ts:       1e-3,
		Duration: 1.0,
		Points:   2,
	}
}

type Result struct {
	Times    []float64
	States   []dynamo.State
	Controls []float64
	// Measurements holds what the controller read at each tick.
	Measurements []float64
	Metrics      map[string]float64
	StepsTaken   int
}

// Final returns the last recorded state.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Component extracts one state coordinate over time.
func (r *Result) Component(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		out[i] = s[idx]
	}
	return out
}

// Simulator runs a sampled-data loop: at every tick the controller reads the
// plant, and the plant is propagated for one period under the held output.
type Simulator struct {
	plant      Plant
	controller Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(plant Plant, controller Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	points := cfg.Points
	if points == 0 {
		points = 2
	}

	ticks := int(math.Round(cfg.Duration / cfg.Ts))
	result := &Result{
		Times:        make([]float64, 0, ticks+1),
		States:       make([]dynamo.State, 0, ticks+1),
		Controls:     make([]float64, 0, ticks),
		Measurements: make([]float64, 0, ticks),
		Metrics:      make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := s.plant.State()
	result.Times = append(result.Times, 0)
	result.States = append(result.States, x)

	// The filter starts settled on the initial output and is advanced with
	// its exact discretization over each period.
	y := x[cfg.Output]
	decay := 0.0
	if cfg.SensorLag > 0 {
		decay = math.Exp(-cfg.Ts / cfg.SensorLag)
	}

	for k := 0; k < ticks; k++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		v := s.controller.Control(y, cfg.Setpoint) + cfg.Bias
		u := dynamo.Control{v}
		t := float64(k) * cfg.Ts

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		if _, err := s.plant.Propagate(v, cfg.Ts, points); err != nil {
			return result, fmt.Errorf("tick %d: %w", k, err)
		}

		result.Measurements = append(result.Measurements, y)
		x = s.plant.State()
		y = decay*y + (1-decay)*x[cfg.Output]
		result.StepsTaken++
		result.Times = append(result.Times, float64(k+1)*cfg.Ts)
		result.States = append(result.States, x)
		result.Controls = append(result.Controls, v)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Ts > 0) {
		return fmt.Errorf("%w: ts must be positive, got %f", dynamo.ErrParameterBounds, cfg.Ts)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if cfg.Points < 0 || cfg.Points == 1 {
		return fmt.Errorf("%w: points per tick must be 0 or at least 2, got %d", dynamo.ErrParameterBounds, cfg.Points)
	}
	if !(cfg.SensorLag >= 0) || math.IsInf(cfg.SensorLag, 0) {
		return fmt.Errorf("%w: sensor lag must be non-negative and finite, got %f", dynamo.ErrParameterBounds, cfg.SensorLag)
	}
	if dim := len(s.plant.State()); cfg.Output < 0 || cfg.Output >= dim {
		return fmt.Errorf("%w: output index %d for a %d-state plant", dynamo.ErrDimensionMismatch, cfg.Output, dim)
	}
	return nil
}
