package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

type Config struct {
	Model      string
	Integrator string
	Controller string
	Params     physics.Params
	Gains      control.Gains
	InitState  []float64
	Duration   float64
	Setpoint   float64
	Bias       float64
	Points     int
	// SensorLag is the measurement filter time constant; zero measures
	// the output directly.
	SensorLag float64
	// Disturbance is the amplitude in volts of a smooth random input
	// disturbance; zero disables it.
	Disturbance      float64
	DisturbanceScale float64
	Seed             int64
}

// SimConfig is the closed-loop configuration derived from c.
func (c Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Ts = c.Gains.Ts
	cfg.Duration = c.Duration
	cfg.Setpoint = c.Setpoint
	cfg.Bias = c.Bias
	cfg.SensorLag = c.SensorLag
	if c.Points > 0 {
		cfg.Points = c.Points
	}
	return cfg
}

type Experiment struct {
	cfg       Config
	plant     sim.Plant
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the plant, controller and default metrics from the registry.
func (e *Experiment) Setup(r *Registry) error {
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	plant, err := r.GetModel(e.cfg.Model, e.cfg.Params, e.cfg.InitState, integ)
	if err != nil {
		return fmt.Errorf("model %s: %w", e.cfg.Model, err)
	}
	ctrl, err := r.GetController(e.cfg.Controller, e.cfg.Gains)
	if err != nil {
		return fmt.Errorf("controller %s: %w", e.cfg.Controller, err)
	}

	if e.cfg.Disturbance > 0 {
		plant = sim.NewDisturbed(plant, e.cfg.Disturbance, e.cfg.DisturbanceScale, e.cfg.Seed)
	}
	e.plant = plant
	e.simulator = sim.New(plant, ctrl)
	for _, m := range r.DefaultMetrics(0, e.cfg.Setpoint) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	slog.Debug("experiment started",
		"model", e.cfg.Model,
		"integrator", e.cfg.Integrator,
		"controller", e.cfg.Controller,
		"gains", e.cfg.Gains.String(),
		"sensor_lag", e.cfg.SensorLag,
	)
	result, err := e.simulator.Run(ctx, e.cfg.SimConfig())
	if err != nil {
		slog.Warn("experiment failed", "model", e.cfg.Model, "error", err)
		return result, err
	}
	slog.Debug("experiment finished",
		"ticks", result.StepsTaken,
		"elapsed", time.Since(start),
		"final", result.Final(),
	)
	return result, nil
}

func (e *Experiment) Config() Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Plant returns the model driven by the simulator.
func (e *Experiment) Plant() sim.Plant { return e.plant }
