package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/tf"
)

const (
	DefaultTs       = 0.001
	DefaultDuration = 1.0
	DefaultKp       = 2.0
	DefaultKd       = 1.9
	DefaultKi       = 500.0
	DefaultPoints   = 2
)

// Initial state modes.
const (
	StartEquilibrium = "equilibrium"
	StartOffset      = "offset"
	StartAbsolute    = "absolute"
)

type Config struct {
	Model       string            `yaml:"model"`
	Integrator  string            `yaml:"integrator"`
	Controller  string            `yaml:"controller"`
	Duration    float64           `yaml:"duration"`
	Setpoint    float64           `yaml:"setpoint"`
	Bias        float64           `yaml:"bias"`
	Points      int               `yaml:"points"`
	SensorLag   float64           `yaml:"sensor_lag"`
	Params      ParamsConfig      `yaml:"params"`
	InitState   InitStateConfig   `yaml:"init_state"`
	Gains       control.Gains     `yaml:"gains"`
	Disturbance DisturbanceConfig `yaml:"disturbance"`
	// HoldEquilibrium adds x1_e to the setpoint and v_e to the bias of a
	// nonlinear run so both can be given as deviations.
	HoldEquilibrium bool `yaml:"hold_equilibrium"`
}

// ParamsConfig is physics.Params as written in a file; the slope is in
// degrees.
type ParamsConfig struct {
	Mass       float64 `yaml:"mass"`
	Gravity    float64 `yaml:"gravity"`
	PhiDeg     float64 `yaml:"phi_deg"`
	CConst     float64 `yaml:"c_const"`
	Delta      float64 `yaml:"delta"`
	KSpring    float64 `yaml:"k_spring"`
	DLength    float64 `yaml:"d_length"`
	BDamper    float64 `yaml:"b_damper"`
	Ell0       float64 `yaml:"ell_0"`
	Ell1       float64 `yaml:"ell_1"`
	Alpha      float64 `yaml:"alpha"`
	Resistance float64 `yaml:"resistance"`
}

// DisturbanceConfig describes a smooth random voltage added to the plant
// input.
type DisturbanceConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"`
	Seed      int64   `yaml:"seed"`
}

type InitStateConfig struct {
	Mode string  `yaml:"mode"`
	X1   float64 `yaml:"x1"`
	X2   float64 `yaml:"x2"`
	I    float64 `yaml:"i"`
}

func FromParams(p physics.Params) ParamsConfig {
	return ParamsConfig{
		Mass:       p.Mass,
		Gravity:    p.Gravity,
		PhiDeg:     p.Phi * 180 / math.Pi,
		CConst:     p.CConst,
		Delta:      p.Delta,
		KSpring:    p.KSpring,
		DLength:    p.DLength,
		BDamper:    p.BDamper,
		Ell0:       p.Ell0,
		Ell1:       p.Ell1,
		Alpha:      p.Alpha,
		Resistance: p.Resistance,
	}
}

func (c ParamsConfig) Physics() physics.Params {
	return physics.Params{
		Mass:       c.Mass,
		Gravity:    c.Gravity,
		Phi:        c.PhiDeg * math.Pi / 180,
		CConst:     c.CConst,
		Delta:      c.Delta,
		KSpring:    c.KSpring,
		DLength:    c.DLength,
		BDamper:    c.BDamper,
		Ell0:       c.Ell0,
		Ell1:       c.Ell1,
		Alpha:      c.Alpha,
		Resistance: c.Resistance,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "nonlinear",
		Integrator: "radau",
		Controller: "none",
		Duration:   DefaultDuration,
		Points:     DefaultPoints,
		Params:     FromParams(physics.DefaultParams()),
		InitState:  InitStateConfig{Mode: StartEquilibrium},
		Gains: control.Gains{
			Kp: DefaultKp,
			Kd: DefaultKd,
			Ki: DefaultKi,
			Ts: DefaultTs,
		},
		HoldEquilibrium: true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sensor is the measurement path: a first-order lag when SensorLag is set,
// unity otherwise.
func (c *Config) Sensor() tf.System {
	if c.SensorLag > 0 {
		return tf.Lag(c.SensorLag)
	}
	return tf.Unity()
}

// GetInitState resolves the initial state for the configured model. A nil
// result means "start at equilibrium".
func (c *Config) GetInitState(eq physics.Equilibrium) ([]float64, error) {
	s := c.InitState
	switch s.Mode {
	case "", StartEquilibrium:
		return nil, nil
	case StartOffset:
		if c.Model == "linear" {
			return []float64{s.X1, s.X2, s.I}, nil
		}
		return []float64{eq.X1 + s.X1, eq.X2 + s.X2, eq.I + s.I}, nil
	case StartAbsolute:
		if c.Model == "linear" {
			return []float64{s.X1 - eq.X1, s.X2 - eq.X2, s.I - eq.I}, nil
		}
		return []float64{s.X1, s.X2, s.I}, nil
	default:
		return nil, fmt.Errorf("unknown init_state mode: %s", s.Mode)
	}
}

// Experiment resolves the file-level settings into a runnable configuration.
func (c *Config) Experiment() (experiment.Config, error) {
	p := c.Params.Physics()
	if err := p.Validate(); err != nil {
		return experiment.Config{}, err
	}
	eq, err := physics.Solve(p)
	if err != nil {
		return experiment.Config{}, err
	}
	init, err := c.GetInitState(eq)
	if err != nil {
		return experiment.Config{}, err
	}

	setpoint, bias := c.Setpoint, c.Bias
	if c.HoldEquilibrium && c.Model == "nonlinear" {
		setpoint += eq.X1
		bias += eq.V
	}
	return experiment.Config{
		Model:      c.Model,
		Integrator: c.Integrator,
		Controller: c.Controller,
		Params:     p,
		Gains:      c.Gains,
		InitState:  init,
		Duration:   c.Duration,
		Setpoint:   setpoint,
		Bias:       bias,
		Points:     c.Points,
		SensorLag:  c.SensorLag,

		Disturbance:      c.Disturbance.Amplitude,
		DisturbanceScale: c.Disturbance.Scale,
		Seed:             c.Disturbance.Seed,
	}, nil
}
