package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"nonlinear": {
		"equilibrium": preset(func(c *Config) {
			c.Duration = 1
		}),
		"offset": preset(func(c *Config) {
			c.Duration = 2
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.035}
		}),
		"pid": preset(func(c *Config) {
			c.Controller = "pid"
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.01}
		}),
	},
	"linear": {
		"offset": preset(func(c *Config) {
			c.Model, c.Integrator = "linear", "rk45"
			c.Duration = 2
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.035}
		}),
		"pid": preset(func(c *Config) {
			c.Model, c.Integrator, c.Controller = "linear", "rk45", "pid"
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.1}
		}),
		"pid-bias": preset(func(c *Config) {
			c.Model, c.Integrator, c.Controller = "linear", "rk45", "pid"
			c.Gains.Kp, c.Gains.Kd, c.Gains.Ki = 70, 5.5, 450
			c.Bias = 2
			c.Duration = 2
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.1}
		}),
		"pid-lag": preset(func(c *Config) {
			c.Model, c.Integrator, c.Controller = "linear", "rk45", "pid"
			c.SensorLag = 0.03
			c.InitState = InitStateConfig{Mode: StartOffset, X1: 0.1}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
