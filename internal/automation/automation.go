package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/magball/internal/config"
	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. It starts from Preset (or
// the default configuration) and overrides whatever is set.
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Model      string             `yaml:"model"`
	Integrator string             `yaml:"integrator"`
	Controller string             `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	Gains      *control.Gains     `yaml:"gains"`
	Offset     []float64          `yaml:"offset"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// StepResult pairs a finished step with its resolved configuration.
type StepResult struct {
	Name   string
	Config experiment.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve turns the step into a full configuration.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		model := s.Model
		if model == "" {
			model = cfg.Model
		}
		cfg = config.GetPreset(model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", model, s.Preset)
		}
	}
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Controller != "" {
		cfg.Controller = s.Controller
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Gains != nil {
		cfg.Gains = *s.Gains
	}
	if len(s.Offset) > 0 {
		if len(s.Offset) != 3 {
			return nil, fmt.Errorf("offset needs 3 entries, got %d", len(s.Offset))
		}
		cfg.InitState = config.InitStateConfig{Mode: config.StartOffset, X1: s.Offset[0], X2: s.Offset[1], I: s.Offset[2]}
	}
	if len(s.Params) > 0 {
		p := cfg.Params.Physics()
		for k, v := range s.Params {
			if err := p.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		cfg.Params = config.FromParams(p)
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		slog.Info("running scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "model", cfg.Model, "controller", cfg.Controller)

		expCfg, err := cfg.Experiment()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(expCfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		results = append(results, StepResult{Name: name, Config: expCfg, Result: result})
	}

	return results, nil
}

// ParameterSweep reruns one experiment across a range of a physical
// parameter.
type ParameterSweep struct {
	Base      experiment.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	Equilibrium physics.Equilibrium
	FinalState  []float64
	// MaxDeviation is the largest |x1 - setpoint| over the run.
	MaxDeviation float64
	Err          error
}

// RunSweep executes a parameter sweep. A failing point is recorded in its
// SweepResult and does not stop the sweep. Nonlinear runs are re-centred on
// each point's own equilibrium: setpoint x1_e and bias v_e.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if _, ok := sweep.Base.Params.GetParams()[sweep.ParamName]; !ok {
		return nil, fmt.Errorf("unknown param: %s", sweep.ParamName)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Base
		_ = cfg.Params.SetParam(sweep.ParamName, paramVal)

		sr := SweepResult{ParamValue: paramVal}
		sr.Equilibrium, sr.Err = physics.Solve(cfg.Params)
		if sr.Err == nil && cfg.Model == "nonlinear" {
			cfg.Setpoint = sr.Equilibrium.X1
			cfg.Bias = sr.Equilibrium.V
		}

		if sr.Err == nil {
			exp := experiment.New(cfg)
			if sr.Err = exp.Setup(registry); sr.Err == nil {
				var result *sim.Result
				result, sr.Err = exp.Run(ctx)
				if sr.Err == nil {
					sr.FinalState = result.Final()
					for _, x := range result.Component(0) {
						sr.MaxDeviation = math.Max(sr.MaxDeviation, math.Abs(x-cfg.Setpoint))
					}
				}
			}
		}

		results = append(results, sr)
		slog.Debug("sweep point", "param", sweep.ParamName, "value", paramVal, "error", sr.Err)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base experiment.Config
	// Perturbation is the half-width of the uniform offset added to each
	// initial state coordinate.
	Perturbation [3]float64
	// Band is the final |x1 - setpoint| a trial must reach to count as held.
	Band      float64
	NumTrials int
	Seed      int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	InitState  []float64
	FinalState []float64
	Stable     bool
	Err        error
}

// RunMonteCarlo executes multiple trials with random initial offsets from
// the base configuration's starting point.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	eq, err := physics.Solve(cfg.Base.Params)
	if err != nil {
		return nil, err
	}
	base := cfg.Base.InitState
	if len(base) == 0 {
		base = []float64{0, 0, 0}
		if cfg.Base.Model == "nonlinear" {
			base = eq.State()
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		initState := make([]float64, len(base))
		for i, v := range base {
			initState[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation[i]
		}

		expCfg := cfg.Base
		expCfg.InitState = initState
		expCfg.Seed = rng.Int63()
		mr := MonteCarloResult{TrialID: trial, InitState: initState}

		exp := experiment.New(expCfg)
		if mr.Err = exp.Setup(registry); mr.Err == nil {
			var result *sim.Result
			if result, mr.Err = exp.Run(ctx); mr.Err == nil {
				mr.FinalState = result.Final()
				mr.Stable = math.Abs(mr.FinalState[0]-expCfg.Setpoint) <= cfg.Band
			}
		}
		results = append(results, mr)

		if (trial+1)%10 == 0 {
			slog.Info("monte carlo progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
