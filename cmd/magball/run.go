package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/magball/internal/automation"
	"github.com/san-kum/magball/internal/config"
	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/export"
	"github.com/san-kum/magball/internal/optim"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/routh"
	"github.com/san-kum/magball/internal/sim"
	"github.com/san-kum/magball/internal/storage"
	"github.com/san-kum/magball/internal/tui"
)

func modelArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// positionOffset converts a stored x1 into an absolute position.
func positionOffset(model string, p physics.Params) float64 {
	if model != "linear" {
		return 0
	}
	eq, err := physics.Solve(p)
	if err != nil {
		return 0
	}
	return eq.X1
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
}

func saveRun(cfg experiment.Config, result *sim.Result) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(cfg, result)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modelArg(args))
	if err != nil {
		return err
	}
	expCfg, err := cfg.Experiment()
	if err != nil {
		return err
	}

	exp := experiment.New(expCfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	title := fmt.Sprintf("%s / %s / %s", expCfg.Model, expCfg.Controller, expCfg.Integrator)
	if live {
		r := tui.NewLiveRenderer(os.Stdout, title, expCfg.Params, positionOffset(expCfg.Model, expCfg.Params), frameRate)
		r.Start()
		defer r.Stop()
		exp.GetSimulator().AddObserver(r)
	}

	ctx, cancel := signalContext()
	defer cancel()

	slog.Info("running simulation", "model", expCfg.Model, "integrator", expCfg.Integrator, "controller", expCfg.Controller, "duration", expCfg.Duration)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d\n", result.StepsTaken)
	fmt.Printf("final: x1=%.6g x2=%.6g i=%.6g\n", final[0], final[1], final[2])
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	if !noSave {
		runID, err := saveRun(expCfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}

	if outFile != "" {
		p, err := export.TrajectoryPlot(result, 0, title)
		if err != nil {
			return err
		}
		if err := export.Save(p, outFile, 8, 4); err != nil {
			return err
		}
		slog.Info("plot written", "path", outFile)
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing integrators for %s (ts=%g, duration=%gs)\n\n", cfg.Model, cfg.Gains.Ts, cfg.Duration)
	fmt.Printf("%-12s  %-14s  %-14s  %-12s\n", "integrator", "final_x1", "max_dx1", "time_ms")
	fmt.Println(strings.Repeat("-", 58))

	var reference []float64
	for _, name := range args {
		cfg.Integrator = name
		expCfg, err := cfg.Experiment()
		if err != nil {
			return err
		}
		exp := experiment.New(expCfg)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		x1 := result.Component(0)
		diff := 0.0
		if reference == nil {
			reference = x1
		} else {
			for i, n := 0, min(len(x1), len(reference)); i < n; i++ {
				diff = math.Max(diff, math.Abs(x1[i]-reference[i]))
			}
		}
		fmt.Printf("%-12s  %14.8f  %14.2e  %12.2f\n", name, x1[len(x1)-1], diff, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modelArg(args))
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("controller") {
		cfg.Controller = "pid"
	}
	base, err := cfg.Experiment()
	if err != nil {
		return err
	}

	lin, err := physics.NewLinear(base.Params)
	if err != nil {
		return err
	}
	filter, err := routh.ParametricPID(lin.TransferFunction(), cfg.Sensor())
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*sim.Simulator, error) {
		c := base
		c.Gains.Kp, c.Gains.Kd, c.Gains.Ki = params[optim.Kp], params[optim.Kd], params[optim.Ki]
		exp := experiment.New(c)
		if err := exp.Setup(registry); err != nil {
			return nil, err
		}
		return exp.GetSimulator(), nil
	}

	gs := optim.NewGridSearch(
		[]string{optim.Kp, optim.Kd, optim.Ki},
		[][]float64{kpGrid, kdGrid, kiGrid},
	).WithStabilityFilter(filter)

	ctx, cancel := signalContext()
	defer cancel()

	report, err := gs.Search(ctx, build, base.SimConfig(), metric)
	if err != nil {
		return err
	}
	fmt.Printf("grid points: %d evaluated, %d rejected by Routh-Hurwitz, %d failed\n",
		report.Evaluated, report.Rejected, report.Failed)
	fmt.Printf("best: kp=%g kd=%g ki=%g  %s=%.6g\n",
		report.Best[optim.Kp], report.Best[optim.Kd], report.Best[optim.Ki], metric, report.Score)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry())
	for _, r := range results {
		final := r.Result.Final()
		fmt.Printf("%s: %s/%s x1(end)=%.6g\n", r.Name, r.Config.Model, r.Config.Controller, final[0])
		printMetrics(r.Result.Metrics)
		if !noSave {
			runID, serr := saveRun(r.Config, r.Result)
			if serr != nil {
				return serr
			}
			fmt.Printf("  run id: %s\n", runID)
		}
	}
	return err
}

// closedLoopConfig resolves a run configuration whose controller defaults
// to the command's --controller default.
func closedLoopConfig(cmd *cobra.Command, model string) (experiment.Config, error) {
	cfg, err := resolveConfig(cmd, model)
	if err != nil {
		return experiment.Config{}, err
	}
	if !cmd.Flags().Changed("controller") && cfg.Controller == "none" {
		cfg.Controller = cmd.Flags().Lookup("controller").DefValue
	}
	return cfg.Experiment()
}

func runParamSweep(cmd *cobra.Command, args []string) error {
	lo, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}
	base, err := closedLoopConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: args[1],
		ParamMin:  lo,
		ParamMax:  hi,
		NumSteps:  steps,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tX1_E\tV_E\tFINAL_X1\tMAX_DEV\n", strings.ToUpper(args[1]))
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%.6g\terror: %v\t\t\t\n", r.ParamValue, r.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\t%.6f\t%.4f\t%.6g\t%.3e\n",
			r.ParamValue, r.Equilibrium.X1, r.Equilibrium.V, r.FinalState[0], r.MaxDeviation)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := closedLoopConfig(cmd, modelArg(args))
	if err != nil {
		return err
	}
	var perturb [3]float64
	copy(perturb[:], spread)

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: perturb,
		Band:         band,
		NumTrials:    trials,
		Seed:         seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	held, lost := automation.MonteCarloStats(results)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Debug("trial failed", "trial", r.TrialID, "init", r.InitState, "error", r.Err)
		}
	}
	fmt.Printf("trials: %d  held: %d  lost: %d (of which %d failed)\n", len(results), held, lost, failed)
	if len(results) > 0 {
		fmt.Printf("held fraction: %.1f%%\n", 100*float64(held)/float64(len(results)))
	}
	return nil
}

// loopConfig resolves a configuration for the transfer-function commands,
// which need a controller with a transfer function.
func loopConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := resolveConfig(cmd, "linear")
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("controller") && cfg.Controller == "none" {
		cfg.Controller = cmd.Flags().Lookup("controller").DefValue
	}
	return cfg, nil
}
