package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/magball/internal/config"
	"github.com/san-kum/magball/internal/physics"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	integrator string
	controller string
	kp         float64
	kd         float64
	ki         float64
	ts         float64
	duration   float64
	setpoint   float64
	bias       float64
	offset     float64
	sensorLag  float64
	points     int
	paramSets  []string
	outFile    string
	live       bool
	frameRate  int
	noSave     bool
	// analysis commands
	closed   bool
	impulse  bool
	symbolic bool
	omegaLo  float64
	omegaHi  float64
	// sweep, response and bode keep their own counts so each command gets
	// its own defaults.
	sweepPoints int
	respTime    float64
	respPoints  int
	bodePoints  int
	metric      string
	kpGrid      []float64
	kdGrid      []float64
	kiGrid      []float64
	theme       string
	disturb     float64
	disturbT    float64
	rankBy      string
	limit       int
	reindex     bool
	// automation
	steps  int
	trials int
	seed   int64
	spread []float64
	band   float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "magball",
		Short:         "ball, spring and electromagnet on an incline: models, control and stability",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".magball", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium",
		Short: "solve the operating point and its linearization",
		Args:  cobra.NoArgs,
		RunE:  showEquilibrium,
	}
	addParamFlags(equilibriumCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "equilibrium voltage across ball positions",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 200, "number of positions")
	sweepCmd.Flags().StringVarP(&outFile, "out", "o", "", "write a plot (.svg, .png, .pdf)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a closed-loop simulation (nonlinear or linear)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd, "none")
	runCmd.Flags().BoolVar(&live, "live", false, "draw the ball while simulating")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --live")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "write a position plot (.svg, .png, .pdf)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same run",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addRunFlags(compareCmd, "none")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&rankBy, "rank", "", "order runs by a stored metric, lowest first (e.g. iae)")
	listCmd.Flags().IntVar(&limit, "limit", 10, "rows shown with --rank")
	listCmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the run index from the run directories")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&outFile, "out", "o", "", "write a position plot instead of printing")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and step characteristics of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "replay a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	liveCmd.Flags().StringVar(&theme, "theme", "default", "color theme")

	tfCmd := &cobra.Command{
		Use:   "tf",
		Short: "plant and closed-loop transfer functions",
		Args:  cobra.NoArgs,
		RunE:  showTransferFunctions,
	}
	addLoopFlags(tfCmd, "pid")

	routhCmd := &cobra.Command{
		Use:   "routh [coefficients...]",
		Short: "Routh-Hurwitz stability of a polynomial or of the closed loop",
		RunE:  runRouth,
	}
	addLoopFlags(routhCmd, "pid")
	routhCmd.Flags().BoolVar(&symbolic, "symbolic", false, "keep kp, kd, ki as symbols")

	responseCmd := &cobra.Command{
		Use:   "response",
		Short: "step or impulse response of the plant or the closed loop",
		Args:  cobra.NoArgs,
		RunE:  showResponse,
	}
	addLoopFlags(responseCmd, "pid")
	responseCmd.Flags().BoolVar(&closed, "closed", false, "closed loop instead of the plant")
	responseCmd.Flags().BoolVar(&impulse, "impulse", false, "impulse instead of step")
	responseCmd.Flags().Float64Var(&respTime, "time", 0.5, "duration")
	responseCmd.Flags().IntVar(&respPoints, "points", 500, "samples")
	responseCmd.Flags().StringVarP(&outFile, "out", "o", "", "write a plot (.svg, .png, .pdf)")

	bodeCmd := &cobra.Command{
		Use:   "bode",
		Short: "frequency response of the plant or the closed loop",
		Args:  cobra.NoArgs,
		RunE:  showBode,
	}
	addLoopFlags(bodeCmd, "pid")
	bodeCmd.Flags().BoolVar(&closed, "closed", false, "closed loop instead of the plant")
	bodeCmd.Flags().Float64Var(&omegaLo, "from", 1e-1, "lowest frequency, rad/s")
	bodeCmd.Flags().Float64Var(&omegaHi, "to", 1e4, "highest frequency, rad/s")
	bodeCmd.Flags().IntVar(&bodePoints, "points", 200, "samples")
	bodeCmd.Flags().StringVarP(&outFile, "out", "o", "", "write magnitude and phase plots (suffixes _mag, _phase)")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search over Routh-stable PID gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addRunFlags(tuneCmd, "pid")
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp-grid", []float64{1, 2, 5}, "kp candidates")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd-grid", []float64{1, 1.9, 4}, "kd candidates")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki-grid", []float64{100, 500, 1000}, "ki candidates")
	tuneCmd.Flags().StringVar(&metric, "metric", "iae", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	paramSweepCmd := &cobra.Command{
		Use:   "param-sweep [model] [param] [min] [max]",
		Short: "rerun a simulation across a range of one physical parameter",
		Args:  cobra.ExactArgs(4),
		RunE:  runParamSweep,
	}
	addRunFlags(paramSweepCmd, "pid")
	paramSweepCmd.Flags().IntVar(&steps, "steps", 10, "number of parameter values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run trials from randomly perturbed initial states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd, "pid")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for time based)")
	monteCarloCmd.Flags().Float64SliceVar(&spread, "spread", []float64{0.01, 0, 0}, "half-width of the x1, x2, i perturbation")
	monteCarloCmd.Flags().Float64Var(&band, "band", 1e-3, "final |x1 - setpoint| counted as held")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(equilibriumCmd, sweepCmd, runCmd, compareCmd, listCmd, plotCmd, exportCmd,
		analyzeCmd, liveCmd, tfCmd, routhCmd, responseCmd, bodeCmd, tuneCmd, scenarioCmd,
		paramSweepCmd, monteCarloCmd, presetsCmd)
	return rootCmd
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringArrayVar(&paramSets, "set", nil, "override a physical parameter, name=value (phi_deg in degrees)")
}

func addLoopFlags(cmd *cobra.Command, defaultController string) {
	addParamFlags(cmd)
	cmd.Flags().StringVar(&controller, "controller", defaultController, "none, p, pd or pid")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&ts, "ts", config.DefaultTs, "sampling interval")
	cmd.Flags().Float64Var(&sensorLag, "sensor-lag", 0, "time constant of the position sensor (0 for none)")
}

func addRunFlags(cmd *cobra.Command, defaultController string) {
	addLoopFlags(cmd, defaultController)
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "", "euler, rk4, rk45 or radau (default per model)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&setpoint, "setpoint", 0, "position setpoint (deviation from x1_e for nonlinear runs)")
	cmd.Flags().Float64Var(&bias, "bias", 0, "feedforward voltage (added to v_e for nonlinear runs)")
	cmd.Flags().Float64Var(&offset, "offset", 0, "initial position offset from equilibrium, m")
	cmd.Flags().IntVar(&points, "points-per-tick", config.DefaultPoints, "samples handed to the integrator per tick")
	cmd.Flags().Float64Var(&disturb, "disturbance", 0, "amplitude of a smooth random input voltage, V")
	cmd.Flags().Float64Var(&disturbT, "disturbance-scale", 0.05, "correlation time of the disturbance, s")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, argModel string) (*config.Config, error) {
	model := argModel
	if model == "" {
		model = "nonlinear"
	}
	cfg := config.DefaultConfig()
	cfg.Model = model
	if model == "linear" {
		cfg.Integrator = "rk45"
	}

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if argModel != "" {
			cfg.Model = argModel
		}
	}

	flags := cmd.Flags()
	changed := func(name string) bool { return flags.Lookup(name) != nil && flags.Changed(name) }
	if changed("integrator") {
		cfg.Integrator = integrator
	}
	if changed("controller") {
		cfg.Controller = controller
	}
	if changed("kp") {
		cfg.Gains.Kp = kp
	}
	if changed("kd") {
		cfg.Gains.Kd = kd
	}
	if changed("ki") {
		cfg.Gains.Ki = ki
	}
	if changed("ts") {
		cfg.Gains.Ts = ts
	}
	if changed("time") {
		cfg.Duration = duration
	}
	if changed("setpoint") {
		cfg.Setpoint = setpoint
	}
	if changed("bias") {
		cfg.Bias = bias
	}
	if changed("offset") {
		cfg.InitState = config.InitStateConfig{Mode: config.StartOffset, X1: offset}
	}
	if changed("sensor-lag") {
		cfg.SensorLag = sensorLag
	}
	if changed("points-per-tick") {
		cfg.Points = points
	}
	if changed("disturbance") {
		cfg.Disturbance.Amplitude = disturb
	}
	if changed("disturbance-scale") {
		cfg.Disturbance.Scale = disturbT
	}

	if len(paramSets) > 0 {
		p := cfg.Params.Physics()
		for _, kv := range paramSets {
			name, raw, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("--set expects name=value, got %q", kv)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("--set %s: %w", name, err)
			}
			if name == "phi_deg" {
				p.Phi = v * math.Pi / 180
				continue
			}
			if err := p.SetParam(name, v); err != nil {
				return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(physics.ParamNames(), ", "))
			}
		}
		cfg.Params = config.FromParams(p)
	}
	return cfg, nil
}
