package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/magball/internal/analysis"
	"github.com/san-kum/magball/internal/config"
	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/export"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/routh"
	"github.com/san-kum/magball/internal/tf"
)

type transferFunctioner interface {
	TransferFunction() tf.System
}

// loop holds the pieces of the feedback loop G_c * G_x closed through H.
type loop struct {
	plant      tf.System
	controller tf.System
	sensor     tf.System
}

func (l loop) open() tf.System   { return l.controller.Series(l.plant) }
func (l loop) closed() tf.System { return l.open().Feedback(l.sensor) }

func buildLoop(cfg *config.Config) (loop, error) {
	lin, err := physics.NewLinear(cfg.Params.Physics())
	if err != nil {
		return loop{}, err
	}
	ctrl, err := experiment.NewRegistry().GetController(cfg.Controller, cfg.Gains)
	if err != nil {
		return loop{}, err
	}
	tfc, ok := ctrl.(transferFunctioner)
	if !ok {
		return loop{}, fmt.Errorf("controller %q has no transfer function", cfg.Controller)
	}
	return loop{plant: lin.TransferFunction(), controller: tfc.TransferFunction(), sensor: cfg.Sensor()}, nil
}

func formatRoots(roots []complex128) string {
	parts := make([]string, len(roots))
	for i, r := range roots {
		if math.Abs(imag(r)) < 1e-9*math.Max(1, math.Abs(real(r))) {
			parts[i] = strconv.FormatFloat(real(r), 'g', 6, 64)
			continue
		}
		parts[i] = fmt.Sprintf("%.6g%+.6gj", real(r), imag(r))
	}
	return strings.Join(parts, ", ")
}

func describe(name string, g tf.System) {
	fmt.Printf("%s:\n  %s\n", name, g)
	if poles, err := g.Poles(); err == nil {
		fmt.Printf("  poles: %s\n", formatRoots(poles))
	}
	fmt.Printf("  dc gain: %.6g\n", g.DCGain())
}

func showEquilibrium(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	p := cfg.Params.Physics()
	lin, err := physics.NewLinear(p)
	if err != nil {
		return err
	}
	eq, coef := lin.Equilibrium(), lin.Coefficients()

	fmt.Println("equilibrium:")
	fmt.Printf("  x1 = %.6f m\n", eq.X1)
	fmt.Printf("  i  = %.6f A\n", eq.I)
	fmt.Printf("  v  = %.6f V\n", eq.V)
	fmt.Println("\nlinearization:")
	fmt.Printf("  D = %.6g  F = %.6g  H = %.6g\n", coef.D, coef.F, coef.H)
	fmt.Printf("  N = %.6g  P = %.6g\n\n", coef.N, coef.P)
	describe("G_x(s)", lin.TransferFunction())
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	points, err := physics.Sweep(cfg.Params.Physics(), sweepPoints)
	if err != nil {
		return err
	}

	volts := make([]float64, len(points))
	for i, eq := range points {
		volts[i] = eq.V
	}
	first, last := points[0].X1, points[len(points)-1].X1
	graph := asciigraph.Plot(volts,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("equilibrium voltage, x1 from %.4f to %.4f m", first, last)),
	)
	fmt.Println(graph)
	fmt.Println()

	if peak, ok := physics.PeakVoltage(points); ok {
		fmt.Printf("peak: v=%.6g V at x1=%.6f m (i=%.6g A)\n", peak.V, peak.X1, peak.I)
	}

	if outFile != "" {
		p, err := export.SweepPlot(points)
		if err != nil {
			return err
		}
		return export.Save(p, outFile, 8, 4)
	}
	return nil
}

func showTransferFunctions(cmd *cobra.Command, args []string) error {
	cfg, err := loopConfig(cmd)
	if err != nil {
		return err
	}
	l, err := buildLoop(cfg)
	if err != nil {
		return err
	}

	describe("plant G_x(s)", l.plant)
	fmt.Println()
	describe(fmt.Sprintf("controller G_c(s) (%s, %s)", cfg.Controller, cfg.Gains), l.controller)
	fmt.Println()
	describe("sensor H(s)", l.sensor)
	fmt.Println()
	describe("open loop G_c*G_x", l.open())
	fmt.Println()
	cl := l.closed()
	describe("closed loop", cl)
	fmt.Printf("  routh-hurwitz: %s\n", routh.Classify(cl.Den))
	return nil
}

func runRouth(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		coeffs := make(tf.Poly, len(args))
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("coefficient %d: %w", i, err)
			}
			coeffs[i] = v
		}
		return printRouth(coeffs)
	}

	cfg, err := loopConfig(cmd)
	if err != nil {
		return err
	}
	if symbolic {
		lin, err := physics.NewLinear(cfg.Params.Physics())
		if err != nil {
			return err
		}
		par, err := routh.ParametricPID(lin.TransferFunction(), cfg.Sensor())
		if err != nil {
			return err
		}
		fmt.Printf("characteristic polynomial:\n  %s\n\n", par.Characteristic())
		fmt.Println(par.Array())
		fmt.Printf("verdict: %s\n", par.Verdict())
		v, err := par.ClassifyAt(cfg.Gains.Kp, cfg.Gains.Kd, cfg.Gains.Ki)
		if err != nil {
			return err
		}
		fmt.Printf("at kp=%g kd=%g ki=%g: %s\n", cfg.Gains.Kp, cfg.Gains.Kd, cfg.Gains.Ki, v)
		return nil
	}

	l, err := buildLoop(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("closed loop with %s (%s)\n", cfg.Controller, cfg.Gains)
	return printRouth(l.closed().Den)
}

func printRouth(p tf.Poly) error {
	arr, err := routh.BuildPoly(p)
	if err != nil {
		return err
	}
	fmt.Printf("polynomial: %s\n\n", p.Trim())
	fmt.Println(arr)
	if n, ok := arr.SignChanges(); ok {
		fmt.Printf("sign changes: %d\n", n)
	}
	fmt.Printf("verdict: %s\n", arr.Verdict())
	return nil
}

func selectSystem(cmd *cobra.Command) (tf.System, string, error) {
	cfg, err := loopConfig(cmd)
	if err != nil {
		return tf.System{}, "", err
	}
	if !closed {
		lin, err := physics.NewLinear(cfg.Params.Physics())
		if err != nil {
			return tf.System{}, "", err
		}
		return lin.TransferFunction(), "plant", nil
	}
	l, err := buildLoop(cfg)
	if err != nil {
		return tf.System{}, "", err
	}
	return l.closed(), "closed loop (" + cfg.Controller + ")", nil
}

func showResponse(cmd *cobra.Command, args []string) error {
	sys, name, err := selectSystem(cmd)
	if err != nil {
		return err
	}
	n, span := respPoints, respTime
	if n < 2 {
		return fmt.Errorf("--points must be at least 2, got %d", n)
	}
	times := tf.LinSpace(0, span, n)

	kind := "step"
	var y []float64
	if impulse {
		kind = "impulse"
		y, err = sys.ImpulseResponse(times)
	} else {
		y, err = sys.StepResponse(times)
	}
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s response of the %s", kind, name)
	if outFile != "" {
		p, err := export.LinePlot(title, "time (s)", "output", export.Series{Name: kind, X: times, Y: y})
		if err != nil {
			return err
		}
		return export.Save(p, outFile, 8, 4)
	}

	graph := asciigraph.Plot(y,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s, 0 to %gs", title, span)),
	)
	fmt.Println(graph)
	fmt.Println()

	if !impulse {
		info, err := analysis.StepInfo(times, y, 0.02)
		if err != nil {
			return err
		}
		fmt.Printf("final value: %.6g (dc gain %.6g)\n", info.FinalValue, sys.DCGain())
		fmt.Printf("rise time:   %.4g s\n", info.RiseTime)
		fmt.Printf("overshoot:   %.2f%%\n", info.Overshoot)
		if info.SettledWithin {
			fmt.Printf("settling:    %.4g s (2%%)\n", info.SettlingTime)
		}
	}
	return nil
}

func showBode(cmd *cobra.Command, args []string) error {
	sys, name, err := selectSystem(cmd)
	if err != nil {
		return err
	}
	if !(omegaLo > 0) || !(omegaHi > omegaLo) {
		return fmt.Errorf("frequency range must satisfy 0 < from < to, got %g..%g", omegaLo, omegaHi)
	}
	n := bodePoints
	if n < 2 {
		return fmt.Errorf("--points must be at least 2, got %d", n)
	}
	points := sys.Bode(tf.LogSpace(math.Log10(omegaLo), math.Log10(omegaHi), n))
	title := "bode, " + name

	if outFile != "" {
		mag, phase, err := export.BodePlot(points, title)
		if err != nil {
			return err
		}
		ext := filepath.Ext(outFile)
		stem := strings.TrimSuffix(outFile, ext)
		if err := export.Save(mag, stem+"_mag"+ext, 8, 4); err != nil {
			return err
		}
		return export.Save(phase, stem+"_phase"+ext, 8, 4)
	}

	mag := make([]float64, len(points))
	phase := make([]float64, len(points))
	crossover := math.NaN()
	for i, pt := range points {
		mag[i], phase[i] = pt.MagnitudeDB, pt.PhaseDeg
		if i > 0 && math.IsNaN(crossover) && points[i-1].MagnitudeDB >= 0 && pt.MagnitudeDB < 0 {
			crossover = pt.Omega
		}
	}
	span := fmt.Sprintf("%g to %g rad/s, log spaced", omegaLo, omegaHi)
	fmt.Println(asciigraph.Plot(mag, asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("magnitude (dB), "+span)))
	fmt.Println()
	fmt.Println(asciigraph.Plot(phase, asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("phase (deg), "+span)))
	fmt.Println()
	if !math.IsNaN(crossover) {
		fmt.Printf("gain crossover near %.4g rad/s\n", crossover)
	}
	return nil
}
