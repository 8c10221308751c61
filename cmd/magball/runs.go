package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/magball/internal/analysis"
	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/export"
	"github.com/san-kum/magball/internal/sim"
	"github.com/san-kum/magball/internal/storage"
	"github.com/san-kum/magball/internal/tui"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if reindex {
		if err := st.Init(); err != nil {
			return err
		}
		n, err := st.Reindex()
		if err != nil {
			return err
		}
		slog.Info("index rebuilt", "runs", n)
	}
	if rankBy != "" {
		return rankRuns(st)
	}

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCREATED\tDURATION\tTS\tINTEG\tCTRL\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%s\n",
			run.ID,
			run.Model,
			humanize.Time(run.Timestamp),
			run.Duration,
			run.Ts,
			run.Integrator,
			run.Controller,
			humanize.Comma(int64(run.Steps)),
		)
	}
	return w.Flush()
}

func rankRuns(st *storage.Store) error {
	if err := st.Init(); err != nil {
		return err
	}
	ix, err := st.OpenIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	ranked, err := ix.Rank(rankBy, limit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Printf("no indexed runs carry metric %q\n", rankBy)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tMODEL\tCTRL\tKP\tKD\tKI\t%s\n", strings.ToUpper(rankBy))
	for _, r := range ranked {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%.6g\n", r.ID, r.Model, r.Controller, r.Kp, r.Kd, r.Ki, r.Value)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *sim.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if outFile != "" {
		p, err := export.TrajectoryPlot(result, 0, fmt.Sprintf("%s (%s)", meta.ID, meta.Controller))
		if err != nil {
			return err
		}
		return export.Save(p, outFile, 8, 4)
	}

	fmt.Printf("run: %s (%s, %s, %s)\n\n", meta.ID, meta.Model, meta.Integrator, meta.Controller)
	series := []struct {
		caption string
		data    []float64
	}{
		{"x1 position (m)", result.Component(0)},
		{"x2 velocity (m/s)", result.Component(1)},
		{"i current (A)", result.Component(2)},
		{"v voltage (V)", result.Controls},
	}
	for _, s := range series {
		if len(s.data) == 0 {
			continue
		}
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	cfg := experiment.Config{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Controller: meta.Controller,
		Params:     meta.Params,
		Gains:      control.Gains{Kp: meta.Kp, Kd: meta.Kd, Ki: meta.Ki, Ts: meta.Ts},
		Duration:   meta.Duration,
		Setpoint:   meta.Setpoint,
		Bias:       meta.Bias,
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, cfg, result)
	}
	if err := storage.ExportJSON(outFile, cfg, result); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, outFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	x1 := result.Component(0)

	spectrum, err := analysis.PowerSpectrum(x1, meta.Ts)
	if err != nil {
		return err
	}
	shown := spectrum.Amplitude
	if len(shown) > 200 {
		shown = shown[:200]
	}
	graph := asciigraph.Plot(shown,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum of x1, 0 to %.1f Hz", spectrum.Freqs[len(shown)-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, amp := spectrum.Peak()
	fmt.Printf("dominant frequency: %.3f Hz (amplitude %.3e m)\n", freq, amp)

	info, err := analysis.StepInfo(result.Times, x1, 0.02)
	if err != nil {
		return err
	}
	fmt.Printf("final x1:      %.6g\n", info.FinalValue)
	fmt.Printf("peak:          %.6g at t=%.4g\n", info.Peak, info.PeakTime)
	fmt.Printf("overshoot:     %.2f%%\n", info.Overshoot)
	fmt.Printf("rise time:     %.4g s\n", info.RiseTime)
	if info.SettledWithin {
		fmt.Printf("settling time: %.4g s (2%%)\n", info.SettlingTime)
	} else {
		fmt.Println("settling time: not settled within the run")
	}
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	offset := positionOffset(meta.Model, meta.Params)
	title := fmt.Sprintf("%s  %s/%s", meta.ID, meta.Model, meta.Controller)
	th, ok := tui.GetTheme(theme)
	if !ok {
		return fmt.Errorf("unknown theme: %s (available: %v)", theme, tui.ThemeNames())
	}
	return tui.NewReplay(title, result, meta.Params, meta.Setpoint, offset).WithTheme(th).Run()
}
