package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
	"github.com/san-kum/magball/internal/tf"
)

var ErrNoData = errors.New("export: nothing to plot")

// Series is one named curve.
type Series struct {
	Name string
	X, Y []float64
}

func (s Series) xys() (plotter.XYs, error) {
	if len(s.X) != len(s.Y) {
		return nil, fmt.Errorf("export: series %q has %d x and %d y values", s.Name, len(s.X), len(s.Y))
	}
	pts := make(plotter.XYs, 0, len(s.X))
	for i := range s.X {
		if math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
	}
	return pts, nil
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(6)
	p.Y.Padding = vg.Points(6)
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
}

// LinePlot draws every series as a line with its own color and dash style.
func LinePlot(title, xLabel, yLabel string, series ...Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	stylePlot(p)

	drawn := 0
	for i, s := range series {
		pts, err := s.xys()
		if err != nil {
			return nil, err
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("export: series %q: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Dashes = plotutil.Dashes(i)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	return p, nil
}

var stateLabels = []string{"x1 (m)", "x2 (m/s)", "i (A)"}

// TrajectoryPlot plots one state coordinate of a closed-loop run.
func TrajectoryPlot(result *sim.Result, component int, title string) (*plot.Plot, error) {
	if len(result.States) == 0 {
		return nil, ErrNoData
	}
	if component < 0 || component >= len(result.States[0]) {
		return nil, fmt.Errorf("export: no state component %d", component)
	}
	label := fmt.Sprintf("x[%d]", component)
	if component < len(stateLabels) {
		label = stateLabels[component]
	}
	return LinePlot(title, "time (s)", label, Series{Name: label, X: result.Times, Y: result.Component(component)})
}

// ControlPlot plots the held voltage of a closed-loop run.
func ControlPlot(result *sim.Result, title string) (*plot.Plot, error) {
	n := len(result.Controls)
	if n == 0 {
		return nil, ErrNoData
	}
	return LinePlot(title, "time (s)", "v (V)", Series{Name: "v", X: result.Times[:n], Y: result.Controls})
}

// BodePlot returns the magnitude and phase plots on a logarithmic
// frequency axis.
func BodePlot(points []tf.BodePoint, title string) (*plot.Plot, *plot.Plot, error) {
	if len(points) == 0 {
		return nil, nil, ErrNoData
	}
	omega := make([]float64, len(points))
	mag := make([]float64, len(points))
	phase := make([]float64, len(points))
	for i, b := range points {
		omega[i], mag[i], phase[i] = b.Omega, b.MagnitudeDB, b.PhaseDeg
	}

	pm, err := LinePlot(title+" magnitude", "omega (rad/s)", "|G| (dB)", Series{X: omega, Y: mag})
	if err != nil {
		return nil, nil, err
	}
	pp, err := LinePlot(title+" phase", "omega (rad/s)", "phase (deg)", Series{X: omega, Y: phase})
	if err != nil {
		return nil, nil, err
	}
	for _, p := range []*plot.Plot{pm, pp} {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return pm, pp, nil
}

// SweepPlot draws the equilibrium voltage against ball position.
func SweepPlot(points []physics.Equilibrium) (*plot.Plot, error) {
	x := make([]float64, len(points))
	v := make([]float64, len(points))
	for i, eq := range points {
		x[i], v[i] = eq.X1, eq.V
	}
	p, err := LinePlot("Equilibrium voltage", "x1 (m)", "v (V)", Series{X: x, Y: v})
	if err != nil {
		return nil, err
	}
	if peak, ok := physics.PeakVoltage(points); ok {
		sc, err := plotter.NewScatter(plotter.XYs{{X: peak.X1, Y: peak.V}})
		if err == nil {
			sc.GlyphStyle.Color = plotutil.Color(1)
			sc.GlyphStyle.Radius = vg.Points(3)
			p.Add(sc)
			p.Legend.Add(fmt.Sprintf("peak %.2f V", peak.V), sc)
		}
	}
	return p, nil
}

// Save writes p to path; the extension (.svg, .png, .pdf, .eps) selects the
// format.
func Save(p *plot.Plot, path string, widthIn, heightIn float64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	return p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, path)
}
