package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/magball/internal/routh"
	"github.com/san-kum/magball/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no grid point produced a score")

// Gain names understood by the stability filter.
const (
	Kp = "kp"
	Kd = "kd"
	Ki = "ki"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	filter     *routh.Parametric
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// WithStabilityFilter skips grid points whose closed loop is not
// Routh-Hurwitz stable. Gains missing from the grid count as zero.
func (g *GridSearch) WithStabilityFilter(p *routh.Parametric) *GridSearch {
	g.filter = p
	return g
}

type Report struct {
	Best      map[string]float64
	Score     float64
	Evaluated int
	Rejected  int
	Failed    int
}

// Search runs every surviving grid point through a sim.Ensemble and
// returns the point minimizing metricName.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (*sim.Simulator, error),
	cfg sim.Config,
	metricName string,
) (*Report, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	report := &Report{Score: math.Inf(1)}
	candidates := points[:0]
	for _, p := range points {
		if g.filter != nil {
			verdict, err := g.filter.ClassifyAt(p[Kp], p[Kd], p[Ki])
			if err != nil || verdict != routh.Stable {
				slog.Debug("grid point rejected", "params", p, "verdict", verdict.String())
				report.Rejected++
				continue
			}
		}
		candidates = append(candidates, p)
	}

	ens := sim.NewEnsemble(func(idx int) (*sim.Simulator, error) {
		return build(candidates[idx])
	}, len(candidates))
	results, errs := ens.Run(ctx, cfg)

	for i, res := range results {
		if errs[i] != nil {
			slog.Debug("grid point failed", "params", candidates[i], "error", errs[i])
			report.Failed++
			continue
		}
		report.Evaluated++
		val, ok := res.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			continue
		}
		if val < report.Score {
			report.Score = val
			report.Best = candidates[i]
		}
	}

	slog.Info("grid search finished",
		"points", len(points),
		"evaluated", report.Evaluated,
		"rejected", report.Rejected,
		"failed", report.Failed,
		"best", report.Best,
		metricName, report.Score,
	)
	if report.Best == nil {
		return report, ErrNoCandidate
	}
	return report, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}
