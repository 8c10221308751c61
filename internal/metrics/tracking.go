package metrics

import (
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

// TrackingError integrates |setpoint - x[index]| over time (IAE) with the
// rectangle rule on the observed ticks.
type TrackingError struct {
	name     string
	index    int
	setpoint float64
	sum      float64
	lastT    float64
	lastErr  float64
	samples  int
}

func NewTrackingError(index int, setpoint float64) *TrackingError {
	return &TrackingError{name: "iae", index: index, setpoint: setpoint}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	err := math.Abs(e.setpoint - x[e.index])
	if e.samples > 0 {
		e.sum += e.lastErr * (t - e.lastT)
	}
	e.lastT, e.lastErr = t, err
	e.samples++
}

func (e *TrackingError) Value() float64 { return e.sum }

func (e *TrackingError) Reset() {
	e.sum, e.lastT, e.lastErr = 0, 0, 0
	e.samples = 0
}

// Default returns the metric set attached to every closed-loop run.
func Default(output int, setpoint, band float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewStability(output, setpoint, band),
		NewTrackingError(output, setpoint),
	}
}
