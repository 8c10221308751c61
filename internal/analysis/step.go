package analysis

import (
	"errors"
	"math"
)

// StepCharacteristics summarizes a response to a step input.
type StepCharacteristics struct {
	FinalValue    float64
	RiseTime      float64 // 10% to 90% of the final value
	SettlingTime  float64 // last exit from the settling band
	Overshoot     float64 // percent above the final value
	Peak          float64
	PeakTime      float64
	SettledWithin bool
}

// StepInfo measures y(t) against its last sample. band is the relative
// settling tolerance, e.g. 0.02.
func StepInfo(times, y []float64, band float64) (StepCharacteristics, error) {
	if len(times) != len(y) {
		return StepCharacteristics{}, errors.New("analysis: times and values differ in length")
	}
	if len(y) < 2 {
		return StepCharacteristics{}, ErrShortSignal
	}

	final := y[len(y)-1]
	info := StepCharacteristics{FinalValue: final, Peak: y[0]}
	y0 := y[0]
	span := final - y0

	for i, v := range y {
		if (span >= 0 && v > info.Peak) || (span < 0 && v < info.Peak) {
			info.Peak, info.PeakTime = v, times[i]
		}
	}
	if span != 0 {
		info.Overshoot = math.Max(0, 100*(info.Peak-final)/span)
	}

	lo, hi := math.NaN(), math.NaN()
	for i, v := range y {
		frac := 0.0
		if span != 0 {
			frac = (v - y0) / span
		}
		if math.IsNaN(lo) && frac >= 0.1 {
			lo = times[i]
		}
		if math.IsNaN(hi) && frac >= 0.9 {
			hi = times[i]
			break
		}
	}
	if !math.IsNaN(lo) && !math.IsNaN(hi) {
		info.RiseTime = hi - lo
	}

	tol := band * math.Max(math.Abs(span), math.Abs(final))
	info.SettlingTime = times[0]
	for i := len(y) - 1; i >= 0; i-- {
		if math.Abs(y[i]-final) > tol {
			if i+1 < len(times) {
				info.SettlingTime = times[i+1]
			}
			break
		}
	}
	info.SettledWithin = info.SettlingTime < times[len(times)-1]
	return info, nil
}
