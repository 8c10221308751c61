package tf

import (
	"fmt"
	"math"
	"math/cmplx"
)

// System is a rational transfer function Num(s)/Den(s).
type System struct {
	Num Poly
	Den Poly
}

func New(num, den Poly) (System, error) {
	if den.IsZero() {
		return System{}, fmt.Errorf("%w: denominator", ErrZeroPolynomial)
	}
	return System{Num: num.Clone(), Den: den.Clone()}, nil
}

// Unity is the identity system 1/1.
func Unity() System { return Gain(1) }

func Gain(k float64) System { return System{Num: Poly{k}, Den: Poly{1}} }

// Lag is the first-order sensor model 1/(T s + 1).
func Lag(T float64) System { return System{Num: Poly{1}, Den: Poly{T, 1}} }

// Series connects g and h in cascade.
func (g System) Series(h System) System {
	return System{Num: g.Num.Mul(h.Num), Den: g.Den.Mul(h.Den)}
}

// Feedback closes a negative feedback loop around g through sensor:
// g / (1 + g*sensor).
func (g System) Feedback(sensor System) System {
	return System{
		Num: g.Num.Mul(sensor.Den),
		Den: g.Den.Mul(sensor.Den).Add(g.Num.Mul(sensor.Num)),
	}
}

func (g System) Equal(h System) bool {
	return g.Num.Equal(h.Num) && g.Den.Equal(h.Den)
}

func (g System) Proper() bool {
	return g.Num.Degree() <= g.Den.Degree()
}

func (g System) Poles() ([]complex128, error) { return g.Den.Roots() }

func (g System) Zeros() ([]complex128, error) {
	if g.Num.IsZero() {
		return []complex128{}, nil
	}
	return g.Num.Roots()
}

// DCGain is G(0); a pole at the origin gives an infinite gain.
func (g System) DCGain() float64 {
	num := g.Num.Eval(0)
	den := g.Den.Eval(0)
	if den == 0 {
		if num == 0 {
			return math.NaN()
		}
		return math.Copysign(math.Inf(1), real(num))
	}
	return real(num / den)
}

func (g System) FrequencyResponse(omega float64) complex128 {
	s := complex(0, omega)
	return g.Num.Eval(s) / g.Den.Eval(s)
}

type BodePoint struct {
	Omega       float64 // rad/s
	MagnitudeDB float64
	PhaseDeg    float64
}

// Bode evaluates magnitude and unwrapped phase at each frequency, which
// should be given in increasing order.
func (g System) Bode(omegas []float64) []BodePoint {
	out := make([]BodePoint, len(omegas))
	prev := 0.0
	for k, w := range omegas {
		h := g.FrequencyResponse(w)
		phase := cmplx.Phase(h) * 180 / math.Pi
		if k > 0 {
			for phase-prev > 180 {
				phase -= 360
			}
			for phase-prev < -180 {
				phase += 360
			}
		}
		prev = phase
		out[k] = BodePoint{
			Omega:       w,
			MagnitudeDB: 20 * math.Log10(cmplx.Abs(h)),
			PhaseDeg:    phase,
		}
	}
	return out
}

func (g System) String() string {
	return fmt.Sprintf("(%s) / (%s)", g.Num, g.Den)
}

// LogSpace returns n points spaced evenly on a log scale from 10^lo to 10^hi.
func LogSpace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		e := lo
		if n > 1 {
			e = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		out[i] = math.Pow(10, e)
	}
	return out
}

// LinSpace returns n evenly spaced points from start to stop inclusive.
func LinSpace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if n == 1 {
			out[i] = start
			continue
		}
		out[i] = start + (stop-start)*float64(i)/float64(n-1)
	}
	if n > 1 {
		out[n-1] = stop
	}
	return out
}
