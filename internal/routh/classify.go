package routh

import (
	"math"
	"strconv"

	"github.com/san-kum/magball/internal/tf"
)

type Verdict int

const (
	Indeterminate Verdict = iota
	Stable
	Unstable
)

func (v Verdict) String() string {
	switch v {
	case Stable:
		return "stable"
	case Unstable:
		return "unstable"
	default:
		return "indeterminate"
	}
}

// Real adapts float64 to Field.
type Real float64

func (a Real) Mul(b Real) Real { return a * b }
func (a Real) Sub(b Real) Real { return a - b }

func (a Real) Quo(b Real) (Real, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

func (a Real) IsZero() bool { return a == 0 }

func (a Real) Sign() (int, bool) {
	switch {
	case math.IsNaN(float64(a)):
		return 0, false
	case a > 0:
		return 1, true
	case a < 0:
		return -1, true
	default:
		return 0, true
	}
}

func (a Real) String() string { return strconv.FormatFloat(float64(a), 'g', 6, 64) }

// BuildPoly builds the numeric array for p after trimming leading zeros.
func BuildPoly(p tf.Poly) (*Array[Real], error) {
	t := p.Trim()
	if t.IsZero() {
		return nil, ErrEmpty
	}
	coeffs := make([]Real, len(t))
	for i, c := range t {
		coeffs[i] = Real(c)
	}
	return Build(coeffs, Real(0))
}

// Classify decides BIBO stability of a system with denominator p. Leading
// zero coefficients are trimmed first; the zero polynomial and non-finite
// coefficients are Indeterminate.
func Classify(p tf.Poly) Verdict {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Indeterminate
		}
	}
	a, err := BuildPoly(p)
	if err != nil {
		return Indeterminate
	}
	return a.Verdict()
}
