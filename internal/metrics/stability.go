package metrics

import (
	"math"

	"github.com/san-kum/magball/internal/dynamo"
)

// Stability is the fraction of ticks on which the watched coordinate stayed
// within threshold of its reference. A value of 1 means no excursion.
type Stability struct {
	name       string
	index      int
	reference  float64
	threshold  float64
	violations int
	samples    int
}

func NewStability(index int, reference, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		index:     index,
		reference: reference,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if s.index >= len(x) {
		s.violations++
		return
	}
	if d := math.Abs(x[s.index] - s.reference); !(d <= s.threshold) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
