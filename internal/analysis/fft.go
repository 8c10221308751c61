package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrShortSignal = errors.New("analysis: signal needs at least two samples")

// Spectrum is a single-sided amplitude spectrum.
type Spectrum struct {
	Freqs     []float64 // Hz
	Amplitude []float64
}

// PowerSpectrum returns the amplitude spectrum of data sampled every dt
// seconds. The mean is removed first so the DC bin reflects only drift.
func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	n := len(data)
	if n < 2 {
		return Spectrum{}, ErrShortSignal
	}
	if !(dt > 0) {
		return Spectrum{}, errors.New("analysis: sample period must be positive")
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	half := n/2 + 1
	s := Spectrum{
		Freqs:     make([]float64, half),
		Amplitude: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Freqs[k] = float64(k) / (float64(n) * dt)
		amp := cmplx.Abs(coeffs[k]) / float64(n)
		if k > 0 && !(n%2 == 0 && k == n/2) {
			amp *= 2
		}
		s.Amplitude[k] = amp
	}
	return s, nil
}

// Peak returns the frequency and amplitude of the strongest non-DC bin.
func (s Spectrum) Peak() (float64, float64) {
	best, amp := 0.0, math.Inf(-1)
	for k := 1; k < len(s.Amplitude); k++ {
		if s.Amplitude[k] > amp {
			best, amp = s.Freqs[k], s.Amplitude[k]
		}
	}
	if math.IsInf(amp, -1) {
		return 0, 0
	}
	return best, amp
}
