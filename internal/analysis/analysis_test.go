package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/magball/internal/tf"
)

func TestPowerSpectrumPeak(t *testing.T) {
	const (
		n  = 1024
		dt = 1.0 / 256
		f0 = 16.0
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + 0.5*math.Sin(2*math.Pi*f0*float64(i)*dt)
	}

	s, err := PowerSpectrum(data, dt)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if len(s.Freqs) != n/2+1 {
		t.Fatalf("expected %d bins, got %d", n/2+1, len(s.Freqs))
	}
	f, amp := s.Peak()
	if f != f0 {
		t.Errorf("expected peak at %g Hz, got %g", f0, f)
	}
	if math.Abs(amp-0.5) > 1e-9 {
		t.Errorf("expected amplitude 0.5, got %g", amp)
	}
	if s.Amplitude[0] > 1e-9 {
		t.Errorf("mean should be removed, DC bin %g", s.Amplitude[0])
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1}, 0.1); err == nil {
		t.Error("expected error for one sample")
	}
	if _, err := PowerSpectrum([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestStepInfoFirstOrder(t *testing.T) {
	times := tf.LinSpace(0, 10, 10001)
	y := make([]float64, len(times))
	for i, tt := range times {
		y[i] = 1 - math.Exp(-tt)
	}

	info, err := StepInfo(times, y, 0.02)
	if err != nil {
		t.Fatalf("step info failed: %v", err)
	}
	// ln(9) for a unit time constant
	if math.Abs(info.RiseTime-math.Log(9)) > 2e-3 {
		t.Errorf("rise time %g, want %g", info.RiseTime, math.Log(9))
	}
	if info.Overshoot != 0 {
		t.Errorf("first order response should not overshoot, got %g%%", info.Overshoot)
	}
	if !info.SettledWithin {
		t.Error("response should settle inside the window")
	}
	// 2% band around the final value 1-e^-10
	if math.Abs(info.SettlingTime-3.91) > 0.02 {
		t.Errorf("settling time %g, want about 3.91", info.SettlingTime)
	}
}

func TestStepInfoOvershoot(t *testing.T) {
	sys := tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 0.6, 1}}
	times := tf.LinSpace(0, 40, 4001)
	y, err := sys.StepResponse(times)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	info, err := StepInfo(times, y, 0.02)
	if err != nil {
		t.Fatalf("step info failed: %v", err)
	}
	// zeta = 0.3 gives exp(-pi*zeta/sqrt(1-zeta^2)) = 37.2%
	if math.Abs(info.Overshoot-37.2) > 0.5 {
		t.Errorf("overshoot %g%%, want about 37.2%%", info.Overshoot)
	}
	if math.Abs(info.PeakTime-math.Pi/math.Sqrt(0.91)) > 0.02 {
		t.Errorf("peak time %g", info.PeakTime)
	}
}

func TestStepInfoErrors(t *testing.T) {
	if _, err := StepInfo([]float64{0, 1}, []float64{0}, 0.02); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := StepInfo([]float64{0}, []float64{0}, 0.02); err == nil {
		t.Error("expected short signal error")
	}
}
