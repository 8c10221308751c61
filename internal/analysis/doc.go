// Package analysis characterizes simulated and computed responses.
//
//   - [PowerSpectrum]: single-sided amplitude spectrum of a sampled signal
//   - [StepInfo]: rise time, settling time, overshoot and final value
//
// # Oscillation check
//
// A closed-loop run that rings at a dominant frequency shows a peak in the
// spectrum of its position trace:
//
//	spectrum, _ := analysis.PowerSpectrum(result.Component(0), cfg.Ts)
//	f, amp := spectrum.Peak()
package analysis
