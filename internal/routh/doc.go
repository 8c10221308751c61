// Package routh implements the Routh-Hurwitz stability test.
//
// [Build] works over any [Field]: [Real] for numeric polynomials and
// symbolic.Ratio for characteristic polynomials with free PID gains. The
// first column decides the [Verdict]; an entry whose sign cannot be fixed,
// or a zero pivot, yields [Indeterminate] instead of an error.
package routh
