package tf

import "errors"

var (
	// ErrZeroPolynomial indicates an operation that needs a nonzero polynomial.
	ErrZeroPolynomial = errors.New("tf: zero polynomial")

	// ErrImproper indicates a numerator of higher degree than the denominator.
	ErrImproper = errors.New("tf: improper transfer function")

	// ErrTimeGrid indicates a time grid that is empty, negative, or not increasing.
	ErrTimeGrid = errors.New("tf: invalid time grid")
)
