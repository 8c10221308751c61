package symbolic

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a ratio would get a zero denominator.
var ErrDivisionByZero = errors.New("symbolic: division by zero")

// UnboundError reports a symbol without a value during evaluation.
type UnboundError struct {
	Symbol string
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("symbolic: no value for %s", e.Symbol)
}
