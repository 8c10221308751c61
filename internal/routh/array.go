package routh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned for a polynomial without coefficients.
var ErrEmpty = errors.New("routh: empty polynomial")

// Field is the arithmetic the array needs from its entries.
type Field[T any] interface {
	Mul(T) T
	Sub(T) T
	// Quo returns false when dividing by zero.
	Quo(T) (T, bool)
	IsZero() bool
	// Sign returns false when the sign cannot be determined.
	Sign() (int, bool)
	String() string
}

// Array is a Routh-Hurwitz table: one row per coefficient, ceil(N/2)
// columns. It is read-only once built.
type Array[T Field[T]] struct {
	rows [][]T
	// degenerate is set when a zero pivot stopped the construction;
	// rows from pivotRow+1 on are left at zero.
	degenerate bool
	pivotRow   int
}

// Build fills the array from coefficients ordered highest power first.
func Build[T Field[T]](coeffs []T, zero T) (*Array[T], error) {
	n := len(coeffs)
	if n == 0 {
		return nil, ErrEmpty
	}
	// One spare column keeps M[i-1][j+1] in range; it is dropped at the end.
	width := (n+1)/2 + 1

	m := make([][]T, n)
	for i := range m {
		m[i] = make([]T, width)
		for j := range m[i] {
			m[i][j] = zero
		}
	}
	for k, c := range coeffs {
		m[k%2][k/2] = c
	}

	a := &Array[T]{pivotRow: -1}
	for i := 2; i < n && !a.degenerate; i++ {
		pivot := m[i-1][0]
		for j := 0; j < width-1; j++ {
			cross := pivot.Mul(m[i-2][j+1]).Sub(m[i-2][0].Mul(m[i-1][j+1]))
			v, ok := cross.Quo(pivot)
			if !ok {
				a.degenerate = true
				a.pivotRow = i - 1
				break
			}
			m[i][j] = v
		}
	}

	for i := range m {
		m[i] = m[i][:width-1]
	}
	a.rows = m
	return a, nil
}

func (a *Array[T]) Rows() int    { return len(a.rows) }
func (a *Array[T]) Columns() int { return len(a.rows[0]) }

func (a *Array[T]) At(i, j int) T { return a.rows[i][j] }

func (a *Array[T]) FirstColumn() []T {
	col := make([]T, len(a.rows))
	for i, row := range a.rows {
		col[i] = row[0]
	}
	return col
}

// Degenerate reports whether a zero pivot was met, and in which row.
func (a *Array[T]) Degenerate() (int, bool) { return a.pivotRow, a.degenerate }

// Verdict classifies the first column.
func (a *Array[T]) Verdict() Verdict {
	if a.degenerate {
		return Indeterminate
	}
	signs, ok := a.signs()
	if !ok {
		return Indeterminate
	}
	for _, s := range signs {
		if s == 0 || s != signs[0] {
			return Unstable
		}
	}
	return Stable
}

// SignChanges counts sign changes down the first column, which equals the
// number of right half-plane roots for a regular array. ok is false for a
// degenerate array or an unresolved entry.
func (a *Array[T]) SignChanges() (int, bool) {
	if a.degenerate {
		return 0, false
	}
	signs, ok := a.signs()
	if !ok {
		return 0, false
	}
	changes := 0
	for i := 1; i < len(signs); i++ {
		if signs[i] != signs[i-1] {
			changes++
		}
	}
	return changes, true
}

func (a *Array[T]) signs() ([]int, bool) {
	signs := make([]int, len(a.rows))
	for i, row := range a.rows {
		s, ok := row[0].Sign()
		if !ok {
			return nil, false
		}
		signs[i] = s
	}
	return signs, true
}

func (a *Array[T]) String() string {
	var b strings.Builder
	n := len(a.rows)
	for i, row := range a.rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		fmt.Fprintf(&b, "s^%d | %s\n", n-1-i, strings.Join(cells, "  "))
	}
	if a.degenerate {
		fmt.Fprintf(&b, "zero pivot in row s^%d\n", n-1-a.pivotRow)
	}
	return b.String()
}
