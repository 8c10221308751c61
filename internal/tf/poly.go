package tf

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Poly holds polynomial coefficients in s, highest power first. Leading
// zeros are kept until Trim is called.
type Poly []float64

func (p Poly) Clone() Poly {
	c := make(Poly, len(p))
	copy(c, p)
	return c
}

// Trim drops leading zero coefficients, keeping at least one entry.
func (p Poly) Trim() Poly {
	for i, c := range p {
		if c != 0 {
			return p[i:].Clone()
		}
	}
	return Poly{0}
}

// Degree is the degree after trimming; the zero polynomial has degree -1.
func (p Poly) Degree() int {
	t := p.Trim()
	if len(t) == 1 && t[0] == 0 {
		return -1
	}
	return len(t) - 1
}

func (p Poly) IsZero() bool { return p.Degree() < 0 }

func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out
}

// Add aligns both operands on the constant term.
func (p Poly) Add(q Poly) Poly {
	n := max(len(p), len(q))
	out := make(Poly, n)
	for i := range p {
		out[n-len(p)+i] += p[i]
	}
	for i := range q {
		out[n-len(q)+i] += q[i]
	}
	return out
}

func (p Poly) Scale(k float64) Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = k * c
	}
	return out
}

func (p Poly) Eval(s complex128) complex128 {
	var acc complex128
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

// Equal reports exact coefficient equality, including length.
func (p Poly) Equal(q Poly) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Roots returns the eigenvalues of the companion matrix of p.
func (p Poly) Roots() ([]complex128, error) {
	t := p.Trim()
	if t.Degree() < 0 {
		return nil, fmt.Errorf("%w: roots of the zero polynomial", ErrZeroPolynomial)
	}
	n := len(t) - 1
	if n == 0 {
		return []complex128{}, nil
	}

	comp := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		comp.Set(0, j, -t[j+1]/t[0])
	}
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return nil, fmt.Errorf("tf: eigenvalue decomposition failed for %v", p)
	}
	return eig.Values(nil), nil
}

func (p Poly) String() string {
	t := p.Trim()
	if t.Degree() < 0 {
		return "0"
	}
	var b strings.Builder
	n := len(t) - 1
	for i, c := range t {
		if c == 0 {
			continue
		}
		pow := n - i
		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() > 0 && c < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		mag := math.Abs(c)
		if mag != 1 || pow == 0 {
			b.WriteString(strconv.FormatFloat(mag, 'g', 6, 64))
			if pow > 0 {
				b.WriteString(" ")
			}
		}
		switch {
		case pow == 1:
			b.WriteString("s")
		case pow > 1:
			b.WriteString("s^" + strconv.Itoa(pow))
		}
	}
	return b.String()
}

func maxAbs(zs []complex128) float64 {
	r := 0.0
	for _, z := range zs {
		r = math.Max(r, cmplx.Abs(z))
	}
	return r
}
