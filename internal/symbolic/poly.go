package symbolic

import (
	"math/big"
	"strconv"
	"strings"
)

// Poly is a polynomial in s with Expr coefficients, highest power first.
type Poly []Expr

func FromFloats(coeffs []float64) Poly {
	p := make(Poly, len(coeffs))
	for i, c := range coeffs {
		p[i] = Float(c)
	}
	return p
}

func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return out
}

// Add aligns both operands on the constant term.
func (p Poly) Add(q Poly) Poly {
	n := max(len(p), len(q))
	out := make(Poly, n)
	for i := range p {
		out[n-len(p)+i] = out[n-len(p)+i].Add(p[i])
	}
	for i := range q {
		out[n-len(q)+i] = out[n-len(q)+i].Add(q[i])
	}
	return out
}

// Trim drops leading coefficients that are identically zero.
func (p Poly) Trim() Poly {
	for i, c := range p {
		if !c.IsZero() {
			return p[i:]
		}
	}
	return Poly{Zero()}
}

// Substitute evaluates every coefficient.
func (p Poly) Substitute(values map[string]*big.Rat) ([]*big.Rat, error) {
	out := make([]*big.Rat, len(p))
	for i, c := range p {
		v, err := c.Eval(values)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p Poly) String() string {
	parts := make([]string, 0, len(p))
	n := len(p) - 1
	for i, c := range p {
		if c.IsZero() {
			continue
		}
		s := "(" + c.String() + ")"
		switch pow := n - i; {
		case pow == 1:
			s += "*s"
		case pow > 1:
			s += "*s^" + strconv.Itoa(pow)
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " + ")
}
