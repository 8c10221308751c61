package symbolic

import "math/big"

// Ratio is a quotient of two Exprs with a nonzero denominator. It satisfies
// the field operations used by the Routh array.
type Ratio struct {
	Num Expr
	Den Expr
}

func FromExpr(e Expr) Ratio { return Ratio{Num: e, Den: Int(1)} }

func NewRatio(num, den Expr) (Ratio, error) {
	if den.IsZero() {
		return Ratio{}, ErrDivisionByZero
	}
	return normalize(num, den), nil
}

// normalize cancels exact divisions and scales the denominator's leading
// coefficient to one.
func normalize(num, den Expr) Ratio {
	if num.IsZero() {
		return Ratio{Num: Zero(), Den: Int(1)}
	}
	if q, ok := num.Divide(den); ok {
		return Ratio{Num: q, Den: Int(1)}
	}
	lead := den.leading().coef
	if lead.Cmp(big.NewRat(1, 1)) != 0 {
		inv := new(big.Rat).Inv(lead)
		num, den = num.Scale(inv), den.Scale(inv)
	}
	return Ratio{Num: num, Den: den}
}

func (r Ratio) Mul(o Ratio) Ratio {
	if r.Den.Equal(o.Num) {
		return normalize(r.Num, o.Den)
	}
	if r.Num.Equal(o.Den) {
		return normalize(o.Num, r.Den)
	}
	return normalize(r.Num.Mul(o.Num), r.Den.Mul(o.Den))
}

func (r Ratio) Sub(o Ratio) Ratio {
	if r.Den.Equal(o.Den) {
		return normalize(r.Num.Sub(o.Num), r.Den)
	}
	return normalize(r.Num.Mul(o.Den).Sub(o.Num.Mul(r.Den)), r.Den.Mul(o.Den))
}

func (r Ratio) Add(o Ratio) Ratio { return r.Sub(o.Neg()) }

func (r Ratio) Neg() Ratio { return Ratio{Num: r.Num.Neg(), Den: r.Den} }

// Quo divides r by o; ok is false when o is zero.
func (r Ratio) Quo(o Ratio) (Ratio, bool) {
	if o.Num.IsZero() {
		return Ratio{}, false
	}
	if r.Den.Equal(o.Den) {
		return normalize(r.Num, o.Num), true
	}
	return normalize(r.Num.Mul(o.Den), r.Den.Mul(o.Num)), true
}

func (r Ratio) IsZero() bool { return r.Num.IsZero() }

// Sign is definite when both parts have a definite sign for positive symbols.
func (r Ratio) Sign() (int, bool) {
	sn, ok := r.Num.Sign()
	if !ok {
		return 0, false
	}
	sd, ok := r.Den.Sign()
	if !ok {
		return 0, false
	}
	return sn * sd, true
}

func (r Ratio) Eval(values map[string]*big.Rat) (*big.Rat, error) {
	n, err := r.Num.Eval(values)
	if err != nil {
		return nil, err
	}
	d, err := r.Den.Eval(values)
	if err != nil {
		return nil, err
	}
	if d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return n.Quo(n, d), nil
}

func (r Ratio) String() string {
	if c, ok := r.Den.IsConst(); ok && c.Cmp(big.NewRat(1, 1)) == 0 {
		return r.Num.String()
	}
	return "(" + r.Num.String() + ") / (" + r.Den.String() + ")"
}
