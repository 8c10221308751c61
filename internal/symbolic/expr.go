package symbolic

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// monomial maps a symbol to its (positive) exponent.
type monomial map[string]int

func (m monomial) key() string {
	if len(m) == 0 {
		return ""
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name
		if e := m[name]; e != 1 {
			parts[i] += "^" + strconv.Itoa(e)
		}
	}
	return strings.Join(parts, "*")
}

func (m monomial) mul(o monomial) monomial {
	out := make(monomial, len(m)+len(o))
	for name, e := range m {
		out[name] = e
	}
	for name, e := range o {
		out[name] += e
	}
	return out
}

// div returns m/o when o divides m.
func (m monomial) div(o monomial) (monomial, bool) {
	out := make(monomial, len(m))
	for name, e := range m {
		out[name] = e
	}
	for name, e := range o {
		r := out[name] - e
		switch {
		case r < 0:
			return nil, false
		case r == 0:
			delete(out, name)
		default:
			out[name] = r
		}
	}
	return out, true
}

// lexCompare orders monomials lexicographically by symbol name.
func lexCompare(a, b monomial) int {
	names := make([]string, 0, len(a)+len(b))
	for name := range a {
		names = append(names, name)
	}
	for name := range b {
		if _, ok := a[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if d := a[name] - b[name]; d != 0 {
			return d
		}
	}
	return 0
}

type term struct {
	coef *big.Rat
	mono monomial
}

// Expr is a polynomial with exact rational coefficients in named symbols.
// Values are immutable; every operation returns a new Expr.
type Expr struct {
	terms map[string]term
}

func Zero() Expr { return Expr{} }

func Const(r *big.Rat) Expr {
	e := Expr{terms: map[string]term{}}
	e.addTerm(new(big.Rat).Set(r), monomial{})
	return e
}

func Int(v int64) Expr { return Const(big.NewRat(v, 1)) }

// Float converts a finite v through its shortest decimal form, so 0.03
// becomes exactly 3/100.
func Float(v float64) Expr {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, 64))
	if !ok {
		panic("symbolic: non-finite constant " + strconv.FormatFloat(v, 'g', -1, 64))
	}
	return Const(r)
}

func Symbol(name string) Expr {
	e := Expr{terms: map[string]term{}}
	e.addTerm(big.NewRat(1, 1), monomial{name: 1})
	return e
}

func (e *Expr) addTerm(c *big.Rat, m monomial) {
	if c.Sign() == 0 {
		return
	}
	if e.terms == nil {
		e.terms = map[string]term{}
	}
	k := m.key()
	if t, ok := e.terms[k]; ok {
		sum := new(big.Rat).Add(t.coef, c)
		if sum.Sign() == 0 {
			delete(e.terms, k)
			return
		}
		e.terms[k] = term{coef: sum, mono: t.mono}
		return
	}
	e.terms[k] = term{coef: new(big.Rat).Set(c), mono: m}
}

func (e Expr) clone() Expr {
	out := Expr{terms: make(map[string]term, len(e.terms))}
	for k, t := range e.terms {
		out.terms[k] = t
	}
	return out
}

func (e Expr) IsZero() bool { return len(e.terms) == 0 }

// IsConst reports whether e has no symbols, returning its value.
func (e Expr) IsConst() (*big.Rat, bool) {
	switch len(e.terms) {
	case 0:
		return new(big.Rat), true
	case 1:
		if t, ok := e.terms[""]; ok {
			return new(big.Rat).Set(t.coef), true
		}
	}
	return nil, false
}

func (e Expr) Add(o Expr) Expr {
	out := e.clone()
	for _, t := range o.terms {
		out.addTerm(t.coef, t.mono)
	}
	return out
}

func (e Expr) Neg() Expr {
	out := Expr{terms: make(map[string]term, len(e.terms))}
	for k, t := range e.terms {
		out.terms[k] = term{coef: new(big.Rat).Neg(t.coef), mono: t.mono}
	}
	return out
}

func (e Expr) Sub(o Expr) Expr { return e.Add(o.Neg()) }

func (e Expr) Mul(o Expr) Expr {
	out := Expr{terms: map[string]term{}}
	for _, a := range e.terms {
		for _, b := range o.terms {
			out.addTerm(new(big.Rat).Mul(a.coef, b.coef), a.mono.mul(b.mono))
		}
	}
	return out
}

func (e Expr) Scale(r *big.Rat) Expr {
	out := Expr{terms: map[string]term{}}
	for _, t := range e.terms {
		out.addTerm(new(big.Rat).Mul(t.coef, r), t.mono)
	}
	return out
}

func (e Expr) Equal(o Expr) bool {
	if len(e.terms) != len(o.terms) {
		return false
	}
	for k, t := range e.terms {
		u, ok := o.terms[k]
		if !ok || t.coef.Cmp(u.coef) != 0 {
			return false
		}
	}
	return true
}

func (e Expr) leading() term {
	var best term
	first := true
	for _, t := range e.terms {
		if first || lexCompare(t.mono, best.mono) > 0 {
			best = t
			first = false
		}
	}
	return best
}

// maxDivisionSteps bounds Divide on inputs that do not divide evenly.
const maxDivisionSteps = 10000

// Divide returns q with q*d == e when d divides e exactly.
func (e Expr) Divide(d Expr) (Expr, bool) {
	if d.IsZero() {
		return Expr{}, false
	}
	if c, ok := d.IsConst(); ok {
		return e.Scale(new(big.Rat).Inv(c)), true
	}

	lead := d.leading()
	rem := e.clone()
	var q Expr
	for steps := 0; !rem.IsZero(); steps++ {
		if steps > maxDivisionSteps {
			return Expr{}, false
		}
		lt := rem.leading()
		m, ok := lt.mono.div(lead.mono)
		if !ok {
			return Expr{}, false
		}
		step := Expr{}
		step.addTerm(new(big.Rat).Quo(lt.coef, lead.coef), m)
		q = q.Add(step)
		rem = rem.Sub(step.Mul(d))
	}
	return q, true
}

// Sign reports the sign of e for strictly positive symbol values. It is
// definite only when every coefficient shares one sign.
func (e Expr) Sign() (int, bool) {
	if e.IsZero() {
		return 0, true
	}
	sign := 0
	for _, t := range e.terms {
		s := t.coef.Sign()
		if sign == 0 {
			sign = s
		} else if s != sign {
			return 0, false
		}
	}
	return sign, true
}

// Symbols lists the symbol names appearing in e, sorted.
func (e Expr) Symbols() []string {
	seen := map[string]bool{}
	for _, t := range e.terms {
		for name := range t.mono {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eval substitutes exact values for every symbol.
func (e Expr) Eval(values map[string]*big.Rat) (*big.Rat, error) {
	sum := new(big.Rat)
	for _, t := range e.terms {
		v := new(big.Rat).Set(t.coef)
		for name, exp := range t.mono {
			x, ok := values[name]
			if !ok {
				return nil, &UnboundError{Symbol: name}
			}
			for i := 0; i < exp; i++ {
				v.Mul(v, x)
			}
		}
		sum.Add(sum, v)
	}
	return sum, nil
}

func (e Expr) sortedTerms() []term {
	out := make([]term, 0, len(e.terms))
	for _, t := range e.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return lexCompare(out[i].mono, out[j].mono) > 0
	})
	return out
}

func (e Expr) String() string {
	if e.IsZero() {
		return "0"
	}
	var b strings.Builder
	for i, t := range e.sortedTerms() {
		c := new(big.Rat).Abs(t.coef)
		switch {
		case i == 0 && t.coef.Sign() < 0:
			b.WriteString("-")
		case i > 0 && t.coef.Sign() < 0:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		mono := t.mono.key()
		one := c.Cmp(big.NewRat(1, 1)) == 0
		if !one || mono == "" {
			f, _ := c.Float64()
			b.WriteString(strconv.FormatFloat(f, 'g', 6, 64))
			if mono != "" {
				b.WriteString("*")
			}
		}
		b.WriteString(mono)
	}
	return b.String()
}
