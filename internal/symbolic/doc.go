// Package symbolic implements exact polynomial arithmetic over named
// symbols with big.Rat coefficients.
//
// It carries just enough algebra to run a Routh-Hurwitz array with
// unresolved controller gains: [Expr] (multivariate polynomials), [Ratio]
// (quotients of Exprs, with cheap cancellation) and [Poly] (polynomials in s
// with Expr coefficients). Symbols are assumed strictly positive when a sign
// is requested, so an Expr has a definite sign only when all its
// coefficients agree.
package symbolic
