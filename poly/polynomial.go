// Package poly implements dense polynomials over field.Element and
// barycentric Lagrange interpolation, per spec §4.B.
package poly

import (
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
)

// Polynomial is a dense coefficient vector, lowest degree first, matching
// original_source/libs/math/src/polynomial/ops.rs's representation.
type Polynomial struct {
	modulus *field.Modulus
	coeffs  []field.Element
}

// New builds a polynomial from its coefficients (constant term first) and
// canonicalizes it by dropping trailing zero coefficients.
func New(m *field.Modulus, coeffs []field.Element) *Polynomial {
	p := &Polynomial{modulus: m, coeffs: append([]field.Element(nil), coeffs...)}
	p.canonicalize()
	return p
}

// Constant builds the degree-0 polynomial equal to c.
func Constant(c field.Element) *Polynomial {
	return New(c.Modulus(), []field.Element{c})
}

func (p *Polynomial) canonicalize() {
	n := len(p.coeffs)
	for n > 1 && p.coeffs[n-1].IsZero() {
		n--
	}
	p.coeffs = p.coeffs[:n]
}

// Degree returns the polynomial's degree (0 for the zero polynomial).
func (p *Polynomial) Degree() int {
	if len(p.coeffs) == 0 {
		return 0
	}
	return len(p.coeffs) - 1
}

// Coefficients returns the dense coefficient vector, constant term first.
func (p *Polynomial) Coefficients() []field.Element {
	return append([]field.Element(nil), p.coeffs...)
}

func (p *Polynomial) coeffAt(i int) field.Element {
	if i < len(p.coeffs) {
		return p.coeffs[i]
	}
	return field.Zero(p.modulus)
}

// Add returns p + q.
func (p *Polynomial) Add(q *Polynomial) *Polynomial {
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	out := make([]field.Element, n)
	for i := 0; i < n; i++ {
		out[i] = p.coeffAt(i).Add(q.coeffAt(i))
	}
	return New(p.modulus, out)
}

// Sub returns p - q.
func (p *Polynomial) Sub(q *Polynomial) *Polynomial {
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	out := make([]field.Element, n)
	for i := 0; i < n; i++ {
		out[i] = p.coeffAt(i).Sub(q.coeffAt(i))
	}
	return New(p.modulus, out)
}

// Neg returns -p.
func (p *Polynomial) Neg() *Polynomial {
	out := make([]field.Element, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = c.Neg()
	}
	return New(p.modulus, out)
}

// Mul returns p * q, panicking if the resulting degree would overflow a
// sane bound (spec §4.B "* degree-checks against overflow"). Products here
// reach the bit width (the zero-indicator polynomial) but stay far below the
// bound, so this is a defensive invariant check rather than a real limit.
func (p *Polynomial) Mul(q *Polynomial) *Polynomial {
	const maxDegree = 1 << 20
	if p.Degree()+q.Degree() > maxDegree {
		panic("poly: resulting degree exceeds sane bound")
	}
	out := make([]field.Element, len(p.coeffs)+len(q.coeffs)-1)
	for i := range out {
		out[i] = field.Zero(p.modulus)
	}
	for i, a := range p.coeffs {
		if a.IsZero() {
			continue
		}
		for j, b := range q.coeffs {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return New(p.modulus, out)
}

// DivMod divides p by divisor, returning (quotient, remainder). Requires a
// non-zero canonicalized divisor (spec §4.B).
func (p *Polynomial) DivMod(divisor *Polynomial) (quotient, remainder *Polynomial, err error) {
	if divisor.Degree() == 0 && divisor.coeffAt(0).IsZero() {
		return nil, nil, errs.ErrDivByZero
	}
	rem := append([]field.Element(nil), p.coeffs...)
	divDeg := divisor.Degree()
	lead := divisor.coeffAt(divDeg)
	leadInv, err := field.One(p.modulus).Div(lead)
	if err != nil {
		return nil, nil, err
	}
	quotDeg := p.Degree() - divDeg
	if quotDeg < 0 {
		return New(p.modulus, []field.Element{field.Zero(p.modulus)}), New(p.modulus, rem), nil
	}
	q := make([]field.Element, quotDeg+1)
	for i := quotDeg; i >= 0; i-- {
		if i+divDeg >= len(rem) {
			q[i] = field.Zero(p.modulus)
			continue
		}
		coef := rem[i+divDeg].Mul(leadInv)
		q[i] = coef
		if coef.IsZero() {
			continue
		}
		for j := 0; j <= divDeg; j++ {
			rem[i+j] = rem[i+j].Sub(coef.Mul(divisor.coeffAt(j)))
		}
	}
	return New(p.modulus, q), New(p.modulus, rem), nil
}

// Evaluate computes p(x) via Horner's method.
func (p *Polynomial) Evaluate(x field.Element) field.Element {
	result := field.Zero(p.modulus)
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coeffs[i])
	}
	return result
}
