package poly

import (
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
)

// Point is one (x, y) sample of a polynomial.
type Point struct {
	X field.Element
	Y field.Element
}

// Lagrange precomputes barycentric weights and, for evaluation at zero,
// per-abscissa coefficients, following
// original_source/libs/math/src/decoders/lagrange.rs. Construction is
// O(n^2); Interpolate (evaluation at zero) is O(n) once built.
type Lagrange struct {
	modulus      *field.Modulus
	abscissas    []field.Element
	weights      map[string]field.Element
	coefficients map[string]field.Element
}

func key(x field.Element) string {
	return string(x.Encode())
}

// NewLagrange builds a Lagrange setup for the given abscissas.
func NewLagrange(m *field.Modulus, abscissas []field.Element) (*Lagrange, error) {
	weights := make(map[string]field.Element, len(abscissas))
	coefs := make([]field.Element, len(abscissas))
	w := field.Zero(m)
	for i, xi := range abscissas {
		xiInv, err := field.One(m).Div(xi.Neg())
		if err != nil {
			return nil, errs.ErrMismatchedAbscissas
		}
		wi := field.One(m)
		for j, xj := range abscissas {
			if j == i {
				continue
			}
			wi = wi.Mul(xi.Sub(xj))
		}
		if wi.IsZero() {
			return nil, errs.ErrMismatchedAbscissas
		}
		wiInv, err := field.One(m).Div(wi)
		if err != nil {
			return nil, errs.ErrMismatchedAbscissas
		}
		ci := xiInv.Mul(wiInv)
		w = w.Add(ci)
		coefs[i] = ci
		weights[key(xi)] = wiInv
	}
	if w.IsZero() {
		return nil, errs.ErrMismatchedAbscissas
	}
	wInv, err := field.One(m).Div(w)
	if err != nil {
		return nil, errs.ErrMismatchedAbscissas
	}
	coefficients := make(map[string]field.Element, len(abscissas))
	for i, x := range abscissas {
		coefficients[key(x)] = coefs[i].Mul(wInv)
	}
	return &Lagrange{
		modulus:      m,
		abscissas:    append([]field.Element(nil), abscissas...),
		weights:      weights,
		coefficients: coefficients,
	}, nil
}

// Abscissas returns the x-coordinates this setup was built for.
func (l *Lagrange) Abscissas() []field.Element { return append([]field.Element(nil), l.abscissas...) }

// Interpolate evaluates the interpolating polynomial through points at zero,
// in O(n), per spec §4.B / testable property 3.
func (l *Lagrange) Interpolate(points []Point) (field.Element, error) {
	if len(points) != len(l.abscissas) {
		return field.Element{}, errs.ErrMismatchedAbscissas
	}
	res := field.Zero(l.modulus)
	for _, pt := range points {
		ci, ok := l.coefficients[key(pt.X)]
		if !ok {
			return field.Element{}, errs.ErrMismatchedAbscissas
		}
		res = res.Add(ci.Mul(pt.Y))
	}
	return res, nil
}

// PartialTerm applies a single abscissa's Lagrange-at-zero coefficient to a
// y-value, without summing in the other terms. This lets one party
// contribute its term of a reconstruction without needing to see the rest
// (original_source/libs/math/src/decoders/lagrange.rs's `partial`).
func (l *Lagrange) PartialTerm(x, y field.Element) (field.Element, error) {
	ci, ok := l.coefficients[key(x)]
	if !ok {
		return field.Element{}, errs.ErrCoefficientNotFound
	}
	return ci.Mul(y), nil
}

// EvalAt evaluates the interpolating polynomial through points at an
// arbitrary x, in O(n), using the precomputed barycentric weights
// (original_source/libs/math/src/decoders/lagrange.rs's `eval`).
func (l *Lagrange) EvalAt(points []Point, x field.Element) (field.Element, error) {
	if len(points) != len(l.abscissas) {
		return field.Element{}, errs.ErrMismatchedAbscissas
	}
	top := field.Zero(l.modulus)
	bot := field.Zero(l.modulus)
	for _, pt := range points {
		ci := pt.X.Sub(x)
		if ci.IsZero() {
			return pt.Y, nil
		}
		wi, ok := l.weights[key(pt.X)]
		if !ok {
			return field.Element{}, errs.ErrCoefficientNotFound
		}
		term, err := wi.Neg().Div(ci)
		if err != nil {
			return field.Element{}, err
		}
		bot = bot.Add(term)
		top = top.Add(term.Mul(pt.Y))
	}
	return top.Div(bot)
}

// LagrangePolynomial constructs the full interpolating polynomial through
// points using the classic O(n^3) construction
// (original_source/libs/math/src/decoders/lagrange.rs's free function).
func LagrangePolynomial(m *field.Modulus, points []Point) (*Polynomial, error) {
	res := New(m, []field.Element{field.Zero(m)})
	for i, pi := range points {
		den := field.One(m)
		num := New(m, []field.Element{field.One(m)})
		for j, pj := range points {
			if i == j {
				continue
			}
			den = den.Mul(pi.X.Sub(pj.X))
			factor := New(m, []field.Element{pj.X.Neg(), field.One(m)})
			num = num.Mul(factor)
		}
		fac, err := pi.Y.Div(den)
		if err != nil {
			return nil, err
		}
		num = num.Mul(Constant(fac))
		res = res.Add(num)
	}
	return res, nil
}
