package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// DivisionMaterial bundles the preprocessing DIV-INT-SECRET draws for each
// of its phases: a BIT-DECOMPOSE mask for extracting the divisor's scale,
// and one PrepModuloMaterial per TRUNC-PR round of the Newton iteration
// (spec §4.I "DIV-INT-SECRET").
type DivisionMaterial struct {
	ScaleMask    BitDecomposeMaterial
	TruncRounds  []PrepModuloMaterial
	Alpha        float64 // the fixed-point approximation base, spec §4.I "1/d ≈ α · 2^-ceil(log2 d)"
	WordBits     int     // k
}

// NewDivIntSecret divides a secret numerator by a secret divisor via Newton
// iteration: starting from a fixed-point reciprocal approximation derived
// from the divisor's highest set bit, it refines y <- y*(2 - d*y) for
// ceil(log2(k/2)/log2(alpha)) rounds, each consuming one TRUNC-PR (spec
// §4.I "DIV-INT-SECRET"). The scale extraction (BIT-DECOMPOSE + POSTFIX-OR
// + SCALE) runs first to produce the initial approximation's exponent.
func NewDivIntSecret(ctx *Context, round sm.Round, numerator, divisor field.Element, material DivisionMaterial) (sm.State, sm.Output, error) {
	decomp, out, err := NewBitDecompose(ctx, round, divisor, material.ScaleMask)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &divAwaitScale{ctx: ctx, inner: decomp, numerator: numerator, divisor: divisor, material: material}, out, nil
}

type divAwaitScale struct {
	ctx       *Context
	inner     sm.State
	numerator field.Element
	divisor   field.Element
	material  DivisionMaterial
}

func (d *divAwaitScale) Round() sm.Round          { return d.inner.Round() }
func (d *divAwaitScale) IsCompleted() bool        { return d.inner.IsCompleted() }
func (d *divAwaitScale) Accept(m sm.Message) error { return d.inner.Accept(m) }

func (d *divAwaitScale) Transition() (sm.State, sm.Output, error) {
	next, out, err := d.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &divAwaitScale{ctx: d.ctx, inner: next, numerator: d.numerator, divisor: d.divisor, material: d.material}, out, nil
	}
	bits := out.Final.(bitAdderResult).Sum.Bits
	postfix, orOut, err := NewPostfixOr(d.ctx, d.inner.Round()+1, reverse(bits))
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &divAwaitPostfixOr{ctx: d.ctx, inner: postfix, numerator: d.numerator, divisor: d.divisor, material: d.material}, orOut, nil
}

type divAwaitPostfixOr struct {
	ctx       *Context
	inner     sm.State
	numerator field.Element
	divisor   field.Element
	material  DivisionMaterial
}

func (d *divAwaitPostfixOr) Round() sm.Round          { return d.inner.Round() }
func (d *divAwaitPostfixOr) IsCompleted() bool        { return d.inner.IsCompleted() }
func (d *divAwaitPostfixOr) Accept(m sm.Message) error { return d.inner.Accept(m) }

func (d *divAwaitPostfixOr) Transition() (sm.State, sm.Output, error) {
	next, out, err := d.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &divAwaitPostfixOr{ctx: d.ctx, inner: next, numerator: d.numerator, divisor: d.divisor, material: d.material}, out, nil
	}
	postfix := out.Final.([]field.Element)
	scale := Scale(d.ctx.Modulus, postfix, d.material.WordBits)
	alpha := field.FromUint64(d.ctx.Modulus, uint64(d.material.Alpha))
	y := alpha.Mul(scale)
	rounds := len(d.material.TruncRounds)
	return newtonIteration(d.ctx, d.inner.Round()+1, d.numerator, d.divisor, y, d.material, 0, rounds)
}

// newtonIteration runs one TRUNC-PR-bounded refinement step y <- y*(2-d*y),
// cascading through material.TruncRounds entries until exhausted, at which
// point it returns numerator*y as the quotient.
func newtonIteration(ctx *Context, round sm.Round, numerator, divisor, y field.Element, material DivisionMaterial, i, total int) (sm.State, sm.Output, error) {
	if i >= total {
		quotient := numerator.Mul(y)
		return nil, sm.Output{IsFinal: true, Final: quotient}, nil
	}
	two := field.FromUint64(ctx.Modulus, 2)
	refined := two.Sub(divisor.Mul(y))
	trunc, out, err := NewTruncPr(ctx, round, y.Mul(refined), material.WordBits/2, material.TruncRounds[i])
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &divAwaitTrunc{ctx: ctx, inner: trunc, numerator: numerator, divisor: divisor, material: material, iter: i, total: total}, out, nil
}

type divAwaitTrunc struct {
	ctx                 *Context
	inner               sm.State
	numerator, divisor  field.Element
	material            DivisionMaterial
	iter, total         int
}

func (d *divAwaitTrunc) Round() sm.Round          { return d.inner.Round() }
func (d *divAwaitTrunc) IsCompleted() bool        { return d.inner.IsCompleted() }
func (d *divAwaitTrunc) Accept(m sm.Message) error { return d.inner.Accept(m) }

func (d *divAwaitTrunc) Transition() (sm.State, sm.Output, error) {
	next, out, err := d.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &divAwaitTrunc{ctx: d.ctx, inner: next, numerator: d.numerator, divisor: d.divisor, material: d.material, iter: d.iter, total: d.total}, out, nil
	}
	y := out.Final.(field.Element)
	return newtonIteration(d.ctx, d.inner.Round()+1, d.numerator, d.divisor, y, d.material, d.iter+1, d.total)
}

// NewModSecretDivisor computes x mod y for two secret shares as
// x - y*floor(x/y): it runs DIV-INT-SECRET for the quotient, then one MULT
// round to recombine y*quotient as a fresh share, then subtracts locally
// (spec §4.I "MODULO" secret/secret case, which draws the same PREP-DIV
// material DIV-INT-SECRET does since both need the same quotient).
func NewModSecretDivisor(ctx *Context, round sm.Round, x, y field.Element, material DivisionMaterial) (sm.State, sm.Output, error) {
	inner, out, err := NewDivIntSecret(ctx, round, x, y, material)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &modAwaitQuotient{ctx: ctx, inner: inner, x: x, y: y}, out, nil
}

type modAwaitQuotient struct {
	ctx   *Context
	inner sm.State
	x, y  field.Element
}

func (d *modAwaitQuotient) Round() sm.Round           { return d.inner.Round() }
func (d *modAwaitQuotient) IsCompleted() bool         { return d.inner.IsCompleted() }
func (d *modAwaitQuotient) Accept(m sm.Message) error { return d.inner.Accept(m) }

func (d *modAwaitQuotient) Transition() (sm.State, sm.Output, error) {
	next, out, err := d.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &modAwaitQuotient{ctx: d.ctx, inner: next, x: d.x, y: d.y}, out, nil
	}
	quotient := out.Final.(field.Element)
	mult, multOut, err := NewMult(d.ctx, d.inner.Round()+1, d.y, quotient)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &modAwaitProduct{ctx: d.ctx, inner: mult, x: d.x}, multOut, nil
}

type modAwaitProduct struct {
	ctx   *Context
	inner sm.State
	x     field.Element
}

func (d *modAwaitProduct) Round() sm.Round           { return d.inner.Round() }
func (d *modAwaitProduct) IsCompleted() bool         { return d.inner.IsCompleted() }
func (d *modAwaitProduct) Accept(m sm.Message) error { return d.inner.Accept(m) }

func (d *modAwaitProduct) Transition() (sm.State, sm.Output, error) {
	next, out, err := d.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &modAwaitProduct{ctx: d.ctx, inner: next, x: d.x}, out, nil
	}
	product := out.Final.(field.Element)
	return nil, sm.Output{IsFinal: true, Final: d.x.Sub(product)}, nil
}

func reverse(bits []field.Element) []field.Element {
	out := make([]field.Element, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}
