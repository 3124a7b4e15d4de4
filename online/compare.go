package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// PrepCompareMaterial is the offline bundle COMPARE consumes: a random
// mask r with known bit decomposition, and its reduction r' modulo
// 2^(k+kappa), per spec §4.I "PREP-COMPARE produces bundles (r, bits(r), r')".
type PrepCompareMaterial struct {
	R      field.Element
	Bits   []field.Element
	RPrime field.Element
}

// NewCompare computes the sign bit of x - y, given shares of both operands
// and fresh PREP-COMPARE material. It reveals c = x - y + r, then recovers
// the borrow out of a mixed-bit-adder subtraction of bits(r) from the
// public bits(c); no borrow means x - y was negative (spec §4.I "COMPARE").
func NewCompare(ctx *Context, round sm.Round, x, y field.Element, material PrepCompareMaterial) (sm.State, sm.Output, error) {
	masked := x.Sub(y).Add(material.R)
	reveal, out, err := NewReveal(ctx, round, ctx.Degree, masked, RevealMode{})
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &compareAwaitReveal{ctx: ctx, reveal: reveal, material: material}, out, nil
}

type compareAwaitReveal struct {
	ctx      *Context
	reveal   *Reveal
	material PrepCompareMaterial
}

func (c *compareAwaitReveal) Round() sm.Round          { return c.reveal.Round() }
func (c *compareAwaitReveal) IsCompleted() bool        { return c.reveal.IsCompleted() }
func (c *compareAwaitReveal) Accept(m sm.Message) error { return c.reveal.Accept(m) }

func (c *compareAwaitReveal) Transition() (sm.State, sm.Output, error) {
	_, out, err := c.reveal.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	masked := out.Final.(field.Element)
	width := len(c.material.Bits)
	publicBits := bitsOf(c.ctx.Modulus, masked, width)
	adder, adderOut, err := NewMixedBitAdder(c.ctx, c.reveal.Round()+1, publicBits, negateBits(c.ctx.Modulus, c.material.Bits))
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &compareAwaitSubtract{ctx: c.ctx, inner: adder}, adderOut, nil
}

// compareAwaitSubtract finishes the bit-adder that computes
// bits(c) - bits(r) and turns its carry-out into a public {0,1} sign bit.
type compareAwaitSubtract struct {
	ctx   *Context
	inner sm.State
}

func (c *compareAwaitSubtract) Round() sm.Round          { return c.inner.Round() }
func (c *compareAwaitSubtract) IsCompleted() bool        { return c.inner.IsCompleted() }
func (c *compareAwaitSubtract) Accept(m sm.Message) error { return c.inner.Accept(m) }

func (c *compareAwaitSubtract) Transition() (sm.State, sm.Output, error) {
	next, out, err := c.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &compareAwaitSubtract{ctx: c.ctx, inner: next}, out, nil
	}
	result := out.Final.(bitAdderResult)
	lessThan := field.One(c.ctx.Modulus).Sub(result.CarryOut)
	return nil, sm.Output{IsFinal: true, Final: lessThan}, nil
}
