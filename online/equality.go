package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// EqualityMaterial is the offline bundle both output-equality protocols
// consume: a bitwise random mask and the PolyEvalMaterial needed to
// evaluate the zero-indicator polynomial over the resulting Hamming
// distance (spec §4.I "PRIVATE-OUTPUT-EQUALITY", "PUBLIC-OUTPUT-EQUALITY").
type EqualityMaterial struct {
	Mask       BitwiseNumberShares
	PolyCoeffs []field.Element
	Poly       PolyEvalMaterial
}

// NewPrivateOutputEquality tests x == y, keeping the result secret-shared:
// it masks x - y by a bitwise random, reveals the masked difference,
// computes the Hamming distance against the mask's known bits, then
// evaluates a small zero-indicator polynomial over that distance via
// POLY-EVAL (spec §4.I "PRIVATE-OUTPUT-EQUALITY").
func NewPrivateOutputEquality(ctx *Context, round sm.Round, x, y field.Element, material EqualityMaterial) (sm.State, sm.Output, error) {
	return newOutputEquality(ctx, round, x, y, material, false)
}

// NewPublicOutputEquality is PRIVATE-OUTPUT-EQUALITY's public-result
// sibling: the same construction, but the final equality bit is revealed
// rather than left secret-shared (spec §4.I "PUBLIC-OUTPUT-EQUALITY").
func NewPublicOutputEquality(ctx *Context, round sm.Round, x, y field.Element, material EqualityMaterial) (sm.State, sm.Output, error) {
	return newOutputEquality(ctx, round, x, y, material, true)
}

func newOutputEquality(ctx *Context, round sm.Round, x, y field.Element, material EqualityMaterial, public bool) (sm.State, sm.Output, error) {
	maskValue := material.Mask.Value(ctx.Modulus)
	diff := x.Sub(y).Add(maskValue)
	reveal, out, err := NewReveal(ctx, round, ctx.Degree, diff, RevealMode{})
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &equalityAwaitReveal{ctx: ctx, reveal: reveal, material: material, public: public}, out, nil
}

type equalityAwaitReveal struct {
	ctx      *Context
	reveal   *Reveal
	material EqualityMaterial
	public   bool
}

func (e *equalityAwaitReveal) Round() sm.Round          { return e.reveal.Round() }
func (e *equalityAwaitReveal) IsCompleted() bool        { return e.reveal.IsCompleted() }
func (e *equalityAwaitReveal) Accept(m sm.Message) error { return e.reveal.Accept(m) }

func (e *equalityAwaitReveal) Transition() (sm.State, sm.Output, error) {
	_, out, err := e.reveal.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	masked := out.Final.(field.Element)
	width := len(e.material.Mask.Bits)
	publicBits := bitsOf(e.ctx.Modulus, masked, width)

	// Hamming distance between the public bits of (x-y)+mask and mask's
	// own known bits: zero iff x == y, since a zero difference leaves the
	// mask's bit pattern untouched.
	distance := field.Zero(e.ctx.Modulus)
	two := field.FromUint64(e.ctx.Modulus, 2)
	for i, maskBit := range e.material.Mask.Bits {
		xorBit := publicBits[i].Add(maskBit).Sub(two.Mul(publicBits[i]).Mul(maskBit))
		distance = distance.Add(xorBit)
	}

	polyState, polyOut, err := NewPolyEval(e.ctx, e.reveal.Round()+1, distance, e.material.PolyCoeffs, e.material.Poly)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &equalityAwaitPoly{ctx: e.ctx, inner: polyState, public: e.public}, polyOut, nil
}

type equalityAwaitPoly struct {
	ctx    *Context
	inner  sm.State
	public bool
}

func (e *equalityAwaitPoly) Round() sm.Round          { return e.inner.Round() }
func (e *equalityAwaitPoly) IsCompleted() bool        { return e.inner.IsCompleted() }
func (e *equalityAwaitPoly) Accept(m sm.Message) error { return e.inner.Accept(m) }

func (e *equalityAwaitPoly) Transition() (sm.State, sm.Output, error) {
	next, out, err := e.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &equalityAwaitPoly{ctx: e.ctx, inner: next, public: e.public}, out, nil
	}
	indicator := out.Final.(field.Element)
	if !e.public {
		return nil, sm.Output{IsFinal: true, Final: indicator}, nil
	}
	reveal, revealOut, err := NewReveal(e.ctx, e.inner.Round()+1, e.ctx.Degree, indicator, RevealMode{})
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &equalityAwaitFinalReveal{inner: reveal}, revealOut, nil
}

type equalityAwaitFinalReveal struct {
	inner *Reveal
}

func (e *equalityAwaitFinalReveal) Round() sm.Round          { return e.inner.Round() }
func (e *equalityAwaitFinalReveal) IsCompleted() bool        { return e.inner.IsCompleted() }
func (e *equalityAwaitFinalReveal) Accept(m sm.Message) error { return e.inner.Accept(m) }

func (e *equalityAwaitFinalReveal) Transition() (sm.State, sm.Output, error) {
	return e.inner.Transition()
}
