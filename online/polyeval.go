package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// PolyEvalMaterial is the preprocessing bundle POLY-EVAL consumes: a share
// of an invertible random mask r, and shares of its negative powers r^-i
// for i = 0..d, letting each party turn a revealed (x*r)^i back into a
// share of x^i without ever revealing x (spec §4.I "POLY-EVAL").
type PolyEvalMaterial struct {
	R         field.Element
	InversePowers []field.Element // InversePowers[i] is a share of r^-i
}

// NewPolyEval evaluates P(x) = Σ coeffs[i] * x^i on a secret share x,
// without revealing x itself: it reveals x*r via PUB-MULT, then locally
// recombines (x*r)^i * r^-i = x^i for each term.
func NewPolyEval(ctx *Context, round sm.Round, x field.Element, coeffs []field.Element, material PolyEvalMaterial) (sm.State, sm.Output, error) {
	masking, out, err := NewPubMult(ctx, round, x, material.R)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &polyEvalAwaitMask{ctx: ctx, masking: masking, coeffs: coeffs, material: material}, out, nil
}

type polyEvalAwaitMask struct {
	ctx      *Context
	masking  *PubMult
	coeffs   []field.Element
	material PolyEvalMaterial
}

func (p *polyEvalAwaitMask) Round() sm.Round      { return p.masking.Round() }
func (p *polyEvalAwaitMask) IsCompleted() bool    { return p.masking.IsCompleted() }
func (p *polyEvalAwaitMask) Accept(m sm.Message) error { return p.masking.Accept(m) }

func (p *polyEvalAwaitMask) Transition() (sm.State, sm.Output, error) {
	_, out, err := p.masking.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	xr := out.Final.(field.Element)
	result := field.Zero(p.ctx.Modulus)
	power := field.One(p.ctx.Modulus)
	for i, c := range p.coeffs {
		xi := power.Mul(p.material.InversePowers[i])
		result = result.Add(c.Mul(xi))
		power = power.Mul(xr)
	}
	return nil, sm.Output{IsFinal: true, Final: result}, nil
}
