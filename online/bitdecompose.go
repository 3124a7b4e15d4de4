package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// BitDecomposeMaterial is the preprocessing bundle BIT-DECOMPOSE consumes:
// a random mask R and its known bitwise decomposition, both already shared
// (spec §4.I "BIT-DECOMPOSE").
type BitDecomposeMaterial struct {
	R     field.Element
	Bits  []field.Element
	Width int
}

// NewBitDecompose computes bits(x) = bits(x + R) - bits(R): it reveals
// x + R, locally expands the public sum into its known bit vector, then
// runs a mixed bit-adder to subtract bits(R) (equivalently, add its
// two's-complement) and recover bits(x) as fresh secret shares.
func NewBitDecompose(ctx *Context, round sm.Round, x field.Element, material BitDecomposeMaterial) (sm.State, sm.Output, error) {
	masked := x.Add(material.R)
	reveal, out, err := NewReveal(ctx, round, ctx.Degree, masked, RevealMode{})
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &bitDecomposeAwaitReveal{ctx: ctx, reveal: reveal, material: material}, out, nil
}

// bitDecomposeAwaitReveal wraps the masked-value reveal; once the plaintext
// sum x+R is known, every party can expand it into public bits locally and
// hand off to a MixedBitAdder to subtract bits(R).
type bitDecomposeAwaitReveal struct {
	ctx      *Context
	reveal   *Reveal
	material BitDecomposeMaterial
}

func (b *bitDecomposeAwaitReveal) Round() sm.Round      { return b.reveal.Round() }
func (b *bitDecomposeAwaitReveal) IsCompleted() bool    { return b.reveal.IsCompleted() }
func (b *bitDecomposeAwaitReveal) Accept(m sm.Message) error { return b.reveal.Accept(m) }

func (b *bitDecomposeAwaitReveal) Transition() (sm.State, sm.Output, error) {
	_, out, err := b.reveal.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	sum := out.Final.(field.Element)
	publicBits := bitsOf(b.ctx.Modulus, sum, b.material.Width)
	return NewMixedBitAdder(b.ctx, b.reveal.Round()+1, publicBits, negateBits(b.ctx.Modulus, b.material.Bits))
}

// bitsOf expands a public field element into its width-bit little-endian
// representation, treating it as an unsigned integer below 2^width.
func bitsOf(m *field.Modulus, v field.Element, width int) []field.Element {
	out := make([]field.Element, width)
	shifted := v
	for i := 0; i < width; i++ {
		rem, _ := shifted.SignedFloorMod(field.FromUint64(m, 2))
		out[i] = rem
		shifted, _ = shifted.RightShift(1)
	}
	return out
}

// negateBits returns the share-wise additive inverse of a bit vector, used
// to turn a subtraction into the mixed-bit-adder's addition (x+R)-R.
func negateBits(m *field.Modulus, bits []field.Element) []field.Element {
	out := make([]field.Element, len(bits))
	for i, b := range bits {
		out[i] = b.Neg()
	}
	return out
}
