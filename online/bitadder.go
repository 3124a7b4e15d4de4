package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// bitAdderResult is the shared final output shape every member of the
// BIT-ADDER family produces: the sum's bitwise shares, least-significant
// first, plus the final carry-out bit.
type bitAdderResult struct {
	Sum      BitwiseNumberShares
	CarryOut field.Element
}

// NewSecretBitAdder adds two secret bitwise numbers, both held as per-party
// shares, via a Kogge-Stone prefix-carry network: O(log W) layers, each a
// single BatchMult round (spec §4.I "BIT-ADDER family", "SecretBitAdder").
func NewSecretBitAdder(ctx *Context, round sm.Round, x, y []field.Element) (sm.State, sm.Output, error) {
	width := len(x)
	pairs := make([]Pair, width)
	for i := range pairs {
		pairs[i] = Pair{A: x[i], B: y[i]}
	}
	batch, out, err := NewBatchMult(ctx, round, pairs)
	if err != nil {
		return nil, sm.Output{}, err
	}
	st := &stage{batch: batch, next: func(g []field.Element) (sm.State, sm.Output, error) {
		p := make([]field.Element, width)
		for i := range p {
			two := field.FromUint64(ctx.Modulus, 2)
			p[i] = x[i].Add(y[i]).Sub(two.Mul(g[i]))
		}
		return kogeStoneLayer(ctx, round+1, x, y, g, p, 1)
	}}
	return st, out, nil
}

// NewMixedBitAdder is the BIT-ADDER family's public+secret variant: x is a
// publicly known bit vector, y a secret one. The initial generate/propagate
// computation collapses to a local linear combination since x is public,
// skipping the first MULT round entirely (spec §4.I "MixedBitAdder").
func NewMixedBitAdder(ctx *Context, round sm.Round, xPublic []field.Element, y []field.Element) (sm.State, sm.Output, error) {
	width := len(xPublic)
	g := make([]field.Element, width)
	p := make([]field.Element, width)
	for i := 0; i < width; i++ {
		if xPublic[i].IsZero() {
			g[i] = field.Zero(ctx.Modulus)
			p[i] = y[i]
		} else {
			g[i] = y[i]
			two := field.FromUint64(ctx.Modulus, 2)
			p[i] = field.One(ctx.Modulus).Sub(two.Mul(y[i])).Add(xPublic[i])
		}
	}
	return kogeStoneLayer(ctx, round, xPublic, y, g, p, 1)
}

// NewBitAdder is the BIT-ADDER family's top-level entry point, consuming
// precomputed left*right products supplied by preprocessing (spec §4.I,
// "top-level BitAdder consuming precomputed left·right products") so that
// even the first generate/propagate layer needs no online multiplication.
func NewBitAdder(ctx *Context, round sm.Round, x, y, xyProduct []field.Element) (sm.State, sm.Output, error) {
	width := len(x)
	g := append([]field.Element(nil), xyProduct...)
	p := make([]field.Element, width)
	two := field.FromUint64(ctx.Modulus, 2)
	for i := 0; i < width; i++ {
		p[i] = x[i].Add(y[i]).Sub(two.Mul(xyProduct[i]))
	}
	return kogeStoneLayer(ctx, round, x, y, g, p, 1)
}

// kogeStoneLayer advances the Kogge-Stone prefix computation by one
// distance-doubling step: positions i >= distance combine with position
// i-distance via one MULT for the new generate bit and a second MULT for the
// new propagate bit, both batched into a single round of communication.
// Finishing when distance >= width collapses the
// prefix carries into the sum's bit shares.
func kogeStoneLayer(ctx *Context, round sm.Round, x, y, g, p []field.Element, distance int) (sm.State, sm.Output, error) {
	width := len(x)
	if distance >= width {
		sum := make([]field.Element, width)
		sum[0] = p[0]
		for i := 1; i < width; i++ {
			sum[i] = p[i].Add(g[i-1]).Sub(field.FromUint64(ctx.Modulus, 2).Mul(p[i]).Mul(g[i-1]))
		}
		result := bitAdderResult{Sum: BitwiseNumberShares{Bits: sum}, CarryOut: g[width-1]}
		return nil, sm.Output{IsFinal: true, Final: result}, nil
	}

	active := make([]int, 0, width-distance)
	pairs := make([]Pair, 0, 2*(width-distance))
	for i := distance; i < width; i++ {
		active = append(active, i)
		pairs = append(pairs, Pair{A: p[i], B: g[i-distance]}, Pair{A: p[i], B: p[i-distance]})
	}
	batch, out, err := NewBatchMult(ctx, round, pairs)
	if err != nil {
		return nil, sm.Output{}, err
	}
	gOld, pOld := append([]field.Element(nil), g...), append([]field.Element(nil), p...)
	st := &stage{batch: batch, next: func(products []field.Element) (sm.State, sm.Output, error) {
		gNext, pNext := append([]field.Element(nil), gOld...), append([]field.Element(nil), pOld...)
		for k, i := range active {
			pg := products[2*k]
			pp := products[2*k+1]
			gNext[i] = gOld[i].Add(pg)
			pNext[i] = pp
		}
		return kogeStoneLayer(ctx, round+1, x, y, gNext, pNext, distance*2)
	}}
	return st, out, nil
}
