package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/sm"
)

// NewPostfixOr computes, for a bit vector v (most-significant first), the
// postfix-OR vector w where w[i] = OR(v[0..=i]), using or(a,b) = a+b-a*b
// in a binary tree of O(log W) BatchMult rounds (spec §4.I "POSTFIX-OR").
func NewPostfixOr(ctx *Context, round sm.Round, v []field.Element) (sm.State, sm.Output, error) {
	return postfixOrLayer(ctx, round, append([]field.Element(nil), v...), 1)
}

// postfixOrLayer combines each position with its predecessor at the given
// stride, doubling the stride each round until every prefix has been
// folded in (Kogge-Stone-shaped, mirroring the carry network in
// bitadder.go).
func postfixOrLayer(ctx *Context, round sm.Round, w []field.Element, stride int) (sm.State, sm.Output, error) {
	width := len(w)
	if stride >= width {
		return nil, sm.Output{IsFinal: true, Final: w}, nil
	}
	active := make([]int, 0, width-stride)
	pairs := make([]Pair, 0, width-stride)
	for i := stride; i < width; i++ {
		active = append(active, i)
		pairs = append(pairs, Pair{A: w[i], B: w[i-stride]})
	}
	batch, out, err := NewBatchMult(ctx, round, pairs)
	if err != nil {
		return nil, sm.Output{}, err
	}
	prev := append([]field.Element(nil), w...)
	st := &stage{batch: batch, next: func(products []field.Element) (sm.State, sm.Output, error) {
		next := append([]field.Element(nil), prev...)
		for k, i := range active {
			next[i] = prev[i].Add(prev[i-stride]).Sub(products[k])
		}
		return postfixOrLayer(ctx, round+1, next, stride*2)
	}}
	return st, out, nil
}

// Scale converts a postfix-OR vector into the scaling factor
// Σ 2^{f-i} (v[i-1] - v[i]), the highest-set-bit power used by DIV-INT-SECRET
// (spec §4.I "SCALE"). This is a purely local linear combination of
// already-available shares, so it needs no communication round.
func Scale(m *field.Modulus, postfixOr []field.Element, f int) field.Element {
	acc := field.Zero(m)
	for i := 1; i < len(postfixOr); i++ {
		diff := postfixOr[i-1].Sub(postfixOr[i])
		shift := f - i
		var term field.Element
		if shift >= 0 {
			term = diff.Mul(weight(m, shift))
		} else {
			inv, err := field.One(m).Div(weight(m, -shift))
			if err != nil {
				continue
			}
			term = diff.Mul(inv)
		}
		acc = acc.Add(term)
	}
	return acc
}
