// prepgen.go implements the PREP-* preprocessing generators of spec §4.H:
// ordinary joint state machines (the same RAN/RAN-BIT/MULT/PUB-MULT
// machinery online.go already drives for the online phase) run once per
// cluster to fill prep.Buffer with real correlated randomness, rather than
// the literal struct assembly a caller previously had to do by hand.
package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/sm"
)

// ids returns a stable party ordering shared by every context in ctxs; every
// generator in this file assumes all contexts agree on Parties/Modulus/Degree
// (they are one party's view each of the same cluster).
func ids(ctxs map[party.ID]*Context) []party.ID {
	for _, ctx := range ctxs {
		return ctx.Parties.IDs()
	}
	return nil
}

func modulusOf(ctxs map[party.ID]*Context) *field.Modulus {
	for _, ctx := range ctxs {
		return ctx.Modulus
	}
	return nil
}

// GenerateRandomElement runs RAN once, returning every party's fresh share
// of a jointly unknown field element (spec §4.I "RAN"). This is also the
// material PREP-RANDOM-INT hands the VRandomInteger protocol directly.
func GenerateRandomElement(ctxs map[party.ID]*Context) (map[party.ID]field.Element, error) {
	out, err := RunJointly(ids(ctxs), func(id party.ID) (sm.State, sm.Output, error) {
		return NewRan(ctxs[id], 0)
	})
	if err != nil {
		return nil, err
	}
	return castElements(out), nil
}

// GenerateRandomBit runs RAN followed by RAN-BIT, returning every party's
// share of a single uniformly random bit (spec §4.I "RAN-BIT"). This is the
// material PREP-RANDOM-BOOL hands VRandomBoolean directly.
func GenerateRandomBit(ctxs map[party.ID]*Context) (map[party.ID]BitwiseNumberShares, error) {
	a, err := GenerateRandomElement(ctxs)
	if err != nil {
		return nil, err
	}
	out, err := RunJointly(ids(ctxs), func(id party.ID) (sm.State, sm.Output, error) {
		return NewRanBit(ctxs[id], 0, a[id])
	})
	if err != nil {
		return nil, err
	}
	bits := make(map[party.ID]BitwiseNumberShares, len(out))
	for id, v := range out {
		bits[id] = v.(BitwiseNumberShares)
	}
	return bits, nil
}

// GenerateBitVector runs RAN-BIT width times, returning each party's share
// of width independent uniformly random bits, least-significant first.
func GenerateBitVector(ctxs map[party.ID]*Context, width int) (map[party.ID][]field.Element, error) {
	vectors := make(map[party.ID][]field.Element, len(ctxs))
	for id := range ctxs {
		vectors[id] = make([]field.Element, width)
	}
	for i := 0; i < width; i++ {
		bit, err := GenerateRandomBit(ctxs)
		if err != nil {
			return nil, err
		}
		for id, b := range bit {
			vectors[id][i] = b.Bits[0]
		}
	}
	return vectors, nil
}

// composedMask runs GenerateBitVector and additionally recombines each
// party's bit vector into the field element those bits decompose, the
// construction both BIT-DECOMPOSE and COMPARE preprocessing need: a mask
// whose bitwise shares are correct by definition, because the mask *is*
// defined as their weighted sum (spec §4.I "PREP-COMPARE produces bundles
// (r, bits(r))", "PREP-... a random mask with known bit decomposition").
func composedMask(ctxs map[party.ID]*Context, width int) (mask map[party.ID]field.Element, bits map[party.ID][]field.Element, err error) {
	bits, err = GenerateBitVector(ctxs, width)
	if err != nil {
		return nil, nil, err
	}
	m := modulusOf(ctxs)
	mask = make(map[party.ID]field.Element, len(bits))
	for id, b := range bits {
		mask[id] = BitwiseNumberShares{Bits: b}.Value(m)
	}
	return mask, bits, nil
}

// GenerateBitDecomposeMaterial builds the BitDecomposeMaterial bundle
// BIT-DECOMPOSE consumes (spec §4.I "BIT-DECOMPOSE").
func GenerateBitDecomposeMaterial(ctxs map[party.ID]*Context, width int) (map[party.ID]BitDecomposeMaterial, error) {
	mask, bits, err := composedMask(ctxs, width)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]BitDecomposeMaterial, len(mask))
	for id := range mask {
		out[id] = BitDecomposeMaterial{R: mask[id], Bits: bits[id], Width: width}
	}
	return out, nil
}

// GenerateCompareMaterial builds the PrepCompareMaterial bundle COMPARE
// consumes (spec §4.I "PREP-COMPARE"). RPrime is reserved for the reduced
// modulus COMPARE's statistical-security variant would use; the width-bit
// COMPARE this build runs never reads it, so it is generated as a share of
// zero rather than spending an extra RAN round on a value nothing consumes.
func GenerateCompareMaterial(ctxs map[party.ID]*Context, width int) (map[party.ID]PrepCompareMaterial, error) {
	mask, bits, err := composedMask(ctxs, width)
	if err != nil {
		return nil, err
	}
	m := modulusOf(ctxs)
	out := make(map[party.ID]PrepCompareMaterial, len(mask))
	for id := range mask {
		out[id] = PrepCompareMaterial{R: mask[id], Bits: bits[id], RPrime: field.Zero(m)}
	}
	return out, nil
}

// GenerateModuloMaterial builds the PrepModuloMaterial bundle MODULO,
// MOD2M/TRUNC, and TRUNC-PR all consume (spec §4.I "PREP-MODULO").
func GenerateModuloMaterial(ctxs map[party.ID]*Context) (map[party.ID]PrepModuloMaterial, error) {
	rLow, err := GenerateRandomElement(ctxs)
	if err != nil {
		return nil, err
	}
	rHigh, err := GenerateRandomElement(ctxs)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]PrepModuloMaterial, len(rLow))
	for id := range rLow {
		out[id] = PrepModuloMaterial{RLow: rLow[id], RHigh: rHigh[id]}
	}
	return out, nil
}

// GenerateInversePowers builds the PolyEvalMaterial bundle POLY-EVAL
// consumes: a share of an invertible random r, and shares of r^-0..r^-degree
// (spec §4.I "POLY-EVAL"). r^-1 is obtained by the standard joint-inversion
// trick (reveal r*s for an independent random s, then rescale s locally by
// the revealed (r*s)^-1); higher inverse powers are chained via ordinary
// joint MULT, since squaring a share locally would double its degree past
// the reconstruction threshold.
func GenerateInversePowers(ctxs map[party.ID]*Context, degree int) (map[party.ID]PolyEvalMaterial, error) {
	r, err := GenerateRandomElement(ctxs)
	if err != nil {
		return nil, err
	}
	s, err := GenerateRandomElement(ctxs)
	if err != nil {
		return nil, err
	}
	rsOut, err := RunJointly(ids(ctxs), func(id party.ID) (sm.State, sm.Output, error) {
		return NewPubMult(ctxs[id], 0, r[id], s[id])
	})
	if err != nil {
		return nil, err
	}
	m := modulusOf(ctxs)
	rInv := make(map[party.ID]field.Element, len(r))
	for id, v := range rsOut {
		rs := v.(field.Element)
		rsInv, err := field.One(m).Div(rs)
		if err != nil {
			return nil, err
		}
		rInv[id] = s[id].Mul(rsInv)
	}

	powers := make(map[party.ID][]field.Element, len(r))
	for id := range r {
		powers[id] = make([]field.Element, degree+1)
		powers[id][0] = field.One(m)
		if degree >= 1 {
			powers[id][1] = rInv[id]
		}
	}
	current := rInv
	for i := 2; i <= degree; i++ {
		next, err := RunJointly(ids(ctxs), func(id party.ID) (sm.State, sm.Output, error) {
			return NewMult(ctxs[id], 0, current[id], rInv[id])
		})
		if err != nil {
			return nil, err
		}
		elems := castElements(next)
		for id, v := range elems {
			powers[id][i] = v
		}
		current = elems
	}

	out := make(map[party.ID]PolyEvalMaterial, len(r))
	for id := range r {
		out[id] = PolyEvalMaterial{R: r[id], InversePowers: powers[id]}
	}
	return out, nil
}

// ZeroIndicatorPolynomial returns the coefficients of the degree-width
// public polynomial that is 1 at x=0 and 0 at x=1..width, the construction
// both output-equality protocols evaluate over the revealed Hamming
// distance to turn "distance == 0" into a {0,1} indicator (spec §4.I
// "PRIVATE/PUBLIC-OUTPUT-EQUALITY"). It is pure public-input math (no
// communication round needed), built the same way the rest of this module
// constructs public polynomials: poly.LagrangePolynomial over named points.
func ZeroIndicatorPolynomial(m *field.Modulus, width int) ([]field.Element, error) {
	points := make([]poly.Point, width+1)
	points[0] = poly.Point{X: field.Zero(m), Y: field.One(m)}
	for i := 1; i <= width; i++ {
		points[i] = poly.Point{X: field.FromUint64(m, uint64(i)), Y: field.Zero(m)}
	}
	p, err := poly.LagrangePolynomial(m, points)
	if err != nil {
		return nil, err
	}
	return p.Coefficients(), nil
}

// GenerateEqualityMaterial builds the EqualityMaterial bundle both
// output-equality protocols consume (spec §4.I "PRIVATE/PUBLIC-OUTPUT-EQUALITY").
func GenerateEqualityMaterial(ctxs map[party.ID]*Context, width int) (map[party.ID]EqualityMaterial, error) {
	_, bits, err := composedMask(ctxs, width)
	if err != nil {
		return nil, err
	}
	m := modulusOf(ctxs)
	coeffs, err := ZeroIndicatorPolynomial(m, width)
	if err != nil {
		return nil, err
	}
	polyMat, err := GenerateInversePowers(ctxs, width)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]EqualityMaterial, len(bits))
	for id, b := range bits {
		out[id] = EqualityMaterial{
			Mask:       BitwiseNumberShares{Bits: b},
			PolyCoeffs: coeffs,
			Poly:       polyMat[id],
		}
	}
	return out, nil
}

// DefaultNewtonRounds is the number of TRUNC-PR refinement rounds
// GenerateDivisionMaterial budgets Newton's method, chosen per spec §4.I's
// "1/d ≈ α · 2^-ceil(log2 d)" starting approximation: each round roughly
// doubles the approximation's correct bits, and three rounds comfortably
// covers the word widths this build's BitDecomposeMaterial supports.
const DefaultNewtonRounds = 3

// GenerateDivisionMaterial builds the DivisionMaterial bundle DIV-INT-SECRET
// consumes (spec §4.I "DIV-INT-SECRET"): one BIT-DECOMPOSE mask for scale
// extraction, plus one PrepModuloMaterial per Newton refinement round.
func GenerateDivisionMaterial(ctxs map[party.ID]*Context, wordBits int, alpha float64) (map[party.ID]DivisionMaterial, error) {
	scaleMask, err := GenerateBitDecomposeMaterial(ctxs, wordBits)
	if err != nil {
		return nil, err
	}
	rounds := make([]map[party.ID]PrepModuloMaterial, DefaultNewtonRounds)
	for i := range rounds {
		rounds[i], err = GenerateModuloMaterial(ctxs)
		if err != nil {
			return nil, err
		}
	}
	out := make(map[party.ID]DivisionMaterial, len(scaleMask))
	for id := range scaleMask {
		truncRounds := make([]PrepModuloMaterial, DefaultNewtonRounds)
		for i := range rounds {
			truncRounds[i] = rounds[i][id]
		}
		out[id] = DivisionMaterial{
			ScaleMask:   scaleMask[id],
			TruncRounds: truncRounds,
			Alpha:       alpha,
			WordBits:    wordBits,
		}
	}
	return out, nil
}

func castElements(in map[party.ID]any) map[party.ID]field.Element {
	out := make(map[party.ID]field.Element, len(in))
	for id, v := range in {
		out[id] = v.(field.Element)
	}
	return out
}
