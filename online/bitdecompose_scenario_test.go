package online

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/sm"
)

// TestBitDecomposeRoundTrip is seed scenario S5: decomposing x=1,464 over a
// U64-prime, T=1 cluster recovers 64 bit shares whose weighted sum is x.
// Lives inside package online (rather than online_test) so it can read
// bitAdderResult, the BIT-ADDER family's shared internal output shape that
// NewBitDecompose returns unwrapped.
func TestBitDecomposeRoundTrip(t *testing.T) {
	const x = 1464
	const width = 64

	m := field.NewModulus(field.U64SafePrime)
	ids := []party.ID{"a", "b", "c"}
	parties := party.NewSet(ids)
	sharers := make(map[party.ID]*shamir.Sharer, len(ids))
	for _, id := range ids {
		sharers[id] = shamir.NewSharer(id, 1, parties, m)
	}
	ctxs := make(map[party.ID]*Context, len(ids))
	for _, id := range ids {
		ctxs[id] = &Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id]}
	}

	material, err := GenerateBitDecomposeMaterial(ctxs, width)
	require.NoError(t, err)

	xShares, err := sharers[ids[0]].GenerateShares(field.FromUint64(m, x), 1)
	require.NoError(t, err)

	results, err := RunJointly(ids, func(id party.ID) (sm.State, sm.Output, error) {
		return NewBitDecompose(ctxs[id], 0, xShares[id].Point.Y, material[id])
	})
	require.NoError(t, err)

	recoveredBits := make([]field.Element, width)
	for i := 0; i < width; i++ {
		pos := make([]shamir.Share, 0, len(ids))
		for _, id := range ids {
			abscissa, _ := parties.Abscissa(m, id)
			bit := results[id].(bitAdderResult).Sum.Bits[i]
			pos = append(pos, shamir.Share{Party: id, Point: poly.Point{X: abscissa, Y: bit}})
		}
		recoveredBits[i], err = sharers[ids[0]].Recover(pos, 1)
		require.NoError(t, err)
	}

	sum := field.Zero(m)
	for i, b := range recoveredBits {
		sum = sum.Add(b.Mul(weight(m, i)))
	}
	assert.True(t, sum.Equal(field.FromUint64(m, x)))
}
