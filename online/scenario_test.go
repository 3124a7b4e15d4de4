package online_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/sm"
)

func castFieldMap(in map[party.ID]any) map[party.ID]field.Element {
	out := make(map[party.ID]field.Element, len(in))
	for id, v := range in {
		out[id] = v.(field.Element)
	}
	return out
}

// TestLessThanSharesScenario is seed scenario S2: LessThanShares over a
// 5-party, T=1 cluster recovers 1 for (3,5) and 0 for (10,7).
func TestLessThanSharesScenario(t *testing.T) {
	const width = 8
	cases := []struct {
		x, y     uint64
		expected uint64
	}{
		{3, 5, 1},
		{10, 7, 0},
	}
	for _, tc := range cases {
		m, parties, sharers := smallCluster(t, 1, 5)
		ids := parties.IDs()
		ctxs := make(map[party.ID]*online.Context, len(ids))
		for _, id := range ids {
			ctxs[id] = &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id], BitWidth: width}
		}
		material, err := online.GenerateCompareMaterial(ctxs, width)
		require.NoError(t, err)

		xShares, err := sharers[ids[0]].GenerateShares(field.FromUint64(m, tc.x), 1)
		require.NoError(t, err)
		yShares, err := sharers[ids[0]].GenerateShares(field.FromUint64(m, tc.y), 1)
		require.NoError(t, err)

		results, err := online.RunJointly(ids, func(id party.ID) (sm.State, sm.Output, error) {
			return online.NewCompare(ctxs[id], 0, xShares[id].Point.Y, yShares[id].Point.Y, material[id])
		})
		require.NoError(t, err)

		recovered, err := sharers[ids[0]].Recover(sharesOf(parties, castFieldMap(results)), 1)
		require.NoError(t, err)
		assert.Truef(t, recovered.Equal(field.FromUint64(m, tc.expected)),
			"x=%d y=%d: expected %d", tc.x, tc.y, tc.expected)
	}
}

// TestRightShiftSharesScenario is seed scenario S3: right-shifting a secret
// share by a public amount over a 3-party, T=1 cluster recovers the
// arithmetic-shift result.
func TestRightShiftSharesScenario(t *testing.T) {
	const width = 8
	cases := []struct {
		x        uint64
		amount   int
		expected uint64
	}{
		{20, 1, 10},
		{12, 2, 3},
	}
	for _, tc := range cases {
		m, parties, sharers := smallCluster(t, 1, 3)
		ids := parties.IDs()
		ctxs := make(map[party.ID]*online.Context, len(ids))
		for _, id := range ids {
			ctxs[id] = &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id], BitWidth: width}
		}
		material, err := online.GenerateModuloMaterial(ctxs)
		require.NoError(t, err)

		xShares, err := sharers[ids[0]].GenerateShares(field.FromUint64(m, tc.x), 1)
		require.NoError(t, err)

		results, err := online.RunJointly(ids, func(id party.ID) (sm.State, sm.Output, error) {
			return online.NewTrunc(ctxs[id], 0, xShares[id].Point.Y, tc.amount, material[id])
		})
		require.NoError(t, err)

		recovered, err := sharers[ids[0]].Recover(sharesOf(parties, castFieldMap(results)), 1)
		require.NoError(t, err)
		assert.Truef(t, recovered.Equal(field.FromUint64(m, tc.expected)),
			"x=%d >> %d: expected %d", tc.x, tc.amount, tc.expected)
	}
}

// bitsLSBFirst expands v into its width-bit little-endian binary
// representation, the reference in-the-clear bit expansion TestScaleScenario
// checks the threshold POSTFIX-OR/Scale pipeline against.
func bitsLSBFirst(v uint64, width int) []int {
	out := make([]int, width)
	for i := 0; i < width; i++ {
		out[i] = int(v & 1)
		v >>= 1
	}
	return out
}

func reverseInts(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// TestScaleScenario is seed scenario S6: for x=80 and precision f=50, the
// threshold POSTFIX-OR protocol's recovered output feeds into online.Scale
// the same way a reference in-the-clear postfix-OR over x's bits would.
func TestScaleScenario(t *testing.T) {
	const x = 80
	const width = 8
	const f = 50

	m, parties, sharers := smallCluster(t, 1, 3)
	ids := parties.IDs()

	msb := reverseInts(bitsLSBFirst(x, width))

	// reference in-the-clear postfix-OR, computed directly from the public
	// bits with no sharing at all.
	clearW := make([]int, width)
	acc := 0
	for i, b := range msb {
		if b != 0 {
			acc = 1
		}
		clearW[i] = acc
	}
	clearWField := make([]field.Element, width)
	for i, b := range clearW {
		clearWField[i] = field.FromUint64(m, uint64(b))
	}
	expected := online.Scale(m, clearWField, f)

	// threshold computation: secret-share each bit, run POSTFIX-OR jointly,
	// recover each position, then apply the same Scale function.
	bitShares := make([]map[party.ID]shamir.Share, width)
	for i, b := range msb {
		shares, err := sharers[ids[0]].GenerateShares(field.FromUint64(m, uint64(b)), 1)
		require.NoError(t, err)
		bitShares[i] = shares
	}
	vPerParty := make(map[party.ID][]field.Element, len(ids))
	for _, id := range ids {
		v := make([]field.Element, width)
		for i := range msb {
			v[i] = bitShares[i][id].Point.Y
		}
		vPerParty[id] = v
	}

	ctxs := make(map[party.ID]*online.Context, len(ids))
	for _, id := range ids {
		ctxs[id] = &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id]}
	}
	results, err := online.RunJointly(ids, func(id party.ID) (sm.State, sm.Output, error) {
		return online.NewPostfixOr(ctxs[id], 0, vPerParty[id])
	})
	require.NoError(t, err)

	recoveredW := make([]field.Element, width)
	for i := 0; i < width; i++ {
		pos := make(map[party.ID]field.Element, len(ids))
		for _, id := range ids {
			pos[id] = results[id].([]field.Element)[i]
		}
		recoveredW[i], err = sharers[ids[0]].Recover(sharesOf(parties, pos), 1)
		require.NoError(t, err)
	}

	got := online.Scale(m, recoveredW, f)
	assert.True(t, got.Equal(expected))
}
