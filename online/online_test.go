package online_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/sm"
)

func smallCluster(t *testing.T, degree int, n int) (*field.Modulus, party.Set, map[party.ID]*shamir.Sharer) {
	t.Helper()
	m := field.NewModulus(field.U64SafePrime)
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(rune('a' + i))
	}
	parties := party.NewSet(ids)
	sharers := make(map[party.ID]*shamir.Sharer, n)
	for _, id := range ids {
		sharers[id] = shamir.NewSharer(id, degree, parties, m)
	}
	return m, parties, sharers
}

func TestRevealRoundTrip(t *testing.T) {
	m, parties, sharers := smallCluster(t, 1, 4)
	secret := field.FromUint64(m, 42)
	shares, err := sharers[parties.IDs()[0]].GenerateShares(secret, 1)
	require.NoError(t, err)

	reveals := map[party.ID]*online.Reveal{}
	for _, id := range parties.IDs() {
		ctx := &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id]}
		r, _, err := online.NewReveal(ctx, 0, 1, shares[id].Point.Y, online.RevealMode{})
		require.NoError(t, err)
		reveals[id] = r
	}
	for _, fromID := range parties.IDs() {
		for _, toID := range parties.IDs() {
			msg := sm.Message{From: fromID, Round: 0, Payload: online.RevealShareMessage{Share: shares[fromID].Point.Y}}
			require.NoError(t, reveals[toID].Accept(msg))
		}
	}
	for _, id := range parties.IDs() {
		require.True(t, reveals[id].IsCompleted())
		_, out, err := reveals[id].Transition()
		require.NoError(t, err)
		got := out.Final.(field.Element)
		assert.True(t, got.Equal(secret))
	}
}

func TestMultProducesProductShares(t *testing.T) {
	m, parties, sharers := smallCluster(t, 1, 4)
	a := field.FromUint64(m, 6)
	b := field.FromUint64(m, 7)
	aShares, err := sharers[parties.IDs()[0]].GenerateShares(a, 1)
	require.NoError(t, err)
	bShares, err := sharers[parties.IDs()[0]].GenerateShares(b, 1)
	require.NoError(t, err)

	machines := map[party.ID]*online.Mult{}
	outgoing := map[party.ID][]sm.OutgoingMessage{}
	for _, id := range parties.IDs() {
		ctx := &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id]}
		mm, out, err := online.NewMult(ctx, 0, aShares[id].Point.Y, bShares[id].Point.Y)
		require.NoError(t, err)
		machines[id] = mm
		outgoing[id] = out.Messages
	}
	for fromID, msgs := range outgoing {
		for _, om := range msgs {
			to := om.To.Single
			require.NoError(t, machines[to].Accept(sm.Message{From: fromID, Round: 0, Payload: om.Payload}))
		}
	}

	products := map[party.ID]field.Element{}
	for _, id := range parties.IDs() {
		require.True(t, machines[id].IsCompleted())
		_, out, err := machines[id].Transition()
		require.NoError(t, err)
		products[id] = out.Final.(field.Element)
	}

	recovered, err := sharers[parties.IDs()[0]].Recover(sharesOf(parties, products), 1)
	require.NoError(t, err)
	assert.True(t, recovered.Equal(a.Mul(b)))
}

func sharesOf(parties party.Set, values map[party.ID]field.Element) []shamir.Share {
	out := make([]shamir.Share, 0, len(values))
	for _, id := range parties.IDs() {
		x, _ := parties.Abscissa(values[id].Modulus(), id)
		out = append(out, shamir.Share{Party: id, Point: poly.Point{X: x, Y: values[id]}})
	}
	return out
}
