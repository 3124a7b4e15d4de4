package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/plan"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/sm"
	"github.com/NillionNetwork/nilcore/value"
)

func fourPartyCluster(t *testing.T) (*field.Modulus, party.Set, map[party.ID]*shamir.Sharer) {
	t.Helper()
	m := field.NewModulus(field.U64SafePrime)
	ids := make([]party.ID, 4)
	for i := range ids {
		ids[i] = party.ID(rune('a' + i))
	}
	parties := party.NewSet(ids)
	sharers := make(map[party.ID]*shamir.Sharer, 4)
	for _, id := range ids {
		sharers[id] = shamir.NewSharer(id, 1, parties, m)
	}
	return m, parties, sharers
}

func multiplicationModel() *protocols.Model {
	mulType := value.Scalar(value.KindShamirShareInteger)
	p := &protocols.Protocol{
		Address: 2, Variant: protocols.VMultiplicationShares, Line: protocols.Online,
		Deps: []protocols.ProtocolAddress{0, 1}, Type: mulType,
	}
	return &protocols.Model{
		Protocols:    []*protocols.Protocol{p},
		ByAddress:    map[protocols.ProtocolAddress]*protocols.Protocol{2: p},
		OutputScheme: map[string]protocols.ProtocolAddress{"c": 2},
		MemorySize:   3,
	}
}

// TestVMRunsMultiplicationAcrossParties drives one step of a multiplication
// protocol through four independent VM instances, routing each machine's
// outgoing messages to its peers, and checks the recovered product against
// plaintext multiplication.
func TestVMRunsMultiplicationAcrossParties(t *testing.T) {
	m, parties, sharers := fourPartyCluster(t)
	a := field.FromUint64(m, 6)
	b := field.FromUint64(m, 7)
	aShares, err := sharers[parties.IDs()[0]].GenerateShares(a, 1)
	require.NoError(t, err)
	bShares, err := sharers[parties.IDs()[0]].GenerateShares(b, 1)
	require.NoError(t, err)

	model := multiplicationModel()
	dispatch := DefaultDispatch()
	onlinePlan := &plan.Plan{Steps: []plan.Step{{Online: []protocols.ProtocolAddress{2}}}}

	vms := make(map[party.ID]*VM, 4)
	for _, id := range parties.IDs() {
		ctx := &online.Context{Local: id, Parties: parties, Degree: 1, Modulus: m, Sharer: sharers[id]}
		vm := New(ctx, model, onlinePlan, dispatch)
		vm.heap.Store(0, value.NewShare(value.KindShamirShareInteger, aShares[id].Point.Y))
		vm.heap.Store(1, value.NewShare(value.KindShamirShareInteger, bShares[id].Point.Y))
		vms[id] = vm
	}

	type routed struct {
		from protocols.ProtocolAddress
		to   party.ID
		msg  sm.Message
	}
	var queue []routed
	for id, vm := range vms {
		envs, err := vm.StartStepOnline(0)
		require.NoError(t, err)
		for _, env := range envs {
			msg := sm.Message{From: id, Round: 0, Payload: env.Message.Payload}
			if env.Message.To.All {
				for _, to := range parties.IDs() {
					queue = append(queue, routed{from: env.Protocol, to: to, msg: msg})
				}
			} else {
				queue = append(queue, routed{from: env.Protocol, to: env.Message.To.Single, msg: msg})
			}
		}
	}
	for _, r := range queue {
		_, _, err := vms[r.to].Deliver(r.from, r.msg)
		require.NoError(t, err)
	}

	for _, id := range parties.IDs() {
		require.True(t, vms[id].StepOnlineDone(0))
	}

	outputs, err := vms[parties.IDs()[0]].CollectOutputs()
	require.NoError(t, err)
	require.Contains(t, outputs, "c")

	recovered, err := sharers[parties.IDs()[0]].Recover(productShares(parties, m, vms), 1)
	require.NoError(t, err)
	assert.True(t, recovered.Equal(a.Mul(b)))
}

// TestLocalNotNegatesSharedBoolean checks the VNot dispatch entry: a
// SecretBoolean share of 1 negates to a share that recovers to 0, and vice
// versa, across a 4-party cluster.
func TestLocalNotNegatesSharedBoolean(t *testing.T) {
	m, parties, sharers := fourPartyCluster(t)
	boolType := value.Scalar(value.KindSecretBoolean)

	for _, tc := range []struct{ in, want uint64 }{
		{1, 0},
		{0, 1},
	} {
		shares, err := sharers[parties.IDs()[0]].GenerateShares(field.FromUint64(m, tc.in), 1)
		require.NoError(t, err)

		notted := make(map[party.ID]field.Element, len(shares))
		for _, id := range parties.IDs() {
			h := NewHeap(1)
			h.Store(0, value.NewShare(value.KindSecretBoolean, shares[id].Point.Y))
			p := &protocols.Protocol{Address: 1, Variant: protocols.VNot, Line: protocols.Local,
				Deps: []protocols.ProtocolAddress{0}, Type: boolType}
			out, err := localNot(h, p)
			require.NoError(t, err)
			notted[id] = out.Share
		}

		recovered, err := sharers[parties.IDs()[0]].Recover(sharesOfMap(parties, m, notted), 1)
		require.NoError(t, err)
		assert.True(t, recovered.Equal(field.FromUint64(m, tc.want)))
	}
}

func sharesOfMap(parties party.Set, m *field.Modulus, values map[party.ID]field.Element) []shamir.Share {
	out := make([]shamir.Share, 0, len(values))
	for _, id := range parties.IDs() {
		x, _ := parties.Abscissa(m, id)
		out = append(out, shamir.Share{Party: id, Point: poly.Point{X: x, Y: values[id]}})
	}
	return out
}

func productShares(parties party.Set, m *field.Modulus, vms map[party.ID]*VM) []shamir.Share {
	out := make([]shamir.Share, 0, len(vms))
	for _, id := range parties.IDs() {
		v, err := vms[id].heap.Load(2)
		if err != nil {
			continue
		}
		x, _ := parties.Abscissa(m, id)
		out = append(out, shamir.Share{Party: id, Point: poly.Point{X: x, Y: v.Share}})
	}
	return out
}
