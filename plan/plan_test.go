package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/plan"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/value"
)

func threeProtocolChain() *protocols.Model {
	m := &protocols.Model{ByAddress: map[protocols.ProtocolAddress]*protocols.Protocol{}}
	p0 := &protocols.Protocol{Address: 0, Variant: protocols.VLiteral, Line: protocols.Local, Type: value.Scalar(value.KindInteger)}
	p1 := &protocols.Protocol{Address: 1, Variant: protocols.VLiteral, Line: protocols.Local, Type: value.Scalar(value.KindInteger)}
	p2 := &protocols.Protocol{
		Address: 2, Variant: protocols.VMultiplicationShares, Line: protocols.Online,
		Deps: []protocols.ProtocolAddress{0, 1}, Type: value.Scalar(value.KindShamirShareInteger),
		Prep: &protocols.Requirement{Kind: protocols.PrepRandomInt, Count: 0},
	}
	for _, p := range []*protocols.Protocol{p0, p1, p2} {
		m.Protocols = append(m.Protocols, p)
		m.ByAddress[p.Address] = p
	}
	return m
}

func TestSequentialOneStepPerProtocol(t *testing.T) {
	model := threeProtocolChain()
	buffers := map[prep.Kind]*prep.Buffer{prep.Kind(protocols.PrepRandomInt): prep.NewBuffer(prep.Kind(protocols.PrepRandomInt))}
	buffers[prep.Kind(protocols.PrepRandomInt)].Produce(10, nil)
	buffers[prep.Kind(protocols.PrepRandomInt)].Commit()
	provider := prep.NewProvider(buffers)

	p, err := plan.Sequential(model, provider)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 3)
	assert.Len(t, p.Assignments, 1)
}

func TestParallelGroupsByDepth(t *testing.T) {
	model := threeProtocolChain()
	buffers := map[prep.Kind]*prep.Buffer{prep.Kind(protocols.PrepRandomInt): prep.NewBuffer(prep.Kind(protocols.PrepRandomInt))}
	buffers[prep.Kind(protocols.PrepRandomInt)].Produce(10, nil)
	buffers[prep.Kind(protocols.PrepRandomInt)].Commit()
	provider := prep.NewProvider(buffers)

	p, err := plan.Parallel(model, provider)
	require.NoError(t, err)
	require.Len(t, p.Steps, 2)
	assert.ElementsMatch(t, []int{0, 1}, toInts(p.Steps[0].Local))
	assert.ElementsMatch(t, []int{2}, toInts(p.Steps[1].Online))
}

func toInts(addrs []protocols.ProtocolAddress) []int {
	out := make([]int, len(addrs))
	for i, a := range addrs {
		out[i] = int(a)
	}
	return out
}
