package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/cluster"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
)

func fourParties() party.Set {
	ids := make([]party.ID, 4)
	for i := range ids {
		ids[i] = party.ID(rune('a' + i))
	}
	return party.NewSet(ids)
}

func TestResolveRejectsInsufficientParties(t *testing.T) {
	cfg := cluster.Config{PolynomialDegree: 2, PrimeKind: field.U64SafePrime}
	_, err := cluster.Resolve(cfg, fourParties())
	assert.Error(t, err)
}

func TestResolveAndDrawPreprocessing(t *testing.T) {
	cfg := cluster.Config{
		PolynomialDegree: 1,
		PrimeKind:        field.U64SafePrime,
		PlanStrategy:     cluster.PlanParallel,
		PreprocessingProtocol: map[protocols.PrepKind]cluster.PreprocessingTuning{
			protocols.PrepRandomInt: {BatchSize: 8, GenerationThreshold: 2, TargetOffsetJump: 8},
		},
	}
	c, err := cluster.Resolve(cfg, fourParties())
	require.NoError(t, err)

	require.NoError(t, c.Produce(protocols.PrepRandomInt, 8, nil))
	r, err := c.Prep.Draw(prep.Kind(protocols.PrepRandomInt), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, r.Len())
}

func TestConfigValidateRejectsIncompleteAuxInfo(t *testing.T) {
	cfg := cluster.Config{AuxiliaryMaterial: cluster.AuxInfoPolicy{Enabled: true}}
	assert.Error(t, cfg.Validate())
}
