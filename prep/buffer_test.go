package prep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/prep"
)

func TestReserveRequiresCommit(t *testing.T) {
	b := prep.NewBuffer("Compare")
	b.Produce(10, nil)
	_, err := b.Reserve(5)
	require.Error(t, err, "nothing committed yet")

	b.Commit()
	r, err := b.Reserve(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Start)
	assert.Equal(t, uint64(5), r.End)

	_, err = b.Reserve(10)
	require.Error(t, err, "only 5 elements remain")
}

func TestDeletePrecondition(t *testing.T) {
	b := prep.NewBuffer("Modulo")
	b.Produce(20, nil)
	b.Commit()
	b.SetTarget(10)
	b.MarkDeleteCandidate()
	require.NoError(t, b.Delete())
	assert.Equal(t, uint64(20), b.Available()+0) // committed(20) - reserved(0) unaffected by delete
}

func TestProviderNotEnoughElements(t *testing.T) {
	buffers := map[prep.Kind]*prep.Buffer{"Compare": prep.NewBuffer("Compare")}
	provider := prep.NewProvider(buffers)
	_, err := provider.Draw("Compare", 1)
	require.Error(t, err)

	_, err = provider.Draw("Div", 1)
	require.Error(t, err, "unknown kind")
}
