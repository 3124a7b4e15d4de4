package shamir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/shamir"
)

func threeParties() party.Set {
	return party.NewSet([]party.ID{"p1", "p2", "p3"})
}

func TestGenerateAndRecover(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	parties := threeParties()
	sharer := shamir.NewSharer("p1", 1, parties, m)

	secret := field.FromUint64(m, 546)
	sharesByParty, err := sharer.GenerateShares(secret, 1)
	require.NoError(t, err)
	require.Len(t, sharesByParty, 3)

	var shares []shamir.Share
	for _, sh := range sharesByParty {
		shares = append(shares, sh)
	}
	recovered, err := sharer.Recover(shares, 1)
	require.NoError(t, err)
	assert.True(t, recovered.Equal(secret))
}

func TestRecoverNotEnoughShares(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	parties := threeParties()
	sharer := shamir.NewSharer("p1", 1, parties, m)
	sharesByParty, err := sharer.GenerateShares(field.FromUint64(m, 7), 1)
	require.NoError(t, err)
	var one []shamir.Share
	for _, sh := range sharesByParty {
		one = append(one, sh)
		break
	}
	_, err = sharer.Recover(one, 1)
	require.Error(t, err)
}

func TestGenerateSharesDegreeTooLarge(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	parties := threeParties()
	sharer := shamir.NewSharer("p1", 1, parties, m)
	_, err := sharer.GenerateShares(field.FromUint64(m, 1), 3)
	require.Error(t, err)
}
