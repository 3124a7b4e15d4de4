package masker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/masker"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/value"
)

func fiveParties() party.Set {
	return party.NewSet([]party.ID{"p1", "p2", "p3", "p4", "p5"})
}

func TestMaskUnmaskRoundTrip(t *testing.T) {
	parties := fiveParties()
	sm := masker.NewSecretMasker(field.U64SafePrime, 1, parties)
	m := field.NewModulus(field.U64SafePrime)

	cleartext := masker.CleartextValues{
		"secret_x": value.NewSecret(value.KindSecretInteger, field.FromUint64(m, 42)),
		"public_y": value.NewPublic(value.KindInteger, field.FromUint64(m, 7)),
	}

	shares, err := sm.Mask(cleartext)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	jar := party.NewJar[masker.EncryptedValues](parties)
	for id, bundle := range shares {
		require.NoError(t, jar.Add(id, bundle))
	}

	recovered, err := sm.Unmask(jar)
	require.NoError(t, err)
	assert.True(t, recovered["secret_x"].Secret.Equal(field.FromUint64(m, 42)))
	assert.True(t, recovered["public_y"].Public.Equal(field.FromUint64(m, 7)))
}

func TestMaskEmptyReturnsAllParties(t *testing.T) {
	parties := fiveParties()
	sm := masker.NewSecretMasker(field.U64SafePrime, 1, parties)
	shares, err := sm.Mask(masker.CleartextValues{})
	require.NoError(t, err)
	assert.Len(t, shares, 5)
	for _, bundle := range shares {
		assert.Empty(t, bundle)
	}
}

func TestMaskBlobRoundTrip(t *testing.T) {
	parties := fiveParties()
	sm := masker.NewSecretMasker(field.U64SafePrime, 1, parties)
	blob := []byte("a secret blob that spans more than one field-sized chunk of data")

	shares, err := sm.Mask(masker.CleartextValues{"blob": value.NewSecretBlob(blob)})
	require.NoError(t, err)

	jar := party.NewJar[masker.EncryptedValues](parties)
	for id, bundle := range shares {
		require.NoError(t, jar.Add(id, bundle))
	}
	recovered, err := sm.Unmask(jar)
	require.NoError(t, err)
	assert.Equal(t, blob, recovered["blob"].SecretBlob)
}
