package signing

import (
	"crypto/rand"
	"testing"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

func signingParties(n int) party.Set {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(rune('a' + i))
	}
	return party.NewSet(ids)
}

// TestECDSASignRoundTrip drives the two-round commit/share ceremony to
// completion across three signers and checks every signer recovers the
// identical (R, S) pair once all shares are in.
func TestECDSASignRoundTrip(t *testing.T) {
	parties := signingParties(3)
	ids := parties.IDs()

	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i + 1)
	}
	aux := AuxInfo{Version: CurrentAuxInfoVersion, ZKAuxiliary: []byte("test-aux")}
	eid := ExecutionID{Address: "42", ComputeID: "run-1"}

	keyShares := make(map[party.ID]*secp256k1.ModNScalar, len(ids))
	for _, id := range ids {
		var buf [32]byte
		_, err := rand.Read(buf[:])
		require.NoError(t, err)
		s := new(secp256k1.ModNScalar)
		s.SetByteSlice(buf[:])
		keyShares[id] = s
	}

	machines := make(map[party.ID]*ECDSASign, len(ids))
	commits := make(map[party.ID][]byte, len(ids))
	for _, id := range ids {
		m, out, err := NewECDSASign(eid, parties, keyShares[id], digest, aux)
		require.NoError(t, err)
		machines[id] = m
		commits[id] = out.Messages[0].Payload.(ECDSACommitMessage).Commitment
	}
	for _, from := range ids {
		for _, to := range ids {
			require.NoError(t, machines[to].Accept(sm.Message{From: from, Round: 0, Payload: ECDSACommitMessage{Commitment: commits[from]}}))
		}
	}

	shareMsgs := make(map[party.ID]ECDSAShareMessage, len(ids))
	for _, id := range ids {
		require.True(t, machines[id].IsCompleted())
		next, out, err := machines[id].Transition()
		require.NoError(t, err)
		machines[id] = next.(*ECDSASign)
		shareMsgs[id] = out.Messages[0].Payload.(ECDSAShareMessage)
	}
	for _, from := range ids {
		for _, to := range ids {
			require.NoError(t, machines[to].Accept(sm.Message{From: from, Round: 1, Payload: shareMsgs[from]}))
		}
	}

	var want SignResult
	for i, id := range ids {
		require.True(t, machines[id].IsCompleted())
		_, out, err := machines[id].Transition()
		require.NoError(t, err)
		result := out.Final.(SignResult)
		require.True(t, result.Success)
		if i == 0 {
			want = result
			continue
		}
		assert.Equal(t, want.R, result.R)
		assert.Equal(t, want.S, result.S)
	}
}

// TestECDSASignRejectsStaleAuxInfo checks NewECDSASign fails fast on an
// aux-info bundle pinned to a version this build does not accept.
func TestECDSASignRejectsStaleAuxInfo(t *testing.T) {
	parties := signingParties(3)
	var digest [32]byte
	aux := AuxInfo{Version: CurrentAuxInfoVersion + 1}
	_, _, err := NewECDSASign(ExecutionID{Address: "1"}, parties, new(secp256k1.ModNScalar), digest, aux)
	assert.Error(t, err)
}

// TestEdDSASignRoundTrip drives the FROST-style two-round ceremony to
// completion and checks the recovered share sum matches
// challenge*Σkeyshare + Σnonce, the same identity Aggregate later folds into
// a signature.
func TestEdDSASignRoundTrip(t *testing.T) {
	parties := signingParties(3)
	ids := parties.IDs()
	message := []byte("hello threshold eddsa")

	keyShares := make(map[party.ID]*edwards25519.Scalar, len(ids))
	skSum := edwards25519.NewScalar()
	for _, id := range ids {
		var buf [64]byte
		_, err := rand.Read(buf[:])
		require.NoError(t, err)
		s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
		require.NoError(t, err)
		keyShares[id] = s
		skSum.Add(skSum, s)
	}

	machines := make(map[party.ID]*EdDSASign, len(ids))
	nonces := make(map[party.ID]*edwards25519.Scalar, len(ids))
	commits := make(map[party.ID][]byte, len(ids))
	for _, id := range ids {
		m, out, err := NewEdDSASign(id, parties, message, keyShares[id])
		require.NoError(t, err)
		machines[id] = m
		nonces[id] = m.nonce
		commits[id] = out.Messages[0].Payload.(EdDSACommitMessage).Commitment
	}
	for _, from := range ids {
		for _, to := range ids {
			require.NoError(t, machines[to].Accept(sm.Message{From: from, Round: 0, Payload: EdDSACommitMessage{Commitment: commits[from]}}))
		}
	}

	shareMsgs := make(map[party.ID]EdDSAShareMessage, len(ids))
	for _, id := range ids {
		require.True(t, machines[id].IsCompleted())
		next, out, err := machines[id].Transition()
		require.NoError(t, err)
		machines[id] = next.(*EdDSASign)
		shareMsgs[id] = out.Messages[0].Payload.(EdDSAShareMessage)
	}
	for _, from := range ids {
		for _, to := range ids {
			require.NoError(t, machines[to].Accept(sm.Message{From: from, Round: 1, Payload: shareMsgs[from]}))
		}
	}

	aggregateR := edwards25519.NewIdentityPoint()
	for _, c := range commits {
		p, err := new(edwards25519.Point).SetBytes(c)
		require.NoError(t, err)
		aggregateR.Add(aggregateR, p)
	}
	challenge := computeChallenge(aggregateR, message)
	nonceSum := edwards25519.NewScalar()
	for _, n := range nonces {
		nonceSum.Add(nonceSum, n)
	}
	expected := edwards25519.NewScalar().Multiply(challenge, skSum)
	expected.Add(expected, nonceSum)

	gotSum := edwards25519.NewScalar()
	for _, id := range ids {
		require.True(t, machines[id].IsCompleted())
		_, out, err := machines[id].Transition()
		require.NoError(t, err)
		result := out.Final.(EdDSAShareResult)
		s, err := new(edwards25519.Scalar).SetCanonicalBytes(result.Share)
		require.NoError(t, err)
		gotSum.Add(gotSum, s)
	}
	assert.Equal(t, expected.Bytes(), gotSum.Bytes())
}

// TestGenerateAuxInfoSharedAcrossCluster checks GenerateAuxInfo's commit/
// reveal ceremony resolves to one versioned bundle carrying a contribution
// from every party, not a per-party share.
func TestGenerateAuxInfoSharedAcrossCluster(t *testing.T) {
	parties := signingParties(4)
	aux, err := GenerateAuxInfo(parties)
	require.NoError(t, err)
	assert.Equal(t, CurrentAuxInfoVersion, aux.Version)
	assert.Len(t, aux.PaillierModuli, parties.Len())
	for _, id := range parties.IDs() {
		assert.NotEmpty(t, aux.PaillierModuli[id])
	}
	assert.NotEmpty(t, aux.ZKAuxiliary)
}
