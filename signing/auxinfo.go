package signing

import (
	"crypto/rand"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// AuxInfoCommitMessage carries one party's commitment to its Paillier
// modulus and ZK-auxiliary contribution, round 1 of GenerateAuxInfo's
// ceremony.
type AuxInfoCommitMessage struct {
	Commitment []byte
}

// AuxInfoShareMessage carries one party's opened contribution, sent only
// once every commitment from round 1 is in.
type AuxInfoShareMessage struct {
	Modulus     []byte
	ZKAuxiliary []byte
}

// auxInfoGen drives the two-round commit/reveal ceremony GenerateAuxInfo
// runs once per party: the same commit-then-open shape as ECDSASign's own
// nonce commitment (ecdsa.go), generalized from a per-signature nonce to a
// cluster-wide public value, so no party can bias its contribution after
// seeing anyone else's (spec §4.H "PREP-ECDSA-AUX-INFO"). This build has no
// Paillier or ZK-auxiliary-parameter library to generate real CGGMP21
// material with, so each party's "modulus" and "zk auxiliary" contribution
// is opaque random bytes; GenerateAuxInfo wires the transport and
// commitment machinery a real implementation would reuse unchanged, not
// the number-theoretic generation itself.
type auxInfoGen struct {
	local     party.ID
	parties   party.Set
	round     sm.Round
	modulus   []byte
	zkAux     []byte
	commitJar map[party.ID][]byte
	shareJar  map[party.ID]AuxInfoShareMessage
	phase     ecdsaPhase
}

func newAuxInfoGen(local party.ID, parties party.Set) (*auxInfoGen, sm.Output, error) {
	modulus := make([]byte, 32)
	zk := make([]byte, 32)
	if _, err := rand.Read(modulus); err != nil {
		return nil, sm.Output{}, err
	}
	if _, err := rand.Read(zk); err != nil {
		return nil, sm.Output{}, err
	}
	g := &auxInfoGen{
		local: local, parties: parties, round: 0, modulus: modulus, zkAux: zk,
		commitJar: map[party.ID][]byte{}, shareJar: map[party.ID]AuxInfoShareMessage{},
		phase: ecdsaPhaseCommit,
	}
	out := sm.Output{Messages: []sm.OutgoingMessage{{
		To:      sm.AllRecipients(),
		Payload: AuxInfoCommitMessage{Commitment: auxInfoCommitment(local, modulus, zk)},
	}}}
	return g, out, nil
}

func auxInfoCommitment(id party.ID, modulus, zk []byte) []byte {
	h := blake3.New()
	h.Write([]byte(id))
	h.Write(modulus)
	h.Write(zk)
	return h.Sum(nil)
}

func (g *auxInfoGen) Round() sm.Round { return g.round }

func (g *auxInfoGen) IsCompleted() bool {
	switch g.phase {
	case ecdsaPhaseCommit:
		return len(g.commitJar) >= g.parties.Len()
	default:
		return len(g.shareJar) >= g.parties.Len()
	}
}

func (g *auxInfoGen) Accept(msg sm.Message) error {
	switch g.phase {
	case ecdsaPhaseCommit:
		payload, ok := msg.Payload.(AuxInfoCommitMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for aux-info commit phase")
		}
		g.commitJar[msg.From] = payload.Commitment
	default:
		payload, ok := msg.Payload.(AuxInfoShareMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for aux-info share phase")
		}
		if !blake3Equal(auxInfoCommitment(msg.From, payload.Modulus, payload.ZKAuxiliary), g.commitJar[msg.From]) {
			return fmt.Errorf("signing: aux-info contribution from %s does not match its commitment", msg.From)
		}
		g.shareJar[msg.From] = payload
	}
	return nil
}

func blake3Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *auxInfoGen) Transition() (sm.State, sm.Output, error) {
	if g.phase == ecdsaPhaseCommit {
		g.phase = ecdsaPhaseShare
		g.round++
		out := sm.Output{Messages: []sm.OutgoingMessage{{
			To:      sm.AllRecipients(),
			Payload: AuxInfoShareMessage{Modulus: g.modulus, ZKAuxiliary: g.zkAux},
		}}}
		return g, out, nil
	}

	moduli := make(map[party.ID][]byte, g.parties.Len())
	h := blake3.New()
	for _, id := range g.parties.IDs() {
		share := g.shareJar[id]
		moduli[id] = share.Modulus
		h.Write(share.ZKAuxiliary)
	}
	result := AuxInfo{
		Version:        CurrentAuxInfoVersion,
		PaillierModuli: moduli,
		ZKAuxiliary:    h.Sum(nil),
	}
	return nil, sm.Output{IsFinal: true, Final: result}, nil
}

// GenerateAuxInfo runs the commit/reveal ceremony jointly for every party in
// parties, returning the single shared AuxInfo every party's run resolves
// to identically (spec §4.H "PREP-ECDSA-AUX-INFO" produces one versioned
// aux-info bundle shared by the whole cluster, not a per-party share).
func GenerateAuxInfo(parties party.Set) (AuxInfo, error) {
	ids := parties.IDs()
	results, err := online.RunJointly(ids, func(id party.ID) (sm.State, sm.Output, error) {
		return newAuxInfoGen(id, parties)
	})
	if err != nil {
		return AuxInfo{}, err
	}
	return results[ids[0]].(AuxInfo), nil
}
