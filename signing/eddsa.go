package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// EdDSACommitMessage carries one signer's round-1 public nonce commitment
// (spec §4.I "FROST-style two-round threshold EdDSA signing").
type EdDSACommitMessage struct {
	Commitment []byte // compressed Edwards point
}

// EdDSAShareMessage carries one signer's round-2 signature share.
type EdDSAShareMessage struct {
	Share []byte // little-endian scalar
}

// EdDSASign drives the FROST two-round signature: round 1 every signer
// publishes a commitment to a fresh nonce; round 2, once the aggregate
// commitment set is known, each signer emits a scalar signature share
// binding its key share, the message, and the aggregate nonce.
type EdDSASign struct {
	local      party.ID
	parties    party.Set
	message    []byte
	keyShare   *edwards25519.Scalar
	round      sm.Round
	nonce      *edwards25519.Scalar
	noncePoint *edwards25519.Point
	commitJar  map[party.ID]*edwards25519.Point
	shareJar   map[party.ID]*edwards25519.Scalar
	phase      eddsaPhase
}

type eddsaPhase int

const (
	eddsaPhaseCommit eddsaPhase = iota
	eddsaPhaseShare
)

// NewEdDSASign samples a fresh nonce and broadcasts its commitment,
// starting the first FROST round.
func NewEdDSASign(local party.ID, parties party.Set, message []byte, keyShare *edwards25519.Scalar) (*EdDSASign, sm.Output, error) {
	nonce, noncePoint, err := sampleEdwardsNonce()
	if err != nil {
		return nil, sm.Output{}, err
	}
	e := &EdDSASign{
		local: local, parties: parties, message: message, keyShare: keyShare,
		round: 0, nonce: nonce, noncePoint: noncePoint,
		commitJar: map[party.ID]*edwards25519.Point{}, shareJar: map[party.ID]*edwards25519.Scalar{},
		phase: eddsaPhaseCommit,
	}
	out := sm.Output{Messages: []sm.OutgoingMessage{{
		To:      sm.AllRecipients(),
		Payload: EdDSACommitMessage{Commitment: noncePoint.Bytes()},
	}}}
	return e, out, nil
}

func (e *EdDSASign) Round() sm.Round { return e.round }

func (e *EdDSASign) IsCompleted() bool {
	if e.phase == eddsaPhaseCommit {
		return len(e.commitJar) >= e.parties.Len()
	}
	return len(e.shareJar) >= e.parties.Len()
}

func (e *EdDSASign) Accept(msg sm.Message) error {
	switch e.phase {
	case eddsaPhaseCommit:
		payload, ok := msg.Payload.(EdDSACommitMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for eddsa commit phase")
		}
		p, err := new(edwards25519.Point).SetBytes(payload.Commitment)
		if err != nil {
			return err
		}
		e.commitJar[msg.From] = p
	default:
		payload, ok := msg.Payload.(EdDSAShareMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for eddsa share phase")
		}
		s, err := new(edwards25519.Scalar).SetCanonicalBytes(payload.Share)
		if err != nil {
			return err
		}
		e.shareJar[msg.From] = s
	}
	return nil
}

func (e *EdDSASign) Transition() (sm.State, sm.Output, error) {
	if e.phase == eddsaPhaseCommit {
		aggregate := edwards25519.NewIdentityPoint()
		for _, p := range e.commitJar {
			aggregate.Add(aggregate, p)
		}
		challenge := computeChallenge(aggregate, e.message)
		share := edwards25519.NewScalar().Multiply(challenge, e.keyShare)
		share.Add(share, e.nonce)

		e.phase = eddsaPhaseShare
		e.round++
		out := sm.Output{Messages: []sm.OutgoingMessage{{
			To:      sm.AllRecipients(),
			Payload: EdDSAShareMessage{Share: share.Bytes()},
		}}}
		return e, out, nil
	}

	own, ok := e.shareJar[e.local]
	if !ok {
		return nil, sm.Output{}, fmt.Errorf("signing: own eddsa share missing for party %s", e.local)
	}
	return nil, sm.Output{IsFinal: true, Final: EdDSAShareResult{Share: own.Bytes()}}, nil
}

// EdDSAShareResult is one signer's contribution to the final signature,
// consumed by EdDSAAggregator.
type EdDSAShareResult struct {
	Share []byte
}

// EdDSAAggregator combines every signer's share and the round-1 commitment
// set into a final ed25519 signature, per
// original_source/libs/protocols/src/threshold_eddsa/state.rs's aggregator
// role split: aggregation is a role distinct from signing, run by whichever
// party (or client) collects the completed shares.
type EdDSAAggregator struct {
	publicKey ed25519.PublicKey
	message   []byte
	commits   map[party.ID]*edwards25519.Point
	shares    map[party.ID]*edwards25519.Scalar
}

// NewEdDSAAggregator constructs an aggregator for one signing run.
func NewEdDSAAggregator(publicKey ed25519.PublicKey, message []byte) *EdDSAAggregator {
	return &EdDSAAggregator{
		publicKey: publicKey, message: message,
		commits: map[party.ID]*edwards25519.Point{},
		shares:  map[party.ID]*edwards25519.Scalar{},
	}
}

// AddCommitment records one signer's round-1 nonce commitment.
func (a *EdDSAAggregator) AddCommitment(id party.ID, commitment []byte) error {
	p, err := new(edwards25519.Point).SetBytes(commitment)
	if err != nil {
		return err
	}
	a.commits[id] = p
	return nil
}

// AddShare records one signer's round-2 signature share.
func (a *EdDSAAggregator) AddShare(id party.ID, share []byte) error {
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(share)
	if err != nil {
		return err
	}
	a.shares[id] = s
	return nil
}

// Aggregate sums the recorded shares and assembles the 64-byte ed25519
// signature (R || S), returning a verified Success result or an Abort
// explaining why verification failed (spec §4.I "Success{signature}").
func (a *EdDSAAggregator) Aggregate() (SignResult, error) {
	aggregateR := edwards25519.NewIdentityPoint()
	for _, p := range a.commits {
		aggregateR.Add(aggregateR, p)
	}
	sSum := edwards25519.NewScalar()
	for _, s := range a.shares {
		sSum.Add(sSum, s)
	}
	sig := append(append([]byte{}, aggregateR.Bytes()...), sSum.Bytes()...)
	if !ed25519.Verify(a.publicKey, a.message, sig) {
		return SignResult{Success: false, Reason: "aggregated eddsa signature failed verification"}, nil
	}
	return SignResult{Success: true, R: aggregateR.Bytes(), S: sSum.Bytes()}, nil
}

func sampleEdwardsNonce() (*edwards25519.Scalar, *edwards25519.Point, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, nil, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, nil, err
	}
	p := edwards25519.NewIdentityPoint().ScalarBaseMult(s)
	return s, p, nil
}

func computeChallenge(aggregateR *edwards25519.Point, message []byte) *edwards25519.Scalar {
	h := sha512.New()
	h.Write(aggregateR.Bytes())
	h.Write(message)
	digest := h.Sum(nil)
	c, _ := edwards25519.NewScalar().SetUniformBytes(digest[:64])
	return c
}
