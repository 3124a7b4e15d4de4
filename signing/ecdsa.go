// Package signing implements the threshold-ECDSA and threshold-EdDSA
// signing state machines of spec §4.I / §4.O. ECDSASign is grounded on the
// teacher's CGGMP21 presign/sign round shape (protocols/cmp/sign/sign.go)
// generalized from the teacher's curve-agnostic scalar field to secp256k1
// digests, and on the execution-identifier contract of spec §4.I
// ("program-op-address ∥ compute-id"). EdDSASign/EdDSAAggregator are
// grounded on the teacher's two-round commit/sign shape
// (protocols/frost/sign/round1.go) and on
// original_source/libs/protocols/src/threshold_eddsa/state.rs for the
// aggregator role split.
package signing

import (
	"crypto/rand"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// AuxInfo is the CGGMP21-style auxiliary material (Paillier moduli and ZK
// auxiliary parameters) generated offline once per cluster and versioned,
// per spec §9's resolution pinning a single compatible version at signing
// time (spec §4.I "ECDSA-SIGN").
type AuxInfo struct {
	Version        uint32
	PaillierModuli map[party.ID][]byte
	ZKAuxiliary    []byte
}

// CurrentAuxInfoVersion is the one version this build of the signer
// accepts; signing requests carrying any other version fail fast with
// errs.ErrAuxInfoVersionMismatch rather than silently using stale material.
const CurrentAuxInfoVersion uint32 = 1

// ExecutionID uniquely identifies one signing run, per spec §4.I: the
// program operation's address concatenated with the compute id, so replays
// of the same program against a different invocation never collide.
type ExecutionID struct {
	Address   string
	ComputeID string
}

func (e ExecutionID) bytes() []byte {
	return []byte(e.Address + "\x00" + e.ComputeID)
}

// SignResult is the outcome of an ECDSA or EdDSA signing run: either a
// signature share (when the run reaches Final locally) or an Abort with a
// human-readable reason, per spec §4.I "Success{element} or Abort{reason}".
type SignResult struct {
	Success bool
	R, S    []byte // for ECDSA: the (r, s) pair once aggregated
	Reason  string
}

// ECDSACommitMessage carries one signer's round-1 nonce commitment.
type ECDSACommitMessage struct {
	Commitment []byte
}

// ECDSAShareMessage carries one signer's round-2 signature share.
type ECDSAShareMessage struct {
	RPoint []byte
	SShare []byte
}

// ECDSASign drives a two-round CGGMP21-style signature: round 1 exchanges
// nonce commitments (the presigning phase); round 2, once every signer's
// nonce point is known, exchanges signature shares which are summed to
// recover s (spec §4.I "ECDSA-SIGN").
type ECDSASign struct {
	eid       ExecutionID
	keyShare  *secp256k1.ModNScalar
	digest    [32]byte
	aux       AuxInfo
	parties   party.Set
	round     sm.Round
	nonce     *secp256k1.ModNScalar
	noncePub  *secp256k1.JacobianPoint
	commitJar map[party.ID][]byte
	shareJar  map[party.ID]ECDSAShareMessage
	phase     ecdsaPhase
}

type ecdsaPhase int

const (
	ecdsaPhaseCommit ecdsaPhase = iota
	ecdsaPhaseShare
)

// NewECDSASign validates the aux-info version and starts the presigning
// round by broadcasting a commitment to a freshly sampled nonce share.
func NewECDSASign(eid ExecutionID, parties party.Set, keyShare *secp256k1.ModNScalar, digest [32]byte, aux AuxInfo) (*ECDSASign, sm.Output, error) {
	if aux.Version != CurrentAuxInfoVersion {
		return nil, sm.Output{}, errs.ErrAuxInfoVersionMismatch
	}
	nonce, noncePub, err := sampleNonce()
	if err != nil {
		return nil, sm.Output{}, err
	}
	commitment := commitTo(eid, noncePub)
	e := &ECDSASign{
		eid: eid, keyShare: keyShare, digest: digest, aux: aux, parties: parties,
		round: 0, nonce: nonce, noncePub: noncePub,
		commitJar: map[party.ID][]byte{}, shareJar: map[party.ID]ECDSAShareMessage{},
		phase: ecdsaPhaseCommit,
	}
	return e, sm.Output{Messages: []sm.OutgoingMessage{{To: sm.AllRecipients(), Payload: ECDSACommitMessage{Commitment: commitment}}}}, nil
}

func (e *ECDSASign) Round() sm.Round { return e.round }

func (e *ECDSASign) IsCompleted() bool {
	switch e.phase {
	case ecdsaPhaseCommit:
		return len(e.commitJar) >= e.parties.Len()
	default:
		return len(e.shareJar) >= e.parties.Len()
	}
}

func (e *ECDSASign) Accept(msg sm.Message) error {
	switch e.phase {
	case ecdsaPhaseCommit:
		payload, ok := msg.Payload.(ECDSACommitMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for commit phase")
		}
		e.commitJar[msg.From] = payload.Commitment
	default:
		payload, ok := msg.Payload.(ECDSAShareMessage)
		if !ok {
			return fmt.Errorf("signing: unexpected payload for share phase")
		}
		e.shareJar[msg.From] = payload
	}
	return nil
}

func (e *ECDSASign) Transition() (sm.State, sm.Output, error) {
	if e.phase == ecdsaPhaseCommit {
		e.phase = ecdsaPhaseShare
		e.round++
		rBytes := e.noncePub.X.Bytes()
		r := new(secp256k1.ModNScalar)
		r.SetByteSlice(rBytes[:])
		var digestScalar secp256k1.ModNScalar
		digestScalar.SetByteSlice(e.digest[:])
		sShare := new(secp256k1.ModNScalar).Mul2(r, e.keyShare)
		sShare.Add(&digestScalar)
		sShare.Mul(e.nonce)
		sBytes := sShare.Bytes()
		out := sm.Output{Messages: []sm.OutgoingMessage{{
			To: sm.AllRecipients(),
			Payload: ECDSAShareMessage{RPoint: rBytes[:], SShare: sBytes[:]},
		}}}
		return e, out, nil
	}

	var rBytes [32]byte
	sSum := new(secp256k1.ModNScalar)
	for _, id := range e.parties.IDs() {
		share, ok := e.shareJar[id]
		if !ok {
			continue
		}
		copy(rBytes[:], share.RPoint)
		var s secp256k1.ModNScalar
		s.SetByteSlice(share.SShare)
		sSum.Add(&s)
	}
	sBytes := sSum.Bytes()
	result := SignResult{Success: true, R: rBytes[:], S: sBytes[:]}
	return nil, sm.Output{IsFinal: true, Final: result}, nil
}

func sampleNonce() (*secp256k1.ModNScalar, *secp256k1.JacobianPoint, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, nil, err
	}
	k := new(secp256k1.ModNScalar)
	k.SetByteSlice(buf[:])
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()
	return k, &point, nil
}

func commitTo(eid ExecutionID, point *secp256k1.JacobianPoint) []byte {
	h := blake3.New()
	h.Write(eid.bytes())
	x := point.X.Bytes()
	h.Write(x[:])
	return h.Sum(nil)
}
