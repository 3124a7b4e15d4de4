package online

import (
	"crypto/rand"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// RandomShareMessage carries one party's contribution toward a jointly
// sampled random share.
type RandomShareMessage struct {
	Share field.Element
}

// BitwiseNumberShares holds a field element as a vector of per-bit shares,
// ordered least-significant first, whose weighted sum equals the number
// (spec §4.I, glossary "BitwiseNumberShares").
type BitwiseNumberShares struct {
	Bits []field.Element
}

// Value returns the share of the weighted recombination Σ bits[i] * 2^i.
func (b BitwiseNumberShares) Value(m *field.Modulus) field.Element { return sumWeighted(m, b.Bits) }

// Ran is the RAN protocol: every party contributes a fresh random degree-T
// share of its own secret contribution; the sum of all contributions is a
// uniformly random, jointly unknown field element. Completes once every
// party's contribution has arrived, matching an offline "everyone
// participates" round (spec §4.I "RAN").
type Ran struct {
	ctx   *Context
	round sm.Round
	self  field.Element
	jar   map[party.ID]field.Element
}

// NewRan samples a local random contribution, reshares it to every party at
// the configured degree, and returns the waiting state.
func NewRan(ctx *Context, round sm.Round) (*Ran, sm.Output, error) {
	secret, err := sampleElement(ctx.Modulus)
	if err != nil {
		return nil, sm.Output{}, err
	}
	shares, err := ctx.Sharer.GenerateShares(secret, ctx.Degree)
	if err != nil {
		return nil, sm.Output{}, err
	}
	r := &Ran{ctx: ctx, round: round, jar: map[party.ID]field.Element{}}
	out := sm.Output{}
	for _, id := range ctx.Parties.IDs() {
		out.Messages = append(out.Messages, sm.OutgoingMessage{
			To:      sm.SingleRecipient(id),
			Payload: RandomShareMessage{Share: shares[id].Point.Y},
		})
	}
	return r, out, nil
}

func (r *Ran) Round() sm.Round   { return r.round }
func (r *Ran) IsCompleted() bool { return len(r.jar) >= r.ctx.Parties.Len() }

func (r *Ran) Accept(msg sm.Message) error {
	r.jar[msg.From] = msg.Payload.(RandomShareMessage).Share
	return nil
}

func (r *Ran) Transition() (sm.State, sm.Output, error) {
	sum := field.Zero(r.ctx.Modulus)
	for _, s := range r.jar {
		sum = sum.Add(s)
	}
	return nil, sm.Output{IsFinal: true, Final: sum}, nil
}

// RanZero is the RAN-ZERO protocol: identical in shape to Ran but every
// contribution shares the constant zero, so the sum is a degree-configured
// share of zero used to mask degree-2T values (spec §4.I "RAN-ZERO").
type RanZero struct {
	ctx    *Context
	round  sm.Round
	degree int
	jar    map[party.ID]field.Element
}

// NewRanZero samples a fresh zero sharing at the given degree (T for
// ordinary use, 2T for PUB-MULT masking) and broadcasts it.
func NewRanZero(ctx *Context, round sm.Round, degree int) (*RanZero, sm.Output, error) {
	shares, err := ctx.Sharer.GenerateZeroShares(degree)
	if err != nil {
		return nil, sm.Output{}, err
	}
	r := &RanZero{ctx: ctx, round: round, degree: degree, jar: map[party.ID]field.Element{}}
	out := sm.Output{}
	for _, id := range ctx.Parties.IDs() {
		out.Messages = append(out.Messages, sm.OutgoingMessage{
			To:      sm.SingleRecipient(id),
			Payload: RandomShareMessage{Share: shares[id].Point.Y},
		})
	}
	return r, out, nil
}

func (r *RanZero) Round() sm.Round   { return r.round }
func (r *RanZero) IsCompleted() bool { return len(r.jar) >= r.ctx.Parties.Len() }

func (r *RanZero) Accept(msg sm.Message) error {
	r.jar[msg.From] = msg.Payload.(RandomShareMessage).Share
	return nil
}

func (r *RanZero) Transition() (sm.State, sm.Output, error) {
	sum := field.Zero(r.ctx.Modulus)
	for _, s := range r.jar {
		sum = sum.Add(s)
	}
	return nil, sm.Output{IsFinal: true, Final: sum}, nil
}

// RanBit is the RAN-BIT protocol: produces a uniformly random bit, shared
// both as a field element and as its (trivial, one-entry) bit decomposition,
// via the standard "square a random share, reveal, take a square root"
// construction: a is sampled random and zero-masked like Ran, its square is
// revealed, and each party rescales its share of a by the revealed root to
// obtain a share of a uniform bit in {0, 1}.
type RanBit struct {
	ctx      *Context
	round    sm.Round
	aShare   field.Element
	squaring *PubMult
}

// NewRanBit starts by squaring the local contribution's share via PUB-MULT;
// callers drive the nested PubMult machine to completion, then call
// Finish with the revealed square root to obtain the bit share.
func NewRanBit(ctx *Context, round sm.Round, aShare field.Element) (*RanBit, sm.Output, error) {
	squaring, out, err := NewPubMult(ctx, round, aShare, aShare)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return &RanBit{ctx: ctx, round: round, aShare: aShare, squaring: squaring}, out, nil
}

// Accept forwards a squaring-round message to the nested PUB-MULT machine.
func (r *RanBit) Accept(msg sm.Message) error { return r.squaring.Accept(msg) }

// Round returns the squaring round this machine is waiting on.
func (r *RanBit) Round() sm.Round { return r.squaring.Round() }

// IsCompleted mirrors the nested squaring machine's completion.
func (r *RanBit) IsCompleted() bool { return r.squaring.IsCompleted() }

// Transition finishes the squaring round and derives the bit share from its
// revealed square, completing RAN-BIT in the same logical step (spec §4.I
// treats RAN-BIT as a single offline unit; no further rounds follow).
func (r *RanBit) Transition() (sm.State, sm.Output, error) {
	_, out, err := r.squaring.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	square := out.Final.(field.Element)
	if square.IsZero() {
		return nil, sm.Output{}, errRanBitZeroSquare
	}
	root, err := square.Sqrt()
	if err != nil {
		return nil, sm.Output{}, err
	}
	rootInv, err := field.One(r.ctx.Modulus).Div(root)
	if err != nil {
		return nil, sm.Output{}, err
	}
	two := field.FromUint64(r.ctx.Modulus, 2)
	twoInv, err := field.One(r.ctx.Modulus).Div(two)
	if err != nil {
		return nil, sm.Output{}, err
	}
	bitShare := twoInv.Mul(field.One(r.ctx.Modulus).Add(r.aShare.Mul(rootInv)))
	return nil, sm.Output{IsFinal: true, Final: BitwiseNumberShares{Bits: []field.Element{bitShare}}}, nil
}

func sampleElement(m *field.Modulus) (field.Element, error) {
	byteLen := m.ByteLen()
	buf := make([]byte, byteLen+1)
	buf[0] = byte(m.Kind())
	if _, err := rand.Read(buf[1:]); err != nil {
		return field.Element{}, err
	}
	return field.Decode(buf)
}

var errRanBitZeroSquare = sqrtZeroError{}

type sqrtZeroError struct{}

func (sqrtZeroError) Error() string { return "online: RAN-BIT square revealed as zero, retry" }
