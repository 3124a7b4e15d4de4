package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/sm"
)

// BatchMultMessage carries one party's reshared contribution for every
// multiplication in a batch, keeping the batch to a single round of
// communication regardless of its size (used by the bit-operations family
// to keep their carry-computation layers at O(1) rounds each, for an
// overall O(log W) depth per spec §4.I "BIT-ADDER family").
type BatchMultMessage struct {
	Shares []field.Element
}

// BatchMult runs n independent MULT instances in lockstep, sharing one
// round of messages.
type BatchMult struct {
	ctx   *Context
	round sm.Round
	n     int
	jar   map[party.ID][]field.Element
}

// NewBatchMult multiplies pairs[i].A * pairs[i].B locally for every i, then
// reshares each product at the configured degree, batching all n reshares
// into one outgoing message per recipient.
func NewBatchMult(ctx *Context, round sm.Round, pairs []Pair) (*BatchMult, sm.Output, error) {
	n := len(pairs)
	perParty := make(map[party.ID][]field.Element, ctx.Parties.Len())
	for _, id := range ctx.Parties.IDs() {
		perParty[id] = make([]field.Element, n)
	}
	for i, pr := range pairs {
		c := pr.A.Mul(pr.B)
		reshares, err := ctx.Sharer.GenerateShares(c, ctx.Degree)
		if err != nil {
			return nil, sm.Output{}, err
		}
		for _, id := range ctx.Parties.IDs() {
			perParty[id][i] = reshares[id].Point.Y
		}
	}
	b := &BatchMult{ctx: ctx, round: round, n: n, jar: map[party.ID][]field.Element{}}
	out := sm.Output{}
	for _, id := range ctx.Parties.IDs() {
		out.Messages = append(out.Messages, sm.OutgoingMessage{
			To:      sm.SingleRecipient(id),
			Payload: BatchMultMessage{Shares: perParty[id]},
		})
	}
	return b, out, nil
}

// Pair is one (a, b) local-share factor pair submitted to a BatchMult round.
type Pair struct {
	A, B field.Element
}

func (b *BatchMult) Round() sm.Round   { return b.round }
func (b *BatchMult) IsCompleted() bool { return len(b.jar) >= 2*b.ctx.Degree+1 }

func (b *BatchMult) Accept(msg sm.Message) error {
	if _, ok := b.jar[msg.From]; ok {
		return nil
	}
	b.jar[msg.From] = msg.Payload.(BatchMultMessage).Shares
	return nil
}

// stage wraps a BatchMult round with a local continuation that turns its
// batch of products into the next sm.State (or the final Output), letting
// every multi-round protocol in this package (the bit-operations family in
// particular) express "one MULT-batch per layer" as a short chain of
// stages instead of hand-rolling round bookkeeping each time.
type stage struct {
	batch *BatchMult
	next  func([]field.Element) (sm.State, sm.Output, error)
}

func (s *stage) Round() sm.Round      { return s.batch.Round() }
func (s *stage) IsCompleted() bool    { return s.batch.IsCompleted() }
func (s *stage) Accept(m sm.Message) error { return s.batch.Accept(m) }

func (s *stage) Transition() (sm.State, sm.Output, error) {
	_, out, err := s.batch.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	return s.next(out.Final.([]field.Element))
}

func (b *BatchMult) Transition() (sm.State, sm.Output, error) {
	abscissas := make([]field.Element, 0, len(b.jar))
	parties := make([]party.ID, 0, len(b.jar))
	for id := range b.jar {
		x, _ := b.ctx.Parties.Abscissa(b.ctx.Modulus, id)
		abscissas = append(abscissas, x)
		parties = append(parties, id)
	}
	lag, err := poly.NewLagrange(b.ctx.Modulus, abscissas)
	if err != nil {
		return nil, sm.Output{}, err
	}
	results := make([]field.Element, b.n)
	for i := range results {
		acc := field.Zero(b.ctx.Modulus)
		for j, id := range parties {
			term, err := lag.PartialTerm(abscissas[j], b.jar[id][i])
			if err != nil {
				return nil, sm.Output{}, err
			}
			acc = acc.Add(term)
		}
		results[i] = acc
	}
	return nil, sm.Output{IsFinal: true, Final: results}, nil
}
