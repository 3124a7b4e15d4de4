package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/sm"
)

// MultShareMessage carries one party's reshared contribution toward a
// product share.
type MultShareMessage struct {
	Share field.Element
}

// Mult is the MULT protocol: given a degree-T share of each factor, produces
// a fresh degree-T share of the product in one round. Party i locally
// multiplies its two factor shares, then redistributes the result via fresh
// degree-T secret sharing; since the local products lie on a degree-2T
// polynomial, recipients recombine the first 2T+1 arrivals with
// Lagrange-at-zero coefficients over their abscissas to obtain their own
// product share.
type Mult struct {
	ctx      *Context
	round    sm.Round
	jar      map[party.ID]field.Element
	emittedC bool
}

// NewMult constructs the MULT state machine and its single round of
// messages, given this party's shares of the two factors.
func NewMult(ctx *Context, round sm.Round, a, b field.Element) (*Mult, sm.Output, error) {
	m := &Mult{ctx: ctx, round: round, jar: map[party.ID]field.Element{}}
	c := a.Mul(b)
	reshares, err := ctx.Sharer.GenerateShares(c, ctx.Degree)
	if err != nil {
		return nil, sm.Output{}, err
	}
	out := sm.Output{}
	for _, id := range ctx.Parties.IDs() {
		out.Messages = append(out.Messages, sm.OutgoingMessage{
			To:      sm.SingleRecipient(id),
			Payload: MultShareMessage{Share: reshares[id].Point.Y},
		})
	}
	return m, out, nil
}

func (m *Mult) Round() sm.Round { return m.round }

func (m *Mult) IsCompleted() bool { return len(m.jar) >= 2*m.ctx.Degree+1 }

func (m *Mult) Accept(msg sm.Message) error {
	if _, ok := m.jar[msg.From]; ok {
		return nil
	}
	payload := msg.Payload.(MultShareMessage)
	m.jar[msg.From] = payload.Share
	return nil
}

func (m *Mult) Transition() (sm.State, sm.Output, error) {
	abscissas := make([]field.Element, 0, len(m.jar))
	points := make([]poly.Point, 0, len(m.jar))
	for id, share := range m.jar {
		x, _ := m.ctx.Parties.Abscissa(m.ctx.Modulus, id)
		abscissas = append(abscissas, x)
		points = append(points, poly.Point{X: x, Y: share})
	}
	lag, err := poly.NewLagrange(m.ctx.Modulus, abscissas)
	if err != nil {
		return nil, sm.Output{}, err
	}
	result := field.Zero(m.ctx.Modulus)
	for _, pt := range points {
		term, err := lag.PartialTerm(pt.X, pt.Y)
		if err != nil {
			return nil, sm.Output{}, err
		}
		result = result.Add(term)
	}
	return nil, sm.Output{IsFinal: true, Final: result}, nil
}

// PubMultShareMessage carries one party's masked degree-2T share toward a
// public product reveal.
type PubMultShareMessage struct {
	MaskedShare field.Element
}

// PubMult is the PUB-MULT protocol: each party broadcasts its degree-2T
// product share masked with a fresh degree-2T zero share, and every party
// Lagrange-reconstructs the product once enough masked shares arrive.
type PubMult struct {
	ctx   *Context
	round sm.Round
	jar   map[party.ID]field.Element
}

// NewPubMult multiplies two local factor shares, masks the degree-2T
// product share with a fresh zero share of the same degree, and broadcasts
// it.
func NewPubMult(ctx *Context, round sm.Round, a, b field.Element) (*PubMult, sm.Output, error) {
	p := &PubMult{ctx: ctx, round: round, jar: map[party.ID]field.Element{}}
	degree2T := 2 * ctx.Degree
	c := a.Mul(b)
	zeroShares, err := ctx.Sharer.GenerateZeroShares(degree2T)
	if err != nil {
		return nil, sm.Output{}, err
	}
	masked := c.Add(zeroShares[ctx.Local].Point.Y)
	out := sm.Output{Messages: []sm.OutgoingMessage{{
		To:      sm.AllRecipients(),
		Payload: PubMultShareMessage{MaskedShare: masked},
	}}}
	return p, out, nil
}

func (p *PubMult) Round() sm.Round { return p.round }

func (p *PubMult) IsCompleted() bool { return len(p.jar) >= 2*p.ctx.Degree+1 }

func (p *PubMult) Accept(msg sm.Message) error {
	if _, ok := p.jar[msg.From]; ok {
		return nil
	}
	p.jar[msg.From] = msg.Payload.(PubMultShareMessage).MaskedShare
	return nil
}

func (p *PubMult) Transition() (sm.State, sm.Output, error) {
	abscissas := make([]field.Element, 0, len(p.jar))
	points := make([]poly.Point, 0, len(p.jar))
	for id, share := range p.jar {
		x, _ := p.ctx.Parties.Abscissa(p.ctx.Modulus, id)
		abscissas = append(abscissas, x)
		points = append(points, poly.Point{X: x, Y: share})
	}
	lag, err := poly.NewLagrange(p.ctx.Modulus, abscissas)
	if err != nil {
		return nil, sm.Output{}, err
	}
	product, err := lag.Interpolate(points)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return nil, sm.Output{IsFinal: true, Final: product}, nil
}
