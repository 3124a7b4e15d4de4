package online

import (
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/sm"
)

// RevealMode selects who learns the revealed secret: every party, or a
// single designated recipient (spec §4.I REVEAL).
type RevealMode struct {
	Private bool
	Target  party.ID
}

// RevealShareMessage carries one holder's share toward a reveal.
type RevealShareMessage struct {
	Share field.Element
}

// Reveal is the REVEAL protocol: every holder broadcasts (or sends
// privately) its share; recipients reconstruct the secret once enough
// shares arrive.
type Reveal struct {
	ctx    *Context
	round  sm.Round
	degree int
	mode   RevealMode
	isRecv bool
	jar    map[party.ID]field.Element
}

// NewReveal broadcasts (or privately sends) the local share and returns the
// waiting state. degree is the Shamir degree of the shares being revealed
// (T for ordinary shares, 2T for masked products).
func NewReveal(ctx *Context, round sm.Round, degree int, share field.Element, mode RevealMode) (*Reveal, sm.Output, error) {
	r := &Reveal{
		ctx:    ctx,
		round:  round,
		degree: degree,
		mode:   mode,
		isRecv: !mode.Private || mode.Target == ctx.Local,
		jar:    map[party.ID]field.Element{},
	}
	to := sm.AllRecipients()
	if mode.Private {
		to = sm.SingleRecipient(mode.Target)
	}
	out := sm.Output{Messages: []sm.OutgoingMessage{{To: to, Payload: RevealShareMessage{Share: share}}}}
	return r, out, nil
}

func (r *Reveal) Round() sm.Round { return r.round }

func (r *Reveal) IsCompleted() bool {
	if !r.isRecv {
		return true
	}
	return len(r.jar) >= r.degree+1
}

func (r *Reveal) Accept(msg sm.Message) error {
	if !r.isRecv {
		return nil
	}
	if _, ok := r.jar[msg.From]; ok {
		return nil
	}
	r.jar[msg.From] = msg.Payload.(RevealShareMessage).Share
	return nil
}

func (r *Reveal) Transition() (sm.State, sm.Output, error) {
	if !r.isRecv {
		return nil, sm.Output{IsFinal: true, Final: nil}, nil
	}
	abscissas := make([]field.Element, 0, len(r.jar))
	points := make([]poly.Point, 0, len(r.jar))
	for id, share := range r.jar {
		x, _ := r.ctx.Parties.Abscissa(r.ctx.Modulus, id)
		abscissas = append(abscissas, x)
		points = append(points, poly.Point{X: x, Y: share})
	}
	lag, err := poly.NewLagrange(r.ctx.Modulus, abscissas)
	if err != nil {
		return nil, sm.Output{}, err
	}
	secret, err := lag.Interpolate(points)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return nil, sm.Output{IsFinal: true, Final: secret}, nil
}
