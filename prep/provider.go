package prep

import "github.com/NillionNetwork/nilcore/errs"

// Provider is the InstructionRequirementProvider the execution planner
// draws from for every online protocol's preprocessing requirement (spec
// §4.H). It fronts one Buffer per Kind.
type Provider struct {
	buffers map[Kind]*Buffer
}

// NewProvider builds a Provider over the given buffers, keyed by kind.
func NewProvider(buffers map[Kind]*Buffer) *Provider {
	return &Provider{buffers: buffers}
}

// Draw reserves count elements of kind, returning errs.NotEnoughElements if
// the provider cannot satisfy the request.
func (p *Provider) Draw(kind Kind, count uint64) (Range, error) {
	b, ok := p.buffers[kind]
	if !ok {
		return Range{}, &errs.NotEnoughElements{Kind: string(kind)}
	}
	r, err := b.Reserve(count)
	if err != nil {
		return Range{}, &errs.NotEnoughElements{Kind: string(kind)}
	}
	return r, nil
}

// Data resolves a Range previously returned by Draw back into the chunk
// elements it covers, failing if kind has no buffer configured.
func (p *Provider) Data(kind Kind, r Range) ([]any, error) {
	b, ok := p.buffers[kind]
	if !ok {
		return nil, &errs.NotEnoughElements{Kind: string(kind)}
	}
	return b.Data(r)
}
