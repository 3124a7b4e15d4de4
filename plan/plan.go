// Package plan implements the execution planner of spec §4.H: turning a
// protocols.Model into an ExecutionPlan of steps, and drawing each online
// protocol's preprocessing requirement from a prep.Provider as it does so.
// Grounded on spec §4.H directly; the depth computation walks the same
// dependency DAG bytecode's topological lowering already established, and
// the step-vs-line grouping follows protocols.Model's Line field.
package plan

import (
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
)

// Step is one ExecutionStep of the plan: every local protocol that step
// runs with no communication, and every online protocol whose messages can
// all go out in the same round.
type Step struct {
	Local  []protocols.ProtocolAddress
	Online []protocols.ProtocolAddress
}

// Assignment records which preprocessing Range an online protocol was
// given at plan time (spec §4.H "Preprocessing assignment").
type Assignment struct {
	Protocol protocols.ProtocolAddress
	Kind     prep.Kind
	Range    prep.Range
}

// Plan is the planner's output: an ordered sequence of steps plus the
// preprocessing assignments made while building it.
type Plan struct {
	Steps       []Step
	Assignments []Assignment
}

// Sequential preserves protocol order: every protocol gets its own step,
// placed on its natural execution line (spec §4.H "Sequential").
func Sequential(model *protocols.Model, provider *prep.Provider) (*Plan, error) {
	p := &Plan{}
	for _, proto := range model.Protocols {
		step := Step{}
		switch proto.Line {
		case protocols.Local:
			step.Local = []protocols.ProtocolAddress{proto.Address}
		case protocols.Online:
			if err := assign(p, proto, provider); err != nil {
				return nil, err
			}
			step.Online = []protocols.ProtocolAddress{proto.Address}
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Parallel groups protocols by dependency depth: depth(P) = 1 +
// max(depth(d) for d in deps(P)), with depth 0 for protocols with no
// dependencies. Every depth becomes one step, separating local and online
// lines, guaranteeing one communication round handles every online
// protocol at that depth (spec §4.H "Parallel (depth-minimising)").
func Parallel(model *protocols.Model, provider *prep.Provider) (*Plan, error) {
	depth := make(map[protocols.ProtocolAddress]int, len(model.Protocols))
	maxDepth := 0
	for _, proto := range model.Protocols {
		d := 0
		for _, dep := range proto.Deps {
			if dd, ok := depth[dep]; ok && dd+1 > d {
				d = dd + 1
			}
		}
		depth[proto.Address] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	steps := make([]Step, maxDepth+1)
	p := &Plan{}
	for _, proto := range model.Protocols {
		d := depth[proto.Address]
		switch proto.Line {
		case protocols.Local:
			steps[d].Local = append(steps[d].Local, proto.Address)
		case protocols.Online:
			if err := assign(p, proto, provider); err != nil {
				return nil, err
			}
			steps[d].Online = append(steps[d].Online, proto.Address)
		}
	}
	p.Steps = steps
	return p, nil
}

// assign draws the preprocessing material an online protocol needs from
// the provider, failing the whole plan with NotEnoughElements if the
// offline supply can't cover it (spec §4.H "Preprocessing assignment").
func assign(p *Plan, proto *protocols.Protocol, provider *prep.Provider) error {
	if proto.Prep == nil {
		return nil
	}
	if provider == nil {
		return errs.ErrProtocolMemory
	}
	r, err := provider.Draw(prep.Kind(proto.Prep.Kind), uint64(proto.Prep.Count))
	if err != nil {
		return err
	}
	p.Assignments = append(p.Assignments, Assignment{Protocol: proto.Address, Kind: prep.Kind(proto.Prep.Kind), Range: r})
	return nil
}
