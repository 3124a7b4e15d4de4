package runtime

import (
	"golang.org/x/sync/errgroup"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/plan"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/sm"
	"github.com/NillionNetwork/nilcore/value"
)

// LocalFunc computes one local protocol's result directly from the heap,
// with no communication round (spec §4.K step 2).
type LocalFunc func(h *Heap, p *protocols.Protocol) (value.Value, error)

// OnlineFunc starts one online protocol's state machine, given its
// preprocessing assignment (spec §4.K step 3).
type OnlineFunc func(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error)

// Dispatch maps every protocols.Variant this build supports to its
// executor. Unregistered variants abort the run with ErrProtocolNotFound,
// matching spec §4.H's planner-level failure of the same name extended to
// runtime dispatch.
type Dispatch struct {
	Local  map[protocols.Variant]LocalFunc
	Online map[protocols.Variant]OnlineFunc
}

// OutgoingEnvelope addresses one online protocol's outgoing message to its
// recipients, tagged with the protocol address so the receiving VM can
// route it back to the right machine (spec §4.K "messages are tagged with
// the protocol address and forwarded").
type OutgoingEnvelope struct {
	Protocol protocols.ProtocolAddress
	Message  sm.OutgoingMessage
}

// VM executes one party's copy of an ExecutionPlan against a protocols.Model
// (spec §4.K). It is not safe for concurrent use by multiple goroutines,
// matching the single-threaded per-compute-id execution the original
// assumes.
type VM struct {
	local    party.ID
	ctx      *online.Context
	model    *protocols.Model
	plan     *plan.Plan
	heap     *Heap
	dispatch *Dispatch

	machines map[protocols.ProtocolAddress]*sm.Machine
	pending  map[protocols.ProtocolAddress][]sm.Message

	assignments map[protocols.ProtocolAddress]prep.Range
}

// New constructs a VM ready to execute plan p against model against the
// given party context.
func New(ctx *online.Context, model *protocols.Model, p *plan.Plan, dispatch *Dispatch) *VM {
	assignments := make(map[protocols.ProtocolAddress]prep.Range, len(p.Assignments))
	for _, a := range p.Assignments {
		assignments[a.Protocol] = a.Range
	}
	return &VM{
		local: ctx.Local, ctx: ctx, model: model, plan: p,
		heap:        NewHeap(model.MemorySize),
		dispatch:    dispatch,
		machines:    map[protocols.ProtocolAddress]*sm.Machine{},
		pending:     map[protocols.ProtocolAddress][]sm.Message{},
		assignments: assignments,
	}
}

// SetInput stores a caller-supplied input value at its protocol address,
// per the model's InputScheme (spec §3 "input_memory_scheme").
func (vm *VM) SetInput(name string, v value.Value) error {
	addr, ok := vm.model.InputScheme[name]
	if !ok {
		return errs.ErrProtocolNotFound
	}
	vm.heap.Store(addr, v)
	return nil
}

// RunStepLocal executes every local protocol of step i (spec §4.K step 2).
// Protocols within one step never depend on each other (the planner only
// groups same-depth protocols together), so they run concurrently via an
// errgroup.Group; results are written back to the heap once every goroutine
// has finished reading, since Heap is not itself safe for concurrent
// read/write.
func (vm *VM) RunStepLocal(stepIndex int) error {
	step := vm.plan.Steps[stepIndex]
	results := make([]value.Value, len(step.Local))
	var g errgroup.Group
	for i, addr := range step.Local {
		i, addr := i, addr
		p := vm.model.ByAddress[addr]
		fn, ok := vm.dispatch.Local[p.Variant]
		if !ok {
			return errs.ErrProtocolNotFound
		}
		g.Go(func() error {
			v, err := fn(vm.heap, p)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, addr := range step.Local {
		vm.heap.Store(addr, results[i])
	}
	return nil
}

// StartStepOnline constructs every online protocol's state machine for
// step i and returns their initial outgoing messages (spec §4.K step 3).
func (vm *VM) StartStepOnline(stepIndex int) ([]OutgoingEnvelope, error) {
	step := vm.plan.Steps[stepIndex]
	var envelopes []OutgoingEnvelope
	for _, addr := range step.Online {
		p := vm.model.ByAddress[addr]
		fn, ok := vm.dispatch.Online[p.Variant]
		if !ok {
			return nil, errs.ErrProtocolNotFound
		}
		state, out, err := fn(vm.ctx, vm.heap, p, vm.assignments[addr])
		if err != nil {
			return nil, err
		}
		if out.IsFinal {
			vm.heap.Store(addr, asValue(p, out.Final))
			vm.machines[addr] = sm.NewFinal(out.Final)
			continue
		}
		machine := sm.New(state)
		vm.machines[addr] = machine
		for _, m := range out.Messages {
			envelopes = append(envelopes, OutgoingEnvelope{Protocol: addr, Message: m})
		}
		if queued := vm.pending[addr]; len(queued) > 0 {
			delete(vm.pending, addr)
			for _, qm := range queued {
				if _, err := machine.HandleMessage(qm); err != nil {
					return nil, err
				}
			}
		}
	}
	return envelopes, nil
}

// Deliver routes an incoming message to the online protocol it targets. If
// that protocol's machine hasn't started yet in this party's plan (it can
// arrive before this party reaches the same step), the message is queued
// (spec §4.K "Incoming messages with unknown address are queued until the
// matching state machine exists").
func (vm *VM) Deliver(addr protocols.ProtocolAddress, msg sm.Message) ([]OutgoingEnvelope, bool, error) {
	machine, ok := vm.machines[addr]
	if !ok {
		vm.pending[addr] = append(vm.pending[addr], msg)
		return nil, false, nil
	}
	if machine.Done() {
		// A protocol that completes on a threshold of arrivals (REVEAL, MULT)
		// can still receive the remaining parties' messages; they are dropped.
		return nil, true, nil
	}
	out, err := machine.HandleMessage(msg)
	if err != nil {
		return nil, false, err
	}
	var envelopes []OutgoingEnvelope
	for _, m := range out.Messages {
		envelopes = append(envelopes, OutgoingEnvelope{Protocol: addr, Message: m})
	}
	if out.IsFinal {
		vm.heap.Store(addr, asValue(vm.model.ByAddress[addr], out.Final))
	}
	return envelopes, machine.Done(), nil
}

// Round reports the round a protocol's machine is currently waiting on, for
// a caller that stamps sm.Message.Round when relaying envelopes between
// parties. Returns false if the machine hasn't started yet.
func (vm *VM) Round(addr protocols.ProtocolAddress) (sm.Round, bool) {
	m, ok := vm.machines[addr]
	if !ok {
		return 0, false
	}
	return m.Round(), true
}

// StepOnlineDone reports whether every online protocol started in step i
// has reached Final (spec §4.K step 5: "proceed only after all online
// machines of the current step reach Final").
func (vm *VM) StepOnlineDone(stepIndex int) bool {
	for _, addr := range vm.plan.Steps[stepIndex].Online {
		m, ok := vm.machines[addr]
		if !ok || !m.Done() {
			return false
		}
	}
	return true
}

// CollectOutputs reads the model's OutputScheme once the plan has finished,
// returning each named output's value (spec §4.K step 6).
func (vm *VM) CollectOutputs() (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(vm.model.OutputScheme))
	for name, addr := range vm.model.OutputScheme {
		v, err := vm.heap.Load(addr)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// asValue wraps an online protocol's raw Final result into the value.Value
// the heap expects at that protocol's address, keyed by its declared type.
// Most protocols finish with a field.Element (a share or a public scalar);
// protocols whose result doesn't fit that shape (signing results, bit
// vectors consumed only by another protocol) are stored directly by their
// Online dispatch entry before returning, so this only needs to cover the
// common scalar case.
func asValue(p *protocols.Protocol, final any) value.Value {
	e, ok := final.(field.Element)
	if !ok {
		return value.Value{Type: p.Type}
	}
	if isShareKind(p.Type.Kind) {
		return value.Value{Type: p.Type, Share: e}
	}
	return value.Value{Type: p.Type, Public: e}
}
