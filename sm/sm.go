// Package sm implements the generic state-machine driver of spec §4.J:
// (State, Message) -> Output | Messages | Final, with out-of-order
// buffering and submachine composition. Grounded directly on the teacher's
// pkg/protocol/handler.go MultiHandler (round storage, receivedAll,
// out-of-order queueing via store/duplicate, submachine nesting via
// broadcast/normal message layering) and on
// original_source/libs/state-machine/src/sm.rs for the exact
// waiting-variant/transition vocabulary.
package sm

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/party"
)

// Round identifies a message's round within its state machine; every
// message carries enough round information for the receiver to reject
// stale messages rather than misapplying them (spec §4.J invariant).
type Round int

// Message is one state-machine message, addressed by sender and round.
type Message struct {
	From    party.ID
	Round   Round
	Payload any
}

// Output is the sum-type result of feeding a Message to a State:
// exactly one of Messages, Final, or neither (Empty) is meaningful.
type Output struct {
	Messages []OutgoingMessage
	Final    any
	IsFinal  bool
}

// OutgoingMessage addresses a single outgoing Message to a recipient set.
type OutgoingMessage struct {
	To      Recipient
	Payload any
}

// Recipient is either a single party or every party in the cluster.
type Recipient struct {
	Single party.ID
	All    bool
}

// SingleRecipient addresses one party.
func SingleRecipient(id party.ID) Recipient { return Recipient{Single: id} }

// AllRecipients addresses every party (spec §4.L Recipient::Multiple).
func AllRecipients() Recipient { return Recipient{All: true} }

// State is one waiting variant of a state machine. Implementations hold
// whatever buffers they need (typically a party.Jar) to decide IsCompleted.
type State interface {
	// Round returns the round number this state is waiting on.
	Round() Round
	// IsCompleted reports whether enough messages have arrived to
	// transition (e.g. a jar is full).
	IsCompleted() bool
	// Accept folds in one message for this round. It must not block and
	// must not itself trigger a transition; Machine calls Transition once
	// IsCompleted() is true.
	Accept(msg Message) error
	// Transition consumes the completed state and returns the next state
	// (nil if the machine reached a terminal state) plus the Output
	// produced by finishing this round.
	Transition() (next State, out Output, err error)
}

// Machine drives a single State through its rounds, buffering messages that
// arrive for a round other than the current one (spec §4.J step 2: "out of
// order").
type Machine struct {
	current State
	pending map[Round][]Message
	final   *any
	err     error
}

// New constructs a Machine from its initial state. Submachine composition
// (spec §4.J "submachine field") is expressed by a State embedding a nested
// Machine and translating Accept/Transition calls into it; this package
// does not special-case it further.
func New(initial State) *Machine {
	return &Machine{current: initial, pending: map[Round][]Message{}}
}

// NewFinal constructs a Machine that has already reached Final without
// exchanging a single message: the degenerate case of a protocol whose
// online step only reads preprocessing material that was already resolved
// offline (e.g. a random value drawn straight from a prep.Buffer), so there
// is nothing left to wait on.
func NewFinal(final any) *Machine {
	f := final
	return &Machine{pending: map[Round][]Message{}, final: &f}
}

// Done reports whether the machine reached Final or aborted.
func (m *Machine) Done() bool { return m.final != nil || m.err != nil }

// Round reports the round the machine's current state is waiting on, so a
// caller relaying outgoing messages between machines knows what round to
// stamp them with. Meaningless once Done.
func (m *Machine) Round() Round {
	if m.current == nil {
		return -1
	}
	return m.current.Round()
}

// Result returns the final output, once Done.
func (m *Machine) Result() (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.final == nil {
		return nil, fmt.Errorf("sm: machine not finished")
	}
	return *m.final, nil
}

// HandleMessage routes an incoming message to the current state, buffering
// it if it targets a different round, and cascades through as many
// transitions as the newly available messages unlock (spec §4.J step 3).
func (m *Machine) HandleMessage(msg Message) (Output, error) {
	if m.Done() {
		return Output{}, fmt.Errorf("sm: machine already finished")
	}
	if msg.Round != m.current.Round() {
		// Stale messages (for a round strictly before the current one) are
		// dropped; future-round messages are buffered until we arrive.
		if msg.Round > m.current.Round() {
			m.pending[msg.Round] = append(m.pending[msg.Round], msg)
		}
		return Output{}, nil
	}
	if err := m.current.Accept(msg); err != nil {
		m.err = err
		return Output{}, err
	}
	return m.advance()
}

// advance transitions the current state for as long as it is completed,
// replaying any buffered out-of-order messages for the new round (spec
// §4.J step 3: "cascading through multiple variants in one call").
func (m *Machine) advance() (Output, error) {
	var aggregate Output
	for m.current != nil && m.current.IsCompleted() {
		next, out, err := m.current.Transition()
		if err != nil {
			m.err = err
			return aggregate, err
		}
		aggregate.Messages = append(aggregate.Messages, out.Messages...)
		if out.IsFinal {
			f := out.Final
			m.final = &f
			aggregate.Final = out.Final
			aggregate.IsFinal = true
			m.current = nil
			return aggregate, nil
		}
		m.current = next
		if m.current == nil {
			break
		}
		queued := m.pending[m.current.Round()]
		delete(m.pending, m.current.Round())
		for _, qm := range queued {
			if err := m.current.Accept(qm); err != nil {
				m.err = err
				return aggregate, err
			}
		}
	}
	return aggregate, nil
}
