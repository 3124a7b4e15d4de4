package online

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// RunJointly drives one instance of a joint state machine to completion for
// every party in ids, routing each outgoing message in-process rather than
// over a network. It is the preprocessing-side counterpart to
// runtime.VM's online step loop: a PREP-* generator runs entirely within one
// operator process (there is no client waiting on it the way there is for an
// online computation), so the generator can own every party's machine
// directly instead of exchanging envelopes across a transport.
func RunJointly(ids []party.ID, start func(id party.ID) (sm.State, sm.Output, error)) (map[party.ID]any, error) {
	machines := make(map[party.ID]*sm.Machine, len(ids))
	var queue []routedMessage
	for _, id := range ids {
		state, out, err := start(id)
		if err != nil {
			return nil, err
		}
		m := sm.New(state)
		machines[id] = m
		queue = append(queue, expand(id, m, out, ids)...)
	}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		m, ok := machines[r.to]
		if !ok {
			return nil, fmt.Errorf("online: joint protocol routed a message to unknown party %s", r.to)
		}
		if m.Done() {
			// Threshold-completing protocols finish before every message
			// has been routed; the leftovers are dropped.
			continue
		}
		out, err := m.HandleMessage(r.msg)
		if err != nil {
			return nil, err
		}
		queue = append(queue, expand(r.to, m, out, ids)...)
	}
	results := make(map[party.ID]any, len(ids))
	for _, id := range ids {
		m := machines[id]
		if !m.Done() {
			return nil, fmt.Errorf("online: joint protocol did not complete for party %s", id)
		}
		res, err := m.Result()
		if err != nil {
			return nil, err
		}
		results[id] = res
	}
	return results, nil
}

type routedMessage struct {
	to  party.ID
	msg sm.Message
}

// expand tags every message a party's machine just emitted with the round
// that machine is now waiting on, mirroring runtime.VM's envelope routing:
// a single Output never straddles more than one round, since the next
// round's completion can only be triggered by messages this Output itself
// produces.
func expand(from party.ID, m *sm.Machine, out sm.Output, ids []party.ID) []routedMessage {
	var result []routedMessage
	round := m.Round()
	for _, om := range out.Messages {
		msg := sm.Message{From: from, Round: round, Payload: om.Payload}
		if om.To.All {
			for _, to := range ids {
				result = append(result, routedMessage{to: to, msg: msg})
			}
		} else {
			result = append(result, routedMessage{to: om.To.Single, msg: msg})
		}
	}
	return result
}
