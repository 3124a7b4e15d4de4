package sm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/sm"
)

// echoState is a minimal one-round State used to exercise the driver: it
// waits for one int per party, sums them, and finishes.
type echoState struct {
	round   sm.Round
	parties party.Set
	jar     *jarStub
}

// jarStub avoids importing party.Jar's generics ceremony for this test;
// it mirrors party.Jar[int]'s two operations.
type jarStub struct {
	expected party.Set
	entries  map[party.ID]int
}

func newJarStub(expected party.Set) *jarStub {
	return &jarStub{expected: expected, entries: map[party.ID]int{}}
}

func (j *jarStub) add(from party.ID, v int) { j.entries[from] = v }
func (j *jarStub) full() bool               { return len(j.entries) == j.expected.Len() }
func (j *jarStub) sum() int {
	total := 0
	for _, v := range j.entries {
		total += v
	}
	return total
}

func (s *echoState) Round() sm.Round   { return s.round }
func (s *echoState) IsCompleted() bool { return s.jar.full() }
func (s *echoState) Accept(msg sm.Message) error {
	s.jar.add(msg.From, msg.Payload.(int))
	return nil
}
func (s *echoState) Transition() (sm.State, sm.Output, error) {
	return nil, sm.Output{IsFinal: true, Final: s.jar.sum()}, nil
}

func newEchoState(parties party.Set) *echoState {
	return &echoState{round: 0, parties: parties, jar: newJarStub(parties)}
}

func TestMachineSingleRoundFinal(t *testing.T) {
	parties := party.NewSet([]party.ID{"a", "b", "c"})
	m := sm.New(newEchoState(parties))

	for i, id := range parties.IDs() {
		out, err := m.HandleMessage(sm.Message{From: id, Round: 0, Payload: i + 1})
		require.NoError(t, err)
		if id != parties.IDs()[len(parties.IDs())-1] {
			assert.False(t, out.IsFinal)
		}
	}

	require.True(t, m.Done())
	result, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, 6, result)
}

func TestMachineRejectsMessageAfterFinish(t *testing.T) {
	parties := party.NewSet([]party.ID{"a", "b"})
	m := sm.New(newEchoState(parties))
	for i, id := range parties.IDs() {
		_, err := m.HandleMessage(sm.Message{From: id, Round: 0, Payload: i})
		require.NoError(t, err)
	}
	require.True(t, m.Done())
	_, err := m.HandleMessage(sm.Message{From: "a", Round: 0, Payload: 1})
	require.Error(t, err)
}

func TestMachineBuffersFutureRoundMessages(t *testing.T) {
	parties := party.NewSet([]party.ID{"a", "b"})
	first := newEchoState(parties)
	first.round = 0
	m := sm.New(first)

	// "b" sends its round-1 message before "a" finishes round 0; it must be
	// buffered rather than misapplied (spec §4.J out-of-order handling).
	out, err := m.HandleMessage(sm.Message{From: "b", Round: 1, Payload: 99})
	require.NoError(t, err)
	assert.False(t, out.IsFinal)
	assert.Equal(t, 0, first.jar.sum())
}
