// Package party implements party identity, ordered party sets, and jar
// collections, per spec §4.L. It is grounded on the teacher repo's
// pkg/party usage pattern seen through pkg/protocol/handler.go
// (party.ID, r.PartyIDs(), r.OtherPartyIDs()).
package party

import (
	"bytes"
	"sort"

	"github.com/NillionNetwork/nilcore/field"
)

// ID is an opaque byte identifier for a cluster member.
type ID string

// Set is an ordered party set; the order is the sort order of the byte
// identifiers, which every node in the cluster must agree on (spec §4.L).
type Set struct {
	ids   []ID
	index map[ID]int // 0-based position in ids
}

// NewSet builds an ordered Set from an arbitrary slice of IDs, sorting them
// by their byte representation.
func NewSet(ids []ID) Set {
	sorted := append([]ID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare([]byte(sorted[i]), []byte(sorted[j])) < 0
	})
	idx := make(map[ID]int, len(sorted))
	for i, id := range sorted {
		idx[id] = i
	}
	return Set{ids: sorted, index: idx}
}

// Len returns the number of parties in the set.
func (s Set) Len() int { return len(s.ids) }

// IDs returns the ordered list of party identifiers.
func (s Set) IDs() []ID { return append([]ID(nil), s.ids...) }

// Contains reports whether id is a member of the set.
func (s Set) Contains(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Index returns id's 0-based position in the ordered set.
func (s Set) Index(id ID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Abscissa returns id's 1-based Shamir abscissa within the set: its stable
// index used as the x-coordinate of its share (spec §3 "ordered party set").
func (s Set) Abscissa(m *field.Modulus, id ID) (field.Element, bool) {
	i, ok := s.index[id]
	if !ok {
		return field.Element{}, false
	}
	return field.FromUint64(m, uint64(i+1)), true
}

// Others returns every party in the set except self.
func (s Set) Others(self ID) []ID {
	out := make([]ID, 0, len(s.ids)-1)
	for _, id := range s.ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
