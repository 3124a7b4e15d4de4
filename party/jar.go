package party

import "github.com/NillionNetwork/nilcore/errs"

// Jar collects at most one T per party (spec §4.L, glossary "Jar"). It
// completes (IsFull) once every party it was constructed to wait for has
// contributed an element.
type Jar[T any] struct {
	expected Set
	entries  map[ID]T
}

// NewJar constructs an empty Jar that waits for one entry per party in
// expected.
func NewJar[T any](expected Set) *Jar[T] {
	return &Jar[T]{expected: expected, entries: make(map[ID]T, expected.Len())}
}

// Add records from's contribution. It returns errs.ErrJarDuplicateParty if
// from already contributed, and does nothing (no error) if from is not part
// of the expected set — callers that need strictness should check
// expected.Contains first.
func (j *Jar[T]) Add(from ID, value T) error {
	if _, ok := j.entries[from]; ok {
		return errs.ErrJarDuplicateParty
	}
	if !j.expected.Contains(from) {
		return nil
	}
	j.entries[from] = value
	return nil
}

// Len returns how many parties have contributed so far.
func (j *Jar[T]) Len() int { return len(j.entries) }

// IsFull reports whether every expected party has contributed.
func (j *Jar[T]) IsFull() bool { return len(j.entries) == j.expected.Len() }

// HasAtLeast reports whether at least n distinct parties have contributed,
// used by Shamir recovery's "any >= T+1 shares" rule (spec §4.C).
func (j *Jar[T]) HasAtLeast(n int) bool { return len(j.entries) >= n }

// Has reports whether id has already contributed.
func (j *Jar[T]) Has(id ID) bool {
	_, ok := j.entries[id]
	return ok
}

// Entries returns a defensive copy of the party -> value map collected so
// far.
func (j *Jar[T]) Entries() map[ID]T {
	out := make(map[ID]T, len(j.entries))
	for k, v := range j.entries {
		out[k] = v
	}
	return out
}

// Values returns the collected values without their party keys, in no
// particular order.
func (j *Jar[T]) Values() []T {
	out := make([]T, 0, len(j.entries))
	for _, v := range j.entries {
		out = append(out, v)
	}
	return out
}
