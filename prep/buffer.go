// Package prep implements the preprocessing material ring buffer of spec
// §3 "Preprocessing buffer" and §5 "Shared resources", plus the
// InstructionRequirementProvider the execution planner draws from (spec
// §4.H). Grounded on original_source/node/src/services/runtime_elements.rs
// and libs/node-api/src/preprocessing.rs, which resolve spec §9's open
// question about the five-cursor lifecycle.
package prep

import (
	"sync"

	"github.com/NillionNetwork/nilcore/errs"
)

// Range is a half-open [Start, End) slice of the monotonic reservation
// cursor.
type Range struct {
	Start, End uint64
}

// Len returns the number of elements in the range.
func (r Range) Len() uint64 { return r.End - r.Start }

// Chunk is the output of one offline protocol run: the shares it produced
// for batch_size elements, plus its starting offset in the ring.
type Chunk struct {
	Offset uint64 // the chunk's starting offset in the ring
	Count  uint64
	Data   []any // opaque shares; interpreted by the online protocol consuming them
}

// Buffer is a monotonic ring of batched chunks for one element kind,
// tracking the five cursors named in spec §9:
//
//   - latest: highest offset any chunk has been produced up to (advanced by Produce)
//   - committed: highest offset contiguously available for Reserve (advanced by Commit)
//   - target: the retention target below which chunks may eventually be deleted
//   - delete_candidate: min(target, committed) — it is safe to delete anything
//     strictly below this offset as long as nothing still holds a reservation there
//   - deleted: highest offset actually reclaimed so far
//
// Delete requires deleted <= delete_candidate <= committed, matching the
// original's precondition; this prevents readers of a still-live reservation
// from racing a delete (spec §5 "readers never race deletions").
type Buffer struct {
	mu sync.Mutex

	kind Kind

	chunks []Chunk

	reserveCursor   uint64 // next offset Reserve will hand out
	latest          uint64
	committed       uint64
	target          uint64
	deleteCandidate uint64
	deleted         uint64
}

// Kind names a preprocessing element kind (spec §6: Compare, Div, Modulo,
// Trunc, TruncPr, Eq, PubEq, RandomInt, RandomBool, EcdsaAuxInfo, ...).
type Kind string

// NewBuffer constructs an empty ring for one element kind.
func NewBuffer(kind Kind) *Buffer {
	return &Buffer{kind: kind}
}

// Kind returns the element kind this buffer serves.
func (b *Buffer) Kind() Kind { return b.kind }

// Produce appends a freshly generated chunk (the output of one offline
// protocol run) and advances latest.
func (b *Buffer) Produce(count uint64, data []any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset := b.latest
	b.chunks = append(b.chunks, Chunk{Offset: offset, Count: count, Data: data})
	b.latest += count
}

// Commit advances committed up to the highest offset that is contiguously
// available (i.e. up to latest, since Produce only ever appends
// contiguously). Matches the original's commit semantics where committed
// tracks "safe to hand out via Reserve".
func (b *Buffer) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = b.latest
}

// SetTarget sets the retention target used to compute delete_candidate.
func (b *Buffer) SetTarget(target uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = target
}

// Reserve atomically advances the reservation cursor by count and returns
// the reserved Range, failing with a resource error if the buffer has not
// committed enough elements yet (spec §5 "reserve(kind, count) -> Range<u64>").
func (b *Buffer) Reserve(count uint64) (Range, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reserveCursor+count > b.committed {
		return Range{}, &errs.PreprocessingExhausted{Kind: string(b.kind)}
	}
	r := Range{Start: b.reserveCursor, End: b.reserveCursor + count}
	b.reserveCursor = r.End
	return r, nil
}

// MarkDeleteCandidate sets delete_candidate = min(target, committed), per
// the original's policy.
func (b *Buffer) MarkDeleteCandidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target < b.committed {
		b.deleteCandidate = b.target
	} else {
		b.deleteCandidate = b.committed
	}
}

// Delete reclaims chunks strictly below delete_candidate, requiring
// deleted <= delete_candidate <= committed (spec §5, §9).
func (b *Buffer) Delete() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !(b.deleted <= b.deleteCandidate && b.deleteCandidate <= b.committed) {
		return errFailedDeletePrecondition
	}
	kept := b.chunks[:0]
	for _, c := range b.chunks {
		if c.Offset+c.Count <= b.deleteCandidate {
			continue
		}
		kept = append(kept, c)
	}
	b.chunks = kept
	b.deleted = b.deleteCandidate
	return nil
}

// Available returns committed - reserveCursor, the number of elements still
// available to reserve.
func (b *Buffer) Available() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed - b.reserveCursor
}

// Data resolves a previously reserved Range back into the chunk elements it
// covers, in order. A protocol's OnlineFunc calls this once the planner has
// handed it a Range, turning the opaque offsets back into the typed
// preprocessing bundles the chunk's producer stored (spec §5 "opaque shares;
// interpreted by the online protocol consuming them").
func (b *Buffer) Data(r Range) ([]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]any, r.Len())
	for _, c := range b.chunks {
		cStart, cEnd := c.Offset, c.Offset+c.Count
		start, end := max(r.Start, cStart), min(r.End, cEnd)
		if start >= end {
			continue
		}
		for i := start; i < end; i++ {
			out[i-r.Start] = c.Data[i-cStart]
		}
	}
	for _, v := range out {
		if v == nil {
			return nil, &errs.PreprocessingDataMissing{Kind: string(b.kind)}
		}
	}
	return out, nil
}

var errFailedDeletePrecondition = &deletePreconditionError{}

type deletePreconditionError struct{}

func (*deletePreconditionError) Error() string {
	return "prep: delete precondition violated: require deleted <= delete_candidate <= committed"
}
