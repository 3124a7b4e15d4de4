// Package runtime implements the per-party execution VM of spec §4.K:
// heap memory addressed by protocols.ProtocolAddress, local/online step
// execution, preprocessing accounting, and output collection. Grounded on
// original_source/libs/execution-engine/mpc-vm/src/protocols/mod.rs for the
// local-vs-online step split and on the teacher's round-driver loop
// (pkg/protocol/handler.go's per-round dispatch) for the online machine
// bookkeeping.
package runtime

import (
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/value"
)

// Heap is the VM's addressed memory: every address holds one whole Value.
// A compound value is stored in a single cell with its children inline in
// Elements; there is no header cell and no pointer entries into the heap.
type Heap struct {
	cells map[protocols.ProtocolAddress]value.Value
}

// NewHeap constructs an empty heap sized for the given memory footprint.
func NewHeap(size int) *Heap {
	return &Heap{cells: make(map[protocols.ProtocolAddress]value.Value, size)}
}

// Store writes v at addr.
func (h *Heap) Store(addr protocols.ProtocolAddress, v value.Value) {
	h.cells[addr] = v
}

// Load reads the value at addr. For a compound it returns a copy with a
// fresh top-level Elements slice holding the stored children as they are;
// no address is dereferenced.
func (h *Heap) Load(addr protocols.ProtocolAddress) (value.Value, error) {
	v, ok := h.cells[addr]
	if !ok {
		return value.Value{}, errs.ErrProtocolMemory
	}
	if !v.Type.Kind.IsCompound() {
		return v, nil
	}
	resolved := v
	resolved.Elements = make([]value.Value, len(v.Elements))
	for i, el := range v.Elements {
		resolved.Elements[i] = el
	}
	return resolved, nil
}
