// Package mmio provides 32-bit register cells for the hosted hardware model.
//
// On silicon these would be volatile memory-mapped locations; here each cell
// is backed by an atomic word so that a reader in interrupt context never
// observes a torn update from a writer in thread context. The read-modify-
// write helpers (SetBits, ClearBits) are single atomic operations, matching
// the |= / &^= idiom of register code.
package mmio

import "sync/atomic"

// U32 is one 32-bit hardware register.
type U32 struct {
	v atomic.Uint32
}

func (r *U32) Load() uint32       { return r.v.Load() }
func (r *U32) Store(x uint32)     { r.v.Store(x) }
func (r *U32) SetBits(m uint32)   { r.v.Or(m) }
func (r *U32) ClearBits(m uint32) { r.v.And(^m) }

// HasBits reports whether all bits in m are set.
func (r *U32) HasBits(m uint32) bool { return r.v.Load()&m == m }

// ReplaceBits clears the bits selected by mask and sets val (pre-shifted)
// in their place, as a compare-and-swap loop so concurrent SetBits/ClearBits
// on other fields are not lost.
func (r *U32) ReplaceBits(val, mask uint32) {
	for {
		old := r.v.Load()
		if r.v.CompareAndSwap(old, (old&^mask)|(val&mask)) {
			return
		}
	}
}
