package dma

import (
	"runtime"

	"dmacore-go/dmamux"
	"dmacore-go/irq"
	"dmacore-go/regs"
)

// Stream is one physical transfer channel, valid between Allocate and
// Release. The register operations below are not internally synchronised:
// the owner must keep thread and interrupt context from programming the
// same stream at once. Enable, Disable and ClearInterrupt are single
// atomic register updates and may be issued from interrupt context.
type Stream struct {
	drv    *Driver
	ctrl   *regs.Controller
	ch     *regs.Channel
	group  uint32 // self-index mask of streams sharing bank+vector, incl. self
	mux    *dmamux.Channel
	shift  uint8 // nibble offset in the shared ISR/IFCR banks
	self   uint8 // index into the redirection table
	vector irq.Vector
}

func (s *Stream) Index() int             { return int(s.self) }
func (s *Stream) Vector() irq.Vector     { return s.vector }
func (s *Stream) SharedGroup() uint32    { return s.group }
func (s *Stream) ControllerName() string { return s.ctrl.Name }

// SetPeripheral programs the peripheral-side address register.
func (s *Stream) SetPeripheral(addr uint32) { s.ch.CPAR.Store(addr) }

// SetMemory programs the memory-side address register.
func (s *Stream) SetMemory(addr uint32) { s.ch.CMAR.Store(addr) }

// SetTransactionSize programs the remaining-transfers register.
func (s *Stream) SetTransactionSize(n uint32) { s.ch.CNDTR.Store(n) }

// TransactionSize reads the remaining-transfers register. It counts down
// while a transfer runs and reaches zero at completion.
func (s *Stream) TransactionSize() uint32 { return s.ch.CNDTR.Load() }

// SetMode writes the whole control register; the caller supplies the
// complete word (direction, increments, sizes, interrupt enables, PL).
func (s *Stream) SetMode(mode uint32) { s.ch.CCR.Store(mode) }

// Mode reads back the control register.
func (s *Stream) Mode() uint32 { return s.ch.CCR.Load() }

// Enable sets the enable bit, leaving the rest of the control word alone.
func (s *Stream) Enable() { s.ch.CCR.SetBits(regs.CREnable) }

// Disable clears the enable bit and all interrupt-enable bits in a single
// write, then clears the stream's pending flags. The order is load-bearing:
// with the enables cleared first, a flag raised between the two writes
// cannot turn into a spurious completion interrupt.
func (s *Stream) Disable() {
	s.ch.CCR.ClearBits(regs.CREnable | regs.CRIEMask)
	s.ClearInterrupt()
}

// ClearInterrupt acknowledges the stream's TE/HT/TC flags in the shared
// clear bank without touching the control register.
func (s *Stream) ClearInterrupt() {
	s.ctrl.ClearFlags(regs.FlagsMask << s.shift)
}

// StartMemCopy begins a memory-to-memory transfer of n units from src to
// dst. mode is ORed with source/destination increment, memory-to-memory
// direction and enable; transfers default to byte-sized unless mode says
// otherwise.
func (s *Stream) StartMemCopy(mode, src, dst, n uint32) {
	s.SetPeripheral(src)
	s.SetMemory(dst)
	s.SetTransactionSize(n)
	s.SetMode(mode | regs.CRPInc | regs.CRMInc | regs.CRMem2Mem | regs.CREnable)
}

// WaitCompletion busy-polls the remaining-transfers register until it hits
// zero, then disables the stream. Thread context only: calling it from the
// stream's own interrupt path would spin forever.
func (s *Stream) WaitCompletion() {
	for s.ch.CNDTR.Load() > 0 {
		runtime.Gosched()
	}
	s.Disable()
}

// SetRequestSource routes the given peripheral request line to this stream
// through the stream's mux channel.
func (s *Stream) SetRequestSource(id dmamux.RequestID) {
	s.mux.SetRequest(id)
}

// Release returns the stream to the pool; shorthand for Driver.Release.
func (s *Stream) Release() { s.drv.Release(s) }
