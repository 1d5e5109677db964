// Package sim is the hosted hardware model: register banks, a flat byte
// memory addressed by uint32, and a transfer engine that moves data for
// enabled channels, latches status flags and raises interrupt vectors the
// way the silicon would. Tests and the demo binary run the driver against
// it; a target port replaces it with real register blocks.
package sim

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"dmacore-go/boards"
	"dmacore-go/dma"
	"dmacore-go/dmamux"
	"dmacore-go/irq"
	"dmacore-go/logx"
	"dmacore-go/regs"
	"dmacore-go/x/mathx"
)

var logger = logx.Logger("sim")

// Option configures a Board.
type Option func(*Board)

// WithClock substitutes the engine clock; tests pass clock.NewMock().
func WithClock(c clock.Clock) Option { return func(b *Board) { b.clk = c } }

// WithTick sets the engine period (default 200µs).
func WithTick(d time.Duration) Option { return func(b *Board) { b.tick = d } }

// WithUnitsPerTick sets how many data units each enabled channel moves per
// engine tick, clamped to 1..1024 (default 16).
func WithUnitsPerTick(n int) Option {
	return func(b *Board) { b.units = mathx.Clamp(n, 1, 1024) }
}

// WithMemorySize sets the simulated RAM size in bytes (default 64 KiB).
func WithMemorySize(n int) Option { return func(b *Board) { b.memSize = n } }

// Board is one simulated part.
type Board struct {
	plan    boards.Plan
	hw      dma.Hardware
	mem     []byte
	memSize int

	clk   clock.Clock
	tick  time.Duration
	units int

	// engine shadow state, one per stream in table order
	chans []chanState
}

type chanState struct {
	ctrl   *regs.Controller
	ch     *regs.Channel
	mux    *dmamux.Channel
	shift  uint8
	vector irq.Vector
	total  uint32 // transaction size captured when the channel arms
	armed  bool
}

// New builds the register banks, mux and interrupt controller for plan.
// The plan must be valid; New panics otherwise, since a bad plan is a
// build-time mistake, not a runtime condition.
func New(plan boards.Plan, opts ...Option) *Board {
	if err := plan.Validate(); err != nil {
		panic("sim: " + err.Error())
	}
	b := &Board{
		plan:    plan,
		memSize: 64 << 10,
		clk:     clock.New(),
		tick:    200 * time.Microsecond,
		units:   16,
	}
	for _, o := range opts {
		o(b)
	}
	b.mem = make([]byte, b.memSize)

	b.hw = dma.Hardware{
		Mux: dmamux.New(plan.Streams()),
		IRQ: irq.NewController(),
	}
	idx := 0
	for _, cp := range plan.Controllers {
		ctrl := regs.NewController(cp.Name, cp.Channels)
		b.hw.Controllers = append(b.hw.Controllers, ctrl)
		for ch := 0; ch < cp.Channels; ch++ {
			b.chans = append(b.chans, chanState{
				ctrl:   ctrl,
				ch:     &ctrl.Channels[ch],
				mux:    &b.hw.Mux.Channels[idx],
				shift:  uint8(ch * regs.FlagBits),
				vector: cp.Vectors[ch],
			})
			idx++
		}
	}
	return b
}

// Hardware returns the register surface for dma.New.
func (b *Board) Hardware() dma.Hardware { return b.hw }

// MemSize returns the simulated RAM size.
func (b *Board) MemSize() int { return len(b.mem) }

// WriteMem copies p into simulated RAM at addr.
func (b *Board) WriteMem(addr uint32, p []byte) { copy(b.mem[addr:], p) }

// ReadMem copies n bytes of simulated RAM starting at addr.
func (b *Board) ReadMem(addr uint32, n int) []byte {
	out := make([]byte, n)
	copy(out, b.mem[addr:])
	return out
}

// Start runs the transfer engine until ctx is cancelled. Each tick every
// enabled memory-to-memory channel advances by the configured unit budget.
func (b *Board) Start(ctx context.Context) {
	t := b.clk.Ticker(b.tick)
	logger.Debug("engine started", "tick", b.tick, "units", b.units)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.Step(b.units)
			}
		}
	}()
}

// Step advances every enabled memory-to-memory channel by up to n units.
// Exported so tests can drive the engine deterministically without the
// ticker goroutine.
func (b *Board) Step(n int) {
	for i := range b.chans {
		b.stepChannel(&b.chans[i], n, true)
	}
}

// Request simulates one peripheral request pulse on the given mux line:
// every enabled peripheral-mode stream routed to id moves a single unit.
func (b *Board) Request(id dmamux.RequestID) {
	for i := range b.chans {
		cs := &b.chans[i]
		if cs.mux.Request() != id {
			continue
		}
		b.stepChannel(cs, 1, false)
	}
}

// FailTransfer simulates a bus error on the stream with the given table
// index: hardware clears the enable bit, latches the transfer-error flag
// and raises the vector.
func (b *Board) FailTransfer(stream int) {
	cs := &b.chans[stream]
	cs.ch.CCR.ClearBits(regs.CREnable)
	cs.armed = false
	b.raise(cs, regs.FlagError)
}

// RaiseRaw latches raw status bits for a stream and fires its vector,
// regardless of enables. Tests use it to model spurious hardware flags.
func (b *Board) RaiseRaw(stream int, flags uint32) {
	cs := &b.chans[stream]
	cs.ctrl.RaiseFlags((flags & regs.FlagsMask) << cs.shift)
	b.hw.IRQ.Raise(cs.vector)
}

func (b *Board) raise(cs *chanState, flags uint32) {
	cs.ctrl.RaiseFlags(flags << cs.shift)
	// The line only fires if the channel has the matching enables set;
	// flag and enable bits share positions within their nibbles.
	if flags&cs.ch.CCR.Load() != 0 {
		b.hw.IRQ.Raise(cs.vector)
	}
}

// stepChannel moves up to n units. auto selects engine-driven channels
// (memory-to-memory); request-driven channels move only from Request.
func (b *Board) stepChannel(cs *chanState, n int, auto bool) {
	ccr := cs.ch.CCR.Load()
	if ccr&regs.CREnable == 0 {
		cs.armed = false
		return
	}
	if auto != (ccr&regs.CRMem2Mem != 0) {
		return
	}
	ndtr := cs.ch.CNDTR.Load()
	if !cs.armed {
		if ndtr == 0 {
			return
		}
		cs.armed = true
		cs.total = ndtr
	}
	if ndtr == 0 {
		return
	}

	half := cs.total / 2
	var pending uint32
	for ; n > 0 && ndtr > 0; n-- {
		if !b.moveUnit(cs, ccr, cs.total-ndtr) {
			// bus fault: hardware disables the channel and latches TE
			cs.ch.CCR.ClearBits(regs.CREnable)
			cs.armed = false
			cs.ch.CNDTR.Store(ndtr)
			b.raise(cs, regs.FlagError)
			return
		}
		before := ndtr
		ndtr--
		if before > half && ndtr <= half {
			pending |= regs.FlagHalf
		}
	}
	cs.ch.CNDTR.Store(ndtr)
	if ndtr == 0 {
		pending |= regs.FlagComplete
		if ccr&regs.CRCirc != 0 {
			cs.ch.CNDTR.Store(cs.total)
		}
	}
	if pending != 0 {
		b.raise(cs, pending)
	}
}

// moveUnit copies one data unit for the channel; done is how many units
// have already moved, used to advance the incrementing side(s). Reports
// false on an out-of-range access.
func (b *Board) moveUnit(cs *chanState, ccr, done uint32) bool {
	psize := sizeBytes(ccr >> 8 & 3)
	msize := sizeBytes(ccr >> 10 & 3)

	// Peripheral side is CPAR, memory side is CMAR; DIR/MEM2MEM pick the
	// read side.
	pAddr, mAddr := cs.ch.CPAR.Load(), cs.ch.CMAR.Load()
	if ccr&regs.CRPInc != 0 {
		pAddr += done * psize
	}
	if ccr&regs.CRMInc != 0 {
		mAddr += done * msize
	}

	var src, dst uint32
	var srcSize, dstSize uint32
	if ccr&regs.CRDirM2P != 0 {
		src, srcSize = mAddr, msize
		dst, dstSize = pAddr, psize
	} else {
		src, srcSize = pAddr, psize
		dst, dstSize = mAddr, msize
	}
	if int(src)+int(srcSize) > len(b.mem) || int(dst)+int(dstSize) > len(b.mem) {
		return false
	}

	var v uint64
	for i := uint32(0); i < srcSize; i++ {
		v |= uint64(b.mem[src+i]) << (8 * i)
	}
	for i := uint32(0); i < dstSize; i++ {
		b.mem[dst+i] = byte(v >> (8 * i))
	}
	return true
}

func sizeBytes(field uint32) uint32 {
	switch field {
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 1
	}
}
