// Package dma manages the fixed set of hardware DMA streams: exclusive
// allocation and release, register-level programming of transfers, and
// demultiplexing of shared interrupt lines into per-stream callbacks.
//
// The stream tables are built once from a boards.Plan and are immutable
// afterwards. Allocate/Release are the only mutating entry points and are
// serialised by one mutex; everything else operates on a stream the caller
// exclusively owns.
package dma

import (
	"sync"
	"sync/atomic"

	"dmacore-go/boards"
	"dmacore-go/dmamux"
	"dmacore-go/errcode"
	"dmacore-go/irq"
	"dmacore-go/logx"
	"dmacore-go/regs"
	"dmacore-go/x/mathx"
)

var logger = logx.Logger("dma")

// Flags are the per-stream status bits handed to callbacks, aligned to bit
// zero of the stream's nibble (regs.FlagError/FlagHalf/FlagComplete).
type Flags uint32

func (f Flags) Complete() bool { return uint32(f)&regs.FlagComplete != 0 }
func (f Flags) Half() bool     { return uint32(f)&regs.FlagHalf != 0 }
func (f Flags) Error() bool    { return uint32(f)&regs.FlagError != 0 }

// Callback runs in interrupt context. It must not block and must not call
// Allocate, Release or WaitCompletion.
type Callback func(param any, flags Flags)

// redirection is one slot of the redirection table. Slots are swapped whole
// through an atomic pointer so the dispatcher never sees a half-written
// (callback, parameter) pair. A nil slot means the stream is free.
type redirection struct {
	fn    Callback
	param any
}

// Hardware is the register-level surface the driver programs. The sim
// package builds one for tests and hosted runs; a target port binds the
// real register blocks instead.
type Hardware struct {
	Controllers []*regs.Controller // parallel to plan.Controllers
	Mux         *dmamux.Mux        // one channel per stream, table order
	IRQ         *irq.Controller
}

// Driver owns the stream descriptor table and the redirection table.
type Driver struct {
	plan boards.Plan
	irqc *irq.Controller

	streams  []Stream
	byVector map[irq.Vector][]*Stream

	mu          sync.Mutex // serialises Allocate/Release
	redir       []atomic.Pointer[redirection]
	vectorUsers map[irq.Vector]int

	stats counters
}

// New validates the plan against the hardware, builds the descriptor table
// and binds one dispatch handler per distinct vector. This is the one-time
// subsystem init; it must run before any interrupt can fire.
func New(plan boards.Plan, hw Hardware) (*Driver, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if len(hw.Controllers) != len(plan.Controllers) {
		return nil, &errcode.E{C: errcode.InvalidPlan, Op: "dma.New", Msg: "controller banks do not match plan"}
	}
	for i, c := range plan.Controllers {
		if len(hw.Controllers[i].Channels) != c.Channels {
			return nil, &errcode.E{C: errcode.InvalidPlan, Op: "dma.New", Msg: c.Name + ": channel bank size mismatch"}
		}
	}
	if hw.Mux == nil || len(hw.Mux.Channels) != plan.Streams() {
		return nil, &errcode.E{C: errcode.InvalidPlan, Op: "dma.New", Msg: "mux channel count does not match stream count"}
	}
	if hw.IRQ == nil {
		return nil, &errcode.E{C: errcode.InvalidPlan, Op: "dma.New", Msg: "no interrupt controller"}
	}

	d := &Driver{
		plan:        plan,
		irqc:        hw.IRQ,
		streams:     make([]Stream, plan.Streams()),
		byVector:    make(map[irq.Vector][]*Stream),
		redir:       make([]atomic.Pointer[redirection], plan.Streams()),
		vectorUsers: make(map[irq.Vector]int),
	}

	idx := 0
	for ci, cp := range plan.Controllers {
		ctrl := hw.Controllers[ci]
		for ch := 0; ch < cp.Channels; ch++ {
			d.streams[idx] = Stream{
				drv:    d,
				ctrl:   ctrl,
				ch:     &ctrl.Channels[ch],
				mux:    &hw.Mux.Channels[idx],
				shift:  uint8(ch * regs.FlagBits),
				self:   uint8(idx),
				vector: cp.Vectors[ch],
			}
			idx++
		}
	}
	// Shared-group masks: streams on the same controller and vector,
	// always including self.
	for i := range d.streams {
		s := &d.streams[i]
		for j := range d.streams {
			o := &d.streams[j]
			if o.ctrl == s.ctrl && o.vector == s.vector {
				s.group |= 1 << o.self
			}
		}
		d.byVector[s.vector] = append(d.byVector[s.vector], s)
	}
	for v, list := range d.byVector {
		d.irqc.SetHandler(v, func() { d.serveVector(list) })
	}

	logger.Info("dma subsystem up",
		"plan", plan.Name, "streams", len(d.streams), "vectors", len(d.byVector))
	return d, nil
}

// Streams returns the total stream count.
func (d *Driver) Streams() int { return len(d.streams) }

// Plan returns the board plan the driver was built from.
func (d *Driver) Plan() boards.Plan { return d.plan }

// Allocate claims the first free stream in table order and installs the
// callback and its parameter. priority selects the interrupt-controller
// level (0..3) of the stream's vector; it does not influence which stream
// is chosen. fn must be non-nil: a registered stream with no callback and
// a raised interrupt is undefined on the hardware side, so a nil callback
// panics here rather than being deferred to dispatch time.
func (d *Driver) Allocate(priority uint32, fn Callback, param any) (*Stream, error) {
	if !mathx.Between(priority, 0, uint32(irq.MaxPriority)) {
		return nil, errcode.InvalidPriority
	}
	if fn == nil {
		panic("dma: Allocate with nil callback")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.streams {
		if d.redir[i].Load() != nil {
			continue
		}
		s := &d.streams[i]
		d.redir[i].Store(&redirection{fn: fn, param: param})
		d.vectorUsers[s.vector]++
		d.irqc.Enable(s.vector, irq.Priority(priority))
		d.stats.allocs.Add(1)
		logger.Debug("stream allocated", "stream", i, "vector", s.vector, "priority", priority)
		return s, nil
	}
	d.stats.allocFails.Add(1)
	return nil, errcode.NoFreeStream
}

// Release disables the stream, clears any pending flags and returns it to
// the free pool. Releasing a stream that is already free is a caller bug
// and panics. The handle is invalid after Release.
func (d *Driver) Release(s *Stream) {
	if s == nil || s.drv != d {
		panic("dma: Release of foreign stream handle")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.redir[s.self].Load() == nil {
		panic("dma: Release of free stream")
	}
	s.Disable()
	d.redir[s.self].Store(nil)
	d.vectorUsers[s.vector]--
	if d.vectorUsers[s.vector] == 0 {
		d.irqc.Disable(s.vector)
	}
	d.stats.releases.Add(1)
	logger.Debug("stream released", "stream", s.self)
}

// Allocated reports whether s is currently claimed.
func (d *Driver) Allocated(s *Stream) bool {
	return d.redir[s.self].Load() != nil
}
