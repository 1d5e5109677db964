// Package boards describes what the SoC's DMA subsystem looks like:
// which controllers exist, how many channels each carries, and which
// interrupt vector services each channel. A plan is consumed once at
// driver init and never changes afterwards.
package boards

import (
	"dmacore-go/errcode"
	"dmacore-go/irq"
)

// MaxChannels is the per-controller channel limit: the shared ISR/IFCR
// banks hold one 4-bit nibble per channel in a 32-bit register.
const MaxChannels = 8

// ControllerPlan is one DMA unit.
type ControllerPlan struct {
	Name     string       // e.g. "dma1"
	Channels int          // 1..MaxChannels
	Vectors  []irq.Vector // one per channel; repeats mean a shared line
}

// Plan is the full subsystem description.
type Plan struct {
	Name        string
	Controllers []ControllerPlan
}

// Streams is the total stream count across controllers.
func (p Plan) Streams() int {
	n := 0
	for _, c := range p.Controllers {
		n += c.Channels
	}
	return n
}

// Validate checks structural soundness: at least one controller, unique
// controller names, channel counts within the flag-bank width, one vector
// per channel, and a total stream count that fits the allocator's bitmask.
func (p Plan) Validate() error {
	if len(p.Controllers) == 0 {
		return &errcode.E{C: errcode.InvalidPlan, Op: "boards.Validate", Msg: "no controllers"}
	}
	seen := map[string]bool{}
	for _, c := range p.Controllers {
		if c.Name == "" || seen[c.Name] {
			return &errcode.E{C: errcode.InvalidPlan, Op: "boards.Validate", Msg: "duplicate or empty controller name: " + c.Name}
		}
		seen[c.Name] = true
		if c.Channels < 1 || c.Channels > MaxChannels {
			return &errcode.E{C: errcode.InvalidPlan, Op: "boards.Validate", Msg: c.Name + ": channel count out of range"}
		}
		if len(c.Vectors) != c.Channels {
			return &errcode.E{C: errcode.InvalidPlan, Op: "boards.Validate", Msg: c.Name + ": vector list does not match channel count"}
		}
	}
	if p.Streams() > 32 {
		return &errcode.E{C: errcode.InvalidPlan, Op: "boards.Validate", Msg: "more than 32 streams"}
	}
	return nil
}
