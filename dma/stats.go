package dma

import "sync/atomic"

// counters are bumped with plain atomic adds; the dispatch path touches
// them from interrupt context, so nothing here may block or allocate.
type counters struct {
	allocs     atomic.Uint64
	allocFails atomic.Uint64
	releases   atomic.Uint64
	interrupts atomic.Uint64
	spurious   atomic.Uint64
	callbacks  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the driver counters.
type StatsSnapshot struct {
	Allocs     uint64 // successful Allocate calls
	AllocFails uint64 // Allocate calls refused with resource_exhausted
	Releases   uint64 // Release calls
	Interrupts uint64 // shared-vector firings served
	Spurious   uint64 // candidate streams with latched but disabled flags
	Callbacks  uint64 // callbacks actually invoked
}

func (d *Driver) Stats() StatsSnapshot {
	return StatsSnapshot{
		Allocs:     d.stats.allocs.Load(),
		AllocFails: d.stats.allocFails.Load(),
		Releases:   d.stats.releases.Load(),
		Interrupts: d.stats.interrupts.Load(),
		Spurious:   d.stats.spurious.Load(),
		Callbacks:  d.stats.callbacks.Load(),
	}
}
