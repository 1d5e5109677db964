package dma

import "dmacore-go/regs"

// serveVector handles one firing of a shared interrupt line. It runs in
// interrupt context: no blocking, no allocation, a bounded number of
// register operations per candidate stream.
func (d *Driver) serveVector(streams []*Stream) {
	d.stats.interrupts.Add(1)
	for _, s := range streams {
		d.serveStream(s)
	}
}

// serveStream implements the per-stream dispatch protocol:
//
//  1. read the shared status bank, shift the stream's nibble down and mask
//     to the TE/HT/TC bits;
//  2. AND against the raw control register. Status bits and their enable
//     bits share positions within their nibbles (hardware contract, see
//     regs), so no realignment is needed. Zero means no enabled event:
//     skip, leaving any disabled flags latched and unreported;
//  3. acknowledge exactly the observed enabled flags in the clear bank;
//  4. call the redirection entry, if present, with the bit-zero-aligned
//     flags. A free or mid-release stream has a nil entry; its interrupt
//     is late, not an error, and is dropped silently.
func (d *Driver) serveStream(s *Stream) {
	flags := (s.ctrl.ISR() >> s.shift) & regs.FlagsMask
	enabled := flags & s.ch.CCR.Load()
	if enabled == 0 {
		if flags != 0 {
			d.stats.spurious.Add(1)
		}
		return
	}
	s.ctrl.ClearFlags(enabled << s.shift)
	if r := d.redir[s.self].Load(); r != nil {
		d.stats.callbacks.Add(1)
		r.fn(r.param, Flags(enabled))
	}
}
