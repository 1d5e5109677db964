// Package dmamux models the DMA request multiplexer: one mux channel per
// DMA stream, each routing a single peripheral request line (by request ID)
// to its stream. Only the request-routing field is modelled; the sync and
// event-generation features of the unit are not used by the stream layer.
package dmamux

import "dmacore-go/mmio"

// RequestID selects the peripheral request line routed to a stream.
// Zero routes nothing (the mux reset state).
type RequestID uint8

// Request IDs for peripherals common across the family. The full table is
// device specific; clients with other peripherals pass the raw ID from the
// reference manual.
const (
	ReqNone       RequestID = 0
	ReqMemToMem   RequestID = 1
	ReqGenerator0 RequestID = 2
	ReqADC1       RequestID = 5
	ReqSPI1RX     RequestID = 16
	ReqSPI1TX     RequestID = 17
	ReqUSART1RX   RequestID = 50
	ReqUSART1TX   RequestID = 51
)

// CCR field layout: DMAREQ_ID occupies the low 7 bits.
const reqIDMask uint32 = 0x7F

// Channel is one mux channel's register block.
type Channel struct {
	ccr mmio.U32
}

// SetRequest programs the DMAREQ_ID field, leaving the rest of the CCR
// untouched.
func (ch *Channel) SetRequest(id RequestID) {
	ch.ccr.ReplaceBits(uint32(id), reqIDMask)
}

// Request returns the currently routed request line.
func (ch *Channel) Request() RequestID {
	return RequestID(ch.ccr.Load() & reqIDMask)
}

// Mux is the bank of channels, one per DMA stream, in stream table order.
type Mux struct {
	Channels []Channel
}

func New(channels int) *Mux {
	return &Mux{Channels: make([]Channel, channels)}
}
