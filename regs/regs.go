// Package regs models the register blocks of a non-advanced (DMAv1-class)
// DMA controller: per-channel CCR/CNDTR/CPAR/CMAR plus the controller-wide
// ISR/IFCR flag banks, four status bits per channel.
package regs

import "dmacore-go/mmio"

// CCR bit assignments. The low nibble is shared layout with the per-channel
// ISR nibble: TCIE/HTIE/TEIE sit at the same bit positions as TCIF/HTIF/TEIF.
// That coincidence is a contract of the hardware family, the interrupt
// dispatcher relies on it to filter status against enables with a single AND.
const (
	CREnable uint32 = 1 << 0 // EN
	CRTCIE   uint32 = 1 << 1 // transfer complete interrupt enable
	CRHTIE   uint32 = 1 << 2 // half transfer interrupt enable
	CRTEIE   uint32 = 1 << 3 // transfer error interrupt enable

	CRDirM2P  uint32 = 1 << 4 // DIR: read from memory
	CRCirc    uint32 = 1 << 5 // circular mode
	CRPInc    uint32 = 1 << 6 // peripheral increment
	CRMInc    uint32 = 1 << 7 // memory increment
	CRMem2Mem uint32 = 1 << 14

	CRDirP2M  uint32 = 0
	CRDirMask uint32 = CRDirM2P | CRMem2Mem

	CRIEMask uint32 = CRTCIE | CRHTIE | CRTEIE
)

// Peripheral and memory data sizes (PSIZE bits 8..9, MSIZE bits 10..11).
const (
	CRPSizeByte uint32 = 0
	CRPSizeHalf uint32 = 1 << 8
	CRPSizeWord uint32 = 2 << 8
	CRPSizeMask uint32 = 3 << 8
	CRMSizeByte uint32 = 0
	CRMSizeHalf uint32 = 1 << 10
	CRMSizeWord uint32 = 2 << 10
	CRMSizeMask uint32 = 3 << 10
	CRSizeMask  uint32 = CRPSizeMask | CRMSizeMask
)

// Stream priority level field (PL bits 12..13).
const CRPLMask uint32 = 3 << 12

func CRPL(n uint32) uint32 { return (n & 3) << 12 }

// Per-channel status nibble in ISR/IFCR. FlagsMask deliberately excludes the
// global flag: this layer reports and acknowledges TE/HT/TC only.
const (
	FlagGlobal   uint32 = 1 << 0 // GIF
	FlagComplete uint32 = 1 << 1 // TCIF
	FlagHalf     uint32 = 1 << 2 // HTIF
	FlagError    uint32 = 1 << 3 // TEIF

	FlagsMask uint32 = FlagComplete | FlagHalf | FlagError
	FlagBits         = 4 // nibble width per channel in ISR/IFCR
)

// Channel is one channel's register block.
type Channel struct {
	CCR   mmio.U32 // control/mode
	CNDTR mmio.U32 // remaining transfers
	CPAR  mmio.U32 // peripheral address
	CMAR  mmio.U32 // memory address
}

// Controller is one DMA unit: the shared flag banks plus its channels.
type Controller struct {
	Name     string
	isr      mmio.U32
	Channels []Channel
}

func NewController(name string, channels int) *Controller {
	return &Controller{Name: name, Channels: make([]Channel, channels)}
}

// ISR returns the shared status register value.
func (c *Controller) ISR() uint32 { return c.isr.Load() }

// ClearFlags is the IFCR write: every set bit in mask acknowledges the
// corresponding status bit. Write-only on silicon; here it clears the
// backing status word atomically.
func (c *Controller) ClearFlags(mask uint32) { c.isr.ClearBits(mask) }

// RaiseFlags latches status bits, as the transfer engine does. Raising any
// of a channel's TE/HT/TC bits also latches that channel's global flag,
// mirroring hardware behaviour.
func (c *Controller) RaiseFlags(mask uint32) {
	gif := uint32(0)
	for sh := 0; sh < 32; sh += FlagBits {
		if mask>>sh&FlagsMask != 0 {
			gif |= FlagGlobal << sh
		}
	}
	c.isr.SetBits(mask | gif)
}
