package boards

import "dmacore-go/irq"

// Interrupt lines of the default part. Channel 1 of DMA1 has its own line,
// channels 2..3 share one, and everything else (DMA1 ch4..7 plus all of
// DMA2) is multiplexed onto a single line together with the request mux.
const (
	VecDMA1Ch1   irq.Vector = 9
	VecDMA1Ch2_3 irq.Vector = 10
	VecDMAShared irq.Vector = 11
)

// Default models a mainstream DMAv1+MUX part: two controllers, 7+5 channels.
var Default = Plan{
	Name: "dmav1-mux-7x5",
	Controllers: []ControllerPlan{
		{
			Name:     "dma1",
			Channels: 7,
			Vectors: []irq.Vector{
				VecDMA1Ch1,
				VecDMA1Ch2_3, VecDMA1Ch2_3,
				VecDMAShared, VecDMAShared, VecDMAShared, VecDMAShared,
			},
		},
		{
			Name:     "dma2",
			Channels: 5,
			Vectors: []irq.Vector{
				VecDMAShared, VecDMAShared, VecDMAShared, VecDMAShared, VecDMAShared,
			},
		},
	},
}
