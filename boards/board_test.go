package boards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmacore-go/errcode"
	"dmacore-go/irq"
)

func TestDefaultPlanIsValid(t *testing.T) {
	require.NoError(t, Default.Validate())
	assert.Equal(t, 12, Default.Streams())
}

func TestValidateRejectsBadPlans(t *testing.T) {
	cases := []struct {
		name string
		plan Plan
	}{
		{"empty", Plan{Name: "empty"}},
		{"duplicate name", Plan{Controllers: []ControllerPlan{
			{Name: "dma1", Channels: 1, Vectors: []irq.Vector{1}},
			{Name: "dma1", Channels: 1, Vectors: []irq.Vector{2}},
		}}},
		{"too many channels", Plan{Controllers: []ControllerPlan{
			{Name: "dma1", Channels: MaxChannels + 1, Vectors: make([]irq.Vector, MaxChannels+1)},
		}}},
		{"zero channels", Plan{Controllers: []ControllerPlan{
			{Name: "dma1", Channels: 0, Vectors: nil},
		}}},
		{"vector mismatch", Plan{Controllers: []ControllerPlan{
			{Name: "dma1", Channels: 3, Vectors: []irq.Vector{1, 2}},
		}}},
		{"too many streams", Plan{Controllers: []ControllerPlan{
			{Name: "dma1", Channels: 8, Vectors: make([]irq.Vector, 8)},
			{Name: "dma2", Channels: 8, Vectors: make([]irq.Vector, 8)},
			{Name: "dma3", Channels: 8, Vectors: make([]irq.Vector, 8)},
			{Name: "dma4", Channels: 8, Vectors: make([]irq.Vector, 8)},
			{Name: "dma5", Channels: 1, Vectors: make([]irq.Vector, 1)},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.plan.Validate()
			require.Error(t, err)
			assert.Equal(t, errcode.InvalidPlan, errcode.Of(err))
		})
	}
}
