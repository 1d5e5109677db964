package sim_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmacore-go/boards"
	"dmacore-go/dma"
	"dmacore-go/dmamux"
	"dmacore-go/regs"
	"dmacore-go/sim"
)

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}

func TestMemCopyStepwise(t *testing.T) {
	board := sim.New(boards.Default)
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	var flags []dma.Flags
	s, err := drv.Allocate(1, func(_ any, f dma.Flags) { flags = append(flags, f) }, nil)
	require.NoError(t, err)

	const src, dst, n = 0x100, 0x800, 100
	board.WriteMem(src, pattern(n))

	s.StartMemCopy(regs.CRTCIE|regs.CRHTIE, src, dst, n)

	board.Step(50)
	assert.EqualValues(t, 50, s.TransactionSize())
	require.Len(t, flags, 1, "half-transfer should have fired")
	assert.True(t, flags[0].Half())
	assert.False(t, flags[0].Complete())

	board.Step(50)
	assert.Zero(t, s.TransactionSize())
	require.Len(t, flags, 2)
	assert.True(t, flags[1].Complete())

	assert.True(t, bytes.Equal(pattern(n), board.ReadMem(dst, n)))
}

func TestMemCopyWaitCompletion(t *testing.T) {
	board := sim.New(boards.Default, sim.WithTick(50*time.Microsecond))
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	board.Start(ctx)

	s, err := drv.Allocate(1, nopCallback, nil)
	require.NoError(t, err)

	const src, dst, n = 0x000, 0x400, 100
	board.WriteMem(src, pattern(n))
	s.StartMemCopy(0, src, dst, n)
	s.WaitCompletion()

	assert.Zero(t, s.TransactionSize())
	assert.Zero(t, s.Mode()&regs.CREnable, "WaitCompletion must leave the stream disabled")
	assert.True(t, bytes.Equal(pattern(n), board.ReadMem(dst, n)))
}

func TestMemCopyMockClockEngine(t *testing.T) {
	mock := clock.NewMock()
	board := sim.New(boards.Default,
		sim.WithClock(mock),
		sim.WithTick(time.Millisecond),
		sim.WithUnitsPerTick(16))
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	board.Start(ctx)

	s, err := drv.Allocate(1, nopCallback, nil)
	require.NoError(t, err)

	const src, dst, n = 0x100, 0x900, 64
	board.WriteMem(src, pattern(n))
	s.StartMemCopy(0, src, dst, n)

	require.Eventually(t, func() bool {
		mock.Add(time.Millisecond)
		return s.TransactionSize() == 0
	}, time.Second, time.Millisecond)

	assert.True(t, bytes.Equal(pattern(n), board.ReadMem(dst, n)))
}

func TestRequestDrivenPeripheralTransfer(t *testing.T) {
	board := sim.New(boards.Default)
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	var flags []dma.Flags
	s, err := drv.Allocate(1, func(_ any, f dma.Flags) { flags = append(flags, f) }, nil)
	require.NoError(t, err)

	// Peripheral data register lives at a fixed address; memory side
	// increments. Four bytes expected.
	const periph, dst uint32 = 0x20, 0x300
	s.SetRequestSource(dmamux.ReqUSART1RX)
	s.SetPeripheral(periph)
	s.SetMemory(dst)
	s.SetTransactionSize(4)
	s.SetMode(regs.CRMInc | regs.CRTCIE | regs.CREnable)

	for i, b := range []byte{'p', 'i', 'n', 'g'} {
		board.WriteMem(periph, []byte{b})
		board.Request(dmamux.ReqUSART1RX)
		assert.EqualValues(t, 3-i, s.TransactionSize())
	}

	assert.Equal(t, []byte("ping"), board.ReadMem(dst, 4))
	require.Len(t, flags, 1)
	assert.True(t, flags[0].Complete())

	// Requests for other lines never touch this stream.
	board.Request(dmamux.ReqADC1)
	assert.Zero(t, s.TransactionSize())
}

func TestRequestIgnoresEngineTicks(t *testing.T) {
	board := sim.New(boards.Default)
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	s, err := drv.Allocate(1, nopCallback, nil)
	require.NoError(t, err)
	s.SetRequestSource(dmamux.ReqSPI1RX)
	s.SetPeripheral(0x10)
	s.SetMemory(0x200)
	s.SetTransactionSize(8)
	s.SetMode(regs.CRMInc | regs.CREnable)

	// The engine only drives memory-to-memory channels; a peripheral-mode
	// stream waits for its request line.
	board.Step(100)
	assert.EqualValues(t, 8, s.TransactionSize())
}

func TestTransferErrorInjection(t *testing.T) {
	board := sim.New(boards.Default)
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	var flags []dma.Flags
	s, err := drv.Allocate(1, func(_ any, f dma.Flags) { flags = append(flags, f) }, nil)
	require.NoError(t, err)
	s.SetMode(regs.CRTEIE | regs.CREnable)

	board.FailTransfer(s.Index())

	require.Len(t, flags, 1)
	assert.True(t, flags[0].Error())
	assert.Zero(t, s.Mode()&regs.CREnable, "hardware disables the channel on transfer error")
}

func TestBusFaultLatchesTransferError(t *testing.T) {
	board := sim.New(boards.Default, sim.WithMemorySize(1<<10))
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	var flags []dma.Flags
	s, err := drv.Allocate(1, func(_ any, f dma.Flags) { flags = append(flags, f) }, nil)
	require.NoError(t, err)

	// Destination walks off the end of RAM.
	s.StartMemCopy(regs.CRTEIE, 0x000, 0x3FC, 16)
	board.Step(16)

	require.Len(t, flags, 1)
	assert.True(t, flags[0].Error())
	assert.Zero(t, s.Mode()&regs.CREnable)
	assert.NotZero(t, s.TransactionSize(), "remaining count reflects the aborted transfer")
}

func TestCircularModeReloads(t *testing.T) {
	board := sim.New(boards.Default)
	drv, err := dma.New(boards.Default, board.Hardware())
	require.NoError(t, err)

	var flags []dma.Flags
	s, err := drv.Allocate(1, func(_ any, f dma.Flags) { flags = append(flags, f) }, nil)
	require.NoError(t, err)

	const src, dst, n = 0x40, 0x80, 8
	board.WriteMem(src, pattern(n))
	s.StartMemCopy(regs.CRCirc|regs.CRTCIE, src, dst, n)

	board.Step(n)
	require.Len(t, flags, 1)
	assert.True(t, flags[0].Complete())
	assert.EqualValues(t, n, s.TransactionSize(), "circular mode reloads the count")

	board.Step(n)
	require.Len(t, flags, 2, "circular mode keeps completing")
}

func nopCallback(any, dma.Flags) {}
