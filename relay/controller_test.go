package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waveshare-io/bus"
	"waveshare-io/bus/bustest"
)

func newTestController(t *testing.T) (*Controller, *bustest.Transport) {
	t.Helper()
	tr := bustest.New()
	c, err := New(tr)
	require.NoError(t, err)
	return c, tr
}

func TestOpenCloseChannel(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(4), uint16(0xFF00)).Return(nil).Once()
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(4), uint16(0x0000)).Return(nil).Once()

	require.NoError(t, c.CloseChannel(ctx, bus.Channel5))
	require.NoError(t, c.OpenChannel(ctx, bus.Channel5))
	tr.AssertExpectations(t)
}

func TestSetChannel_InvalidChannel(t *testing.T) {
	c, tr := newTestController(t)

	assert.ErrorIs(t, c.CloseChannel(context.Background(), bus.Channel(8)), bus.ErrInvalidChannel)
	tr.AssertNoTransportCalls(t)
}

func TestSetChannels_ValidatesWholeBatch(t *testing.T) {
	c, tr := newTestController(t)

	err := c.SetChannels(context.Background(), bus.Channel7, []bus.Action{bus.ActionOn, bus.ActionOn, bus.ActionOn})
	assert.ErrorIs(t, err, bus.ErrInvalidChannel)
	tr.AssertNoTransportCalls(t)
}

func TestSetChannels_StopsAtFailure(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	linkErr := errors.New("no response")
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(0), uint16(0xFF00)).Return(nil).Once()
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(1), uint16(0xFF00)).Return(linkErr).Once()

	err := c.SetChannels(ctx, bus.Channel1, []bus.Action{bus.ActionOn, bus.ActionOn, bus.ActionOn, bus.ActionOn})

	var partial *bus.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Completed)
	tr.AssertNumberOfCalls(t, "WriteSingleCoil", 2)
}

func TestReadChannels_UsesCoils(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadCoils", ctx, uint8(1), CoilRelays, uint16(8)).
		Return([]bool{false, true, false, false, false, false, false, false}, nil)

	state, err := c.ReadChannels(ctx)
	require.NoError(t, err)
	assert.True(t, state.Channel(bus.Channel2))
	assert.Equal(t, uint8(0x02), state.Encode())
	tr.AssertNotCalled(t, "ReadDiscreteInputs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAllChannels(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleCoil", ctx, uint8(1), CoilControlAll, uint16(0x0000)).Return(nil).Once()

	require.NoError(t, c.SetAllChannels(ctx, bus.ActionOff))
	tr.AssertExpectations(t)
}

func TestSetAllChannels_InvalidAction(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)

	err := c.SetAllChannels(ctx, bus.Action(0x00FF))
	assert.ErrorIs(t, err, bus.ErrInvalidAction)
	tr.AssertNoTransportCalls(t)
}

func TestToggleChannel(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(1), uint16(0x5500)).Return(nil).Once()

	require.NoError(t, c.ToggleChannel(ctx, bus.Channel2))
	tr.AssertExpectations(t)
}

func TestFlash(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleCoil", ctx, uint8(1), CoilFlashOn+2, uint16(7)).Return(nil).Once()
	tr.On("WriteSingleCoil", ctx, uint8(1), CoilFlashOff+0, uint16(10)).Return(nil).Once()

	require.NoError(t, c.FlashOn(ctx, bus.Channel3, 700*time.Millisecond))
	require.NoError(t, c.FlashOff(ctx, bus.Channel1, time.Second))

	assert.ErrorIs(t, c.FlashOn(ctx, bus.Channel1, 50*time.Millisecond), bus.ErrInvalidInterval)
	assert.ErrorIs(t, c.FlashOn(ctx, bus.Channel1, time.Hour), bus.ErrInvalidInterval)
	assert.ErrorIs(t, c.FlashOn(ctx, bus.Channel(8), time.Second), bus.ErrInvalidChannel)
	tr.AssertExpectations(t)
	tr.AssertNumberOfCalls(t, "WriteSingleCoil", 2)
}

func TestSetDeviceAddress(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleRegister", ctx, uint8(1), HoldingDeviceAddress, uint16(255)).Return(nil).Once()

	require.NoError(t, c.SetDeviceAddress(ctx, 255))
	assert.ErrorIs(t, c.SetDeviceAddress(ctx, 256), bus.ErrInvalidDeviceAddress)
	tr.AssertNumberOfCalls(t, "WriteSingleRegister", 1)
}

func TestReadSoftwareVersion(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadHoldingRegisters", ctx, uint8(1), HoldingSoftwareVersion, uint16(1)).Return([]uint16{100}, nil)

	v, err := c.ReadSoftwareVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), v)
}

func TestClose(t *testing.T) {
	c, tr := newTestController(t)
	tr.On("Close").Return(nil).Once()

	require.NoError(t, c.Close())
	tr.AssertExpectations(t)
}
